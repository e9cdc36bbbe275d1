// Package ui is the small clickable-element scene the automation natives
// drive: named rectangles with labels, hit testing, and ebiten drawing.
package ui

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

var (
	// 背景色 #0087C8
	backgroundColor = color.RGBA{0x00, 0x87, 0xC8, 0xFF}
	buttonColor     = color.RGBA{0xC0, 0xC0, 0xC0, 0xFF}
	pressedColor    = color.RGBA{0xFF, 0xFF, 0x00, 0xFF}
	borderColor     = color.Black
	textColor       = color.White
	labelColor      = color.Black

	// DefaultFace is the font used when Draw is given a nil face.
	DefaultFace text.Face = text.NewGoXFace(basicfont.Face7x13)
)

// ErrDuplicateElement is returned by Add for a name already on the screen.
var ErrDuplicateElement = errors.New("duplicate element name")

// Element is a named clickable rectangle.
type Element struct {
	Name   string
	Label  string
	Bounds image.Rectangle
	Clicks int

	// OnClick runs after Clicks is incremented.
	OnClick func(s *Screen, e *Element)
}

// Screen is an ordered set of elements; later elements are on top.
type Screen struct {
	Title    string
	elements []*Element
}

// NewScreen creates an empty screen.
func NewScreen(title string) *Screen {
	return &Screen{Title: title}
}

// Add appends e on top of the existing elements.
func (s *Screen) Add(e *Element) error {
	if e == nil || e.Name == "" {
		return errors.New("element must have a name")
	}
	if s.Has(e.Name) {
		return fmt.Errorf("%w: %s", ErrDuplicateElement, e.Name)
	}
	s.elements = append(s.elements, e)
	return nil
}

// Remove deletes the named element.
func (s *Screen) Remove(name string) bool {
	for i, e := range s.elements {
		if e.Name == name {
			s.elements = append(s.elements[:i], s.elements[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the named element.
func (s *Screen) Find(name string) (*Element, bool) {
	for _, e := range s.elements {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Has reports whether the named element exists.
func (s *Screen) Has(name string) bool {
	_, ok := s.Find(name)
	return ok
}

// Elements returns the elements bottom to top.
func (s *Screen) Elements() []*Element {
	return append([]*Element(nil), s.elements...)
}

// Len returns the number of elements.
func (s *Screen) Len() int {
	return len(s.elements)
}

// HitTest returns the topmost element containing (x, y).
func (s *Screen) HitTest(x, y int) (*Element, bool) {
	p := image.Pt(x, y)
	for i := len(s.elements) - 1; i >= 0; i-- {
		if p.In(s.elements[i].Bounds) {
			return s.elements[i], true
		}
	}
	return nil, false
}

// ClickAt clicks the topmost element at (x, y).
func (s *Screen) ClickAt(x, y int) (*Element, bool) {
	e, ok := s.HitTest(x, y)
	if !ok {
		return nil, false
	}
	s.click(e)
	return e, true
}

// ClickByName clicks the named element.
func (s *Screen) ClickByName(name string) (*Element, bool) {
	e, ok := s.Find(name)
	if !ok {
		return nil, false
	}
	s.click(e)
	return e, true
}

func (s *Screen) click(e *Element) {
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick(s, e)
	}
}

// Draw renders the screen onto dst. A nil face uses DefaultFace.
func (s *Screen) Draw(dst *ebiten.Image, face text.Face) {
	if face == nil {
		face = DefaultFace
	}
	dst.Fill(backgroundColor)

	if s.Title != "" {
		op := &text.DrawOptions{}
		op.GeoM.Translate(16, 16)
		op.ColorScale.ScaleWithColor(textColor)
		text.Draw(dst, s.Title, face, op)
	}

	for _, e := range s.elements {
		drawElement(dst, e, face)
	}
}

func drawElement(dst *ebiten.Image, e *Element, face text.Face) {
	x := float32(e.Bounds.Min.X)
	y := float32(e.Bounds.Min.Y)
	w := float32(e.Bounds.Dx())
	h := float32(e.Bounds.Dy())

	fill := buttonColor
	if e.Clicks%2 == 1 {
		fill = pressedColor
	}
	vector.DrawFilledRect(dst, x, y, w, h, fill, true)
	vector.StrokeRect(dst, x, y, w, h, 1, borderColor, true)

	label := e.Label
	if label == "" {
		label = e.Name
	}
	tw, th := text.Measure(label, face, 0)
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x)+(float64(w)-tw)/2, float64(y)+(float64(h)-th)/2)
	op.ColorScale.ScaleWithColor(labelColor)
	text.Draw(dst, label, face, op)
}

// Names of the elements on the demo screen.
const (
	ElementStart    = "start"
	ElementOptions  = "options"
	ElementQuit     = "quit"
	ElementPlayArea = "play_area"
)

// DemoScreen builds a title screen with Start, Options and Quit buttons
// centered in a width x height area. Clicking Start adds a play area
// element; clicking it again removes the play area.
func DemoScreen(width, height int) *Screen {
	s := NewScreen("autoscript demo")

	const bw, bh, gap = 160, 32, 16
	x := (width - bw) / 2
	y := (height - 3*bh - 2*gap) / 2

	buttons := []struct{ name, label string }{
		{ElementStart, "Start"},
		{ElementOptions, "Options"},
		{ElementQuit, "Quit"},
	}
	for i, b := range buttons {
		top := y + i*(bh+gap)
		// 名前は固定なので重複しない
		_ = s.Add(&Element{Name: b.name, Label: b.label, Bounds: image.Rect(x, top, x+bw, top+bh)})
	}

	start, _ := s.Find(ElementStart)
	start.OnClick = func(s *Screen, _ *Element) {
		if s.Remove(ElementPlayArea) {
			return
		}
		_ = s.Add(&Element{
			Name:   ElementPlayArea,
			Label:  "Playing",
			Bounds: image.Rect(8, height-8-bh, width-8, height-8),
		})
	}
	return s
}

// GameOverScreen is shown after quit_game.
func GameOverScreen(width, height int) *Screen {
	s := NewScreen("game over (ESC to exit)")
	const bw, bh = 200, 40
	x, y := (width-bw)/2, (height-bh)/2
	_ = s.Add(&Element{Name: "game_over", Label: "GAME OVER", Bounds: image.Rect(x, y, x+bw, y+bh)})
	return s
}
