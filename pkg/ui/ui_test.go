package ui

import (
	"errors"
	"image"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestScreen_AddFindRemove(t *testing.T) {
	s := NewScreen("t")
	if err := s.Add(&Element{Name: "a", Bounds: image.Rect(0, 0, 10, 10)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(&Element{Name: "a"}); !errors.Is(err, ErrDuplicateElement) {
		t.Errorf("duplicate Add error = %v", err)
	}
	if err := s.Add(&Element{}); err == nil {
		t.Error("Add without a name should fail")
	}
	if err := s.Add(nil); err == nil {
		t.Error("Add(nil) should fail")
	}

	if e, ok := s.Find("a"); !ok || e.Name != "a" {
		t.Errorf("Find(a) = %v, %v", e, ok)
	}
	if s.Has("b") {
		t.Error("Has(b) = true")
	}
	if !s.Remove("a") || s.Remove("a") || s.Len() != 0 {
		t.Error("Remove should delete exactly once")
	}
}

func TestScreen_HitTest(t *testing.T) {
	s := NewScreen("")
	_ = s.Add(&Element{Name: "bottom", Bounds: image.Rect(0, 0, 100, 100)})
	_ = s.Add(&Element{Name: "top", Bounds: image.Rect(50, 50, 80, 80)})

	tests := []struct {
		name string
		x, y int
		want string
	}{
		{"下の要素のみ", 10, 10, "bottom"},
		{"重なりは上の要素", 60, 60, "top"},
		{"左上の角は含む", 50, 50, "top"},
		{"右下の角は含まない", 80, 80, "bottom"},
		{"範囲外", 100, 100, ""},
		{"負の座標", -1, 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := s.HitTest(tt.x, tt.y)
			got := ""
			if ok {
				got = e.Name
			}
			if got != tt.want {
				t.Errorf("HitTest(%d, %d) = %q, want %q", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestScreen_Clicks(t *testing.T) {
	s := NewScreen("")
	var fired []string
	_ = s.Add(&Element{
		Name:    "btn",
		Bounds:  image.Rect(0, 0, 10, 10),
		OnClick: func(_ *Screen, e *Element) { fired = append(fired, e.Name) },
	})

	if _, ok := s.ClickAt(5, 5); !ok {
		t.Fatal("ClickAt inside should hit")
	}
	if _, ok := s.ClickAt(50, 50); ok {
		t.Fatal("ClickAt outside should miss")
	}
	if _, ok := s.ClickByName("btn"); !ok {
		t.Fatal("ClickByName should hit")
	}
	if _, ok := s.ClickByName("nope"); ok {
		t.Fatal("ClickByName of a missing element should miss")
	}

	e, _ := s.Find("btn")
	if e.Clicks != 2 || len(fired) != 2 {
		t.Errorf("Clicks = %d, callbacks = %d, want 2 and 2", e.Clicks, len(fired))
	}
}

func TestDemoScreen(t *testing.T) {
	s := DemoScreen(640, 480)
	for _, name := range []string{ElementStart, ElementOptions, ElementQuit} {
		e, ok := s.Find(name)
		if !ok {
			t.Fatalf("missing %s", name)
		}
		if !e.Bounds.In(image.Rect(0, 0, 640, 480)) {
			t.Errorf("%s bounds %v outside the screen", name, e.Bounds)
		}
		c := e.Bounds.Min.Add(e.Bounds.Size().Div(2))
		if hit, ok := s.HitTest(c.X, c.Y); !ok || hit.Name != name {
			t.Errorf("center of %s hits %v", name, hit)
		}
	}

	if s.Has(ElementPlayArea) {
		t.Fatal("play area should not exist before Start")
	}
	s.ClickByName(ElementStart)
	if !s.Has(ElementPlayArea) {
		t.Fatal("Start should add the play area")
	}
	s.ClickByName(ElementStart)
	if s.Has(ElementPlayArea) {
		t.Fatal("second Start should remove the play area")
	}
}

func TestGameOverScreen(t *testing.T) {
	s := GameOverScreen(640, 480)
	if s.Len() != 1 || !s.Has("game_over") {
		t.Errorf("elements = %v", s.Elements())
	}
}

func TestProperty_HitTestMatchesBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("HitTest finds an element exactly when the point is inside its bounds", prop.ForAll(
		func(x0, y0, w, h, px, py int) bool {
			s := NewScreen("")
			r := image.Rect(x0, y0, x0+w, y0+h)
			_ = s.Add(&Element{Name: "e", Bounds: r})
			_, ok := s.HitTest(px, py)
			return ok == image.Pt(px, py).In(r)
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.IntRange(1, 50),
		gen.IntRange(1, 50),
		gen.IntRange(-10, 200),
		gen.IntRange(-10, 200),
	))

	properties.TestingRun(t)
}
