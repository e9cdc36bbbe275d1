package window

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/zurustar/autoscript/pkg/ui"
	"github.com/zurustar/autoscript/pkg/vm"
)

// DebugInfo is the VM snapshot shown by the debug overlay.
type DebugInfo struct {
	State     vm.State
	PC        int
	Ticks     int
	Depth     int
	Frame     int
	Pending   string   // native call in flight, if any
	Stack     []string // script functions entered, innermost last
	LastDebug string
}

// DebugInfo returns the current VM snapshot.
func (g *Game) DebugInfo() DebugInfo {
	info := DebugInfo{
		State:     g.machine.State(),
		PC:        g.machine.PC(),
		Ticks:     g.machine.Ticks(),
		Depth:     g.machine.Depth(),
		Frame:     g.frames,
		LastDebug: g.ctx.LastDebug(),
	}
	if name, ok := g.machine.PendingCall(); ok {
		info.Pending = name
	}
	for _, f := range g.machine.Stack() {
		info.Stack = append(info.Stack, f.FunctionName)
	}
	return info
}

// Lines formats the snapshot one field per line.
func (d DebugInfo) Lines() []string {
	pending := d.Pending
	if pending == "" {
		pending = "-"
	}
	stack := "-"
	if len(d.Stack) > 0 {
		stack = strings.Join(d.Stack, " > ")
	}
	return []string{
		fmt.Sprintf("state: %s", d.State),
		fmt.Sprintf("pc: %d  depth: %d", d.PC, d.Depth),
		fmt.Sprintf("tick: %d  frame: %d", d.Ticks, d.Frame),
		fmt.Sprintf("call: %s", pending),
		fmt.Sprintf("stack: %s", stack),
		fmt.Sprintf("debug: %q", d.LastDebug),
	}
}

const (
	debugX          = 8
	debugLineHeight = 16
	debugPadding    = 4
	debugWidth      = 300
)

// drawDebug draws info in the bottom-left corner.
func drawDebug(dst *ebiten.Image, info DebugInfo, opts DebugOptions) {
	face := opts.Face
	if face == nil {
		face = ui.DefaultFace
	}
	lines := info.Lines()
	h := len(lines)*debugLineHeight + 2*debugPadding
	y := dst.Bounds().Dy() - h - debugX

	vector.DrawFilledRect(dst, debugX, float32(y), debugWidth, float32(h), debugBackColor, false)
	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(debugX+debugPadding, float64(y+debugPadding+i*debugLineHeight))
		op.ColorScale.ScaleWithColor(debugTextColor)
		text.Draw(dst, line, face, op)
	}
}
