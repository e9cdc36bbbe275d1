package automation

import (
	"log/slog"
	"math"
	"strings"

	"github.com/zurustar/autoscript/pkg/native"
	"github.com/zurustar/autoscript/pkg/opcode"
)

// Native names registered by Register.
const (
	NameClickElementWithName = "ui_click_element_with_name"
	NameClickPos             = "ui_click_pos"
	NameQueueScreenshot      = "queue_screenshot"
	NameQuitGame             = "quit_game"
	NameQuitApp              = "quit_app"
	NameWaitUntilElement     = "wait_until_element"
)

// Registry is the native registry type used by the game host.
type Registry = native.Registry[*Context]

// NewRegistry returns a registry with every host native registered.
func NewRegistry(logger *slog.Logger) *Registry {
	r := native.NewRegistry[*Context]()
	Register(r, logger)
	return r
}

// Register adds the host natives to r, along with noop, debug and
// wait_frames. Existing entries with the same names are replaced.
func Register(r *Registry, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	native.RegisterBuiltins(r, logger)
	r.MustRegister(native.NameDebug, Debug(logger))
	r.MustRegister(NameClickElementWithName, ClickElementWithName())
	r.MustRegister(NameClickPos, ClickPos())
	r.MustRegister(NameQueueScreenshot, QueueScreenshot())
	r.MustRegister(NameQuitGame, QuitGame())
	r.MustRegister(NameQuitApp, QuitApp())
	r.MustRegister(NameWaitUntilElement, WaitUntilElement())
}

// Names returns every native name Register installs, sorted.
func Names() []string {
	r := native.NewRegistry[*Context]()
	Register(r, slog.New(slog.DiscardHandler))
	return r.Names()
}

// Debug logs its message and records it as the context's last debug message.
func Debug(logger *slog.Logger) native.Factory[*Context] {
	return native.Instant(func(ctx *Context, args []opcode.Literal) {
		msg, _ := native.StringArg(args, 0)
		ctx.lastDebug = msg
		logger.Info("script debug", "message", msg, "frame", ctx.frame)
	}, opcode.LiteralString)
}

// hostRequest submits a request on its first advance and completes on the
// first later advance that finds the request handled.
type hostRequest struct {
	bind   func(args []opcode.Literal) bool
	submit func(ctx *Context) int
	done   func(ctx *Context, id int) bool

	id     int
	queued bool
}

func (h *hostRequest) Bind(_ *Context, args []opcode.Literal) bool {
	return h.bind(args)
}

func (h *hostRequest) Advance(ctx *Context) bool {
	if !h.queued {
		h.id = h.submit(ctx)
		h.queued = true
		return false
	}
	return h.done(ctx, h.id)
}

func clickDone(ctx *Context, id int) bool {
	_, ok := ctx.ClickDelivered(id)
	return ok
}

// ClickElementWithName returns a factory for ui_click_element_with_name(name).
func ClickElementWithName() native.Factory[*Context] {
	return func() native.Function[*Context] {
		var name string
		return &hostRequest{
			bind: func(args []opcode.Literal) bool {
				if !native.ExpectArgs(args, opcode.LiteralString) {
					return false
				}
				name, _ = native.StringArg(args, 0)
				return name != ""
			},
			submit: func(ctx *Context) int { return ctx.RequestClickByName(name) },
			done:   clickDone,
		}
	}
}

// ClickPos returns a factory for ui_click_pos(x, y).
func ClickPos() native.Factory[*Context] {
	return func() native.Function[*Context] {
		var x, y int
		return &hostRequest{
			bind: func(args []opcode.Literal) bool {
				if !native.ExpectArgs(args, opcode.LiteralInt, opcode.LiteralInt) {
					return false
				}
				var ok bool
				if x, ok = coordArg(args, 0); !ok {
					return false
				}
				y, ok = coordArg(args, 1)
				return ok
			},
			submit: func(ctx *Context) int { return ctx.RequestClickAt(x, y) },
			done:   clickDone,
		}
	}
}

func coordArg(args []opcode.Literal, i int) (int, bool) {
	v, ok := native.IntArg(args, i)
	if !ok || v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

// QueueScreenshot returns a factory for queue_screenshot(suffix). The suffix
// becomes part of a file name and may not contain path separators.
func QueueScreenshot() native.Factory[*Context] {
	return func() native.Function[*Context] {
		var suffix string
		return &hostRequest{
			bind: func(args []opcode.Literal) bool {
				if !native.ExpectArgs(args, opcode.LiteralString) {
					return false
				}
				suffix, _ = native.StringArg(args, 0)
				return !strings.ContainsAny(suffix, `/\`)
			},
			submit: func(ctx *Context) int { return ctx.RequestScreenshot(suffix) },
			done: func(ctx *Context, id int) bool {
				_, ok := ctx.ScreenshotCaptured(id)
				return ok
			},
		}
	}
}

// QuitGame returns a factory for quit_game().
func QuitGame() native.Factory[*Context] {
	return native.Instant(func(ctx *Context, _ []opcode.Literal) {
		ctx.quitGame = true
	})
}

// QuitApp returns a factory for quit_app().
func QuitApp() native.Factory[*Context] {
	return native.Instant(func(ctx *Context, _ []opcode.Literal) {
		ctx.quitApp = true
	})
}

// WaitUntilElement returns a factory for wait_until_element(name), which
// completes on the first advance that finds the element.
func WaitUntilElement() native.Factory[*Context] {
	return func() native.Function[*Context] {
		var name string
		return &native.Func[*Context]{
			BindFunc: func(_ *Context, args []opcode.Literal) bool {
				if !native.ExpectArgs(args, opcode.LiteralString) {
					return false
				}
				name, _ = native.StringArg(args, 0)
				return true
			},
			AdvanceFunc: func(ctx *Context) bool {
				return ctx.HasElement(name)
			},
		}
	}
}
