package window

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/zurustar/autoscript/pkg/automation"
	"github.com/zurustar/autoscript/pkg/logger"
	"github.com/zurustar/autoscript/pkg/screenshot"
	"github.com/zurustar/autoscript/pkg/ui"
	"github.com/zurustar/autoscript/pkg/vm"
)

var (
	// デバッグオーバーレイの文字色（黄色）
	debugTextColor = color.RGBA{0xFF, 0xFF, 0x00, 0xFF}
	// デバッグオーバーレイの背景
	debugBackColor = color.RGBA{0x00, 0x00, 0x00, 0xA0}
)

// Machine is the VM type driven by the host.
type Machine = vm.VM[*automation.Context]

// StopReason tells why the host loop ended.
type StopReason int

const (
	StopNone      StopReason = iota // まだ実行中
	StopHalted                      // スクリプトが正常終了
	StopFailed                      // 実行時エラー
	StopQuitApp                     // quit_app が呼ばれた
	StopTimeout                     // タイムアウト
	StopMaxFrames                   // 最大フレーム数に到達
	StopEscape                      // ESCキー
	StopCanceled                    // コンテキストのキャンセル
)

var stopReasonNames = [...]string{
	StopNone:      "none",
	StopHalted:    "halted",
	StopFailed:    "failed",
	StopQuitApp:   "quit_app",
	StopTimeout:   "timeout",
	StopMaxFrames: "max_frames",
	StopEscape:    "escape",
	StopCanceled:  "canceled",
}

func (r StopReason) String() string {
	if r >= 0 && int(r) < len(stopReasonNames) {
		return stopReasonNames[r]
	}
	return fmt.Sprintf("StopReason(%d)", int(r))
}

// Result summarizes a finished run.
type Result struct {
	Reason StopReason
	Frames int
	Err    error // runtime error when Reason is StopFailed
}

// DebugOptions configures the debug overlay.
type DebugOptions struct {
	Enabled bool
	Face    text.Face // nil uses ui.DefaultFace
}

// Options configures the host.
type Options struct {
	Width, Height int
	Title         string
	TPS           int
	Timeout       time.Duration // 0は無制限
	MaxFrames     int           // 0は無制限
	Debug         DebugOptions
	Screenshots   *screenshot.Writer // nilならスクリーンショットを保存しない
	Logger        *slog.Logger

	// Realtime paces RunHeadless at TPS instead of running as fast as possible.
	Realtime bool
}

func (o *Options) setDefaults() {
	if o.Width <= 0 {
		o.Width = 640
	}
	if o.Height <= 0 {
		o.Height = 480
	}
	if o.TPS <= 0 {
		o.TPS = ebiten.DefaultTPS
	}
	if o.Title == "" {
		o.Title = "autoscript"
	}
	if o.Logger == nil {
		o.Logger = logger.GetLogger()
	}
}

// Game はEbitengineのゲームインターフェースを実装する
type Game struct {
	machine *Machine
	ctx     *automation.Context
	opts    Options
	log     *slog.Logger

	screen   *ui.Screen // 現在のシーン
	gameOver bool

	now       func() time.Time
	startTime time.Time
	frames    int
	lastKind  vm.StatusKind
	result    Result
	headless  bool
}

// NewGame creates a Game around a loaded machine, showing ui.DemoScreen.
func NewGame(machine *Machine, opts Options) *Game {
	opts.setDefaults()
	g := &Game{
		machine:  machine,
		opts:     opts,
		log:      opts.Logger,
		screen:   ui.DemoScreen(opts.Width, opts.Height),
		now:      time.Now,
		lastKind: vm.Idle,
	}
	g.ctx = automation.NewContext(g, opts.Logger)
	g.startTime = g.now()
	return g
}

// Has reports whether the current scene has the named element.
func (g *Game) Has(name string) bool {
	return g.screen.Has(name)
}

// Context returns the execution context passed to the VM.
func (g *Game) Context() *automation.Context { return g.ctx }

// Screen returns the current scene.
func (g *Game) Screen() *ui.Screen { return g.screen }

// Result returns the outcome so far.
func (g *Game) Result() Result { return g.result }

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
func (g *Game) Update() error {
	// Escキーで終了
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return g.stop(StopEscape, nil)
	}

	// デバッグ表示中はRキーでスクリプトを最初から実行し直す
	if g.opts.Debug.Enabled && inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Restart()
	}

	// 実際のマウスクリックもUIに届ける
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if e, ok := g.screen.ClickAt(x, y); ok {
			g.log.Debug("mouse click", "element", e.Name, "x", x, "y", y)
		}
	}

	return g.step()
}

// step runs one frame of host logic: budgets, pending requests, one VM tick.
// It returns ebiten.Termination once the run is over.
func (g *Game) step() error {
	if g.result.Reason != StopNone {
		return ebiten.Termination
	}

	// タイムアウトチェック
	if g.opts.Timeout > 0 && g.now().Sub(g.startTime) >= g.opts.Timeout {
		return g.stop(StopTimeout, nil)
	}
	if g.opts.MaxFrames > 0 && g.frames >= g.opts.MaxFrames {
		return g.stop(StopMaxFrames, nil)
	}

	g.frames++
	g.ctx.BeginFrame()
	g.deliverClicks()
	if g.headless {
		g.skipScreenshots()
	}

	st := g.machine.Tick(g.ctx)
	if st.Kind != g.lastKind {
		g.log.Debug("vm status changed", "from", g.lastKind.String(), "to", st.Kind.String(), "frame", g.frames)
		g.lastKind = st.Kind
	}

	switch st.Kind {
	case vm.Failed:
		return g.stop(StopFailed, st.Err)
	case vm.Halted:
		return g.stop(StopHalted, nil)
	case vm.Idle:
		return g.stop(StopFailed, vm.NewRuntimeError(vm.ErrorNotLoaded, "no script loaded"))
	}

	if g.ctx.QuitApp() {
		return g.stop(StopQuitApp, nil)
	}
	if g.ctx.QuitGame() && !g.gameOver {
		g.gameOver = true
		g.screen = ui.GameOverScreen(g.opts.Width, g.opts.Height)
		g.log.Info("game over", "frame", g.frames)
	}
	return nil
}

// Restart runs the script again from its entry on the demo scene. Requests
// and completions of the abandoned run are dropped with it. Frame and time
// budgets still count from the original start.
func (g *Game) Restart() {
	if g.result.Reason != StopNone {
		return
	}
	g.machine.Reset()
	g.ctx.Reset()
	g.screen = ui.DemoScreen(g.opts.Width, g.opts.Height)
	g.gameOver = false
	g.log.Info("script restarted", "frame", g.frames)
}

// deliverClicks applies the click requests queued by the previous tick.
func (g *Game) deliverClicks() {
	for _, req := range g.ctx.TakeClicks() {
		var (
			e  *ui.Element
			ok bool
		)
		if req.ByName {
			e, ok = g.screen.ClickByName(req.Name)
		} else {
			e, ok = g.screen.ClickAt(req.X, req.Y)
		}
		result := automation.ClickResult{Hit: ok}
		if ok {
			result.Element = e.Name
			g.log.Debug("click delivered", "element", e.Name, "frame", g.frames)
		} else if req.ByName {
			g.log.Warn("click target not found", "element", req.Name, "frame", g.frames)
		} else {
			g.log.Debug("click hit nothing", "x", req.X, "y", req.Y, "frame", g.frames)
		}
		g.ctx.CompleteClick(req.ID, result)
	}
}

// skipScreenshots completes capture requests without writing anything.
func (g *Game) skipScreenshots() {
	for _, req := range g.ctx.TakeScreenshots() {
		g.log.Info("screenshot skipped in headless mode", "suffix", req.Suffix, "frame", req.Frame)
		g.ctx.CompleteScreenshot(req.ID, "")
	}
}

func (g *Game) stop(reason StopReason, err error) error {
	if g.result.Reason == StopNone {
		g.result = Result{Reason: reason, Frames: g.frames, Err: err}
		if err != nil {
			g.log.Error("run stopped", "reason", reason.String(), "frames", g.frames, "error", err)
		} else {
			g.log.Info("run stopped", "reason", reason.String(), "frames", g.frames)
		}
	}
	return ebiten.Termination
}

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	g.screen.Draw(screen, nil)
	if g.opts.Debug.Enabled {
		drawDebug(screen, g.DebugInfo(), g.opts.Debug)
	}
	g.captureScreenshots(screen)
}

// captureScreenshots writes the drawn frame for each pending request.
func (g *Game) captureScreenshots(screen *ebiten.Image) {
	reqs := g.ctx.TakeScreenshots()
	if len(reqs) == 0 {
		return
	}
	if g.opts.Screenshots == nil {
		for _, req := range reqs {
			g.log.Info("screenshot not saved: no output directory", "suffix", req.Suffix)
			g.ctx.CompleteScreenshot(req.ID, "")
		}
		return
	}

	b := screen.Bounds()
	pix := make([]byte, 4*b.Dx()*b.Dy())
	screen.ReadPixels(pix)
	img, err := screenshot.FromRGBA(pix, b.Dx(), b.Dy())
	if err != nil {
		g.log.Error("screenshot capture failed", "error", err)
		for _, req := range reqs {
			g.ctx.CompleteScreenshot(req.ID, "")
		}
		return
	}
	for _, req := range reqs {
		path, err := g.opts.Screenshots.Write(img, req.Suffix, req.Frame)
		if err != nil {
			g.log.Error("screenshot failed", "suffix", req.Suffix, "error", err)
		} else {
			g.log.Info("screenshot saved", "path", path)
		}
		g.ctx.CompleteScreenshot(req.ID, path)
	}
}

// Layout 画面サイズを返す
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.opts.Width, g.opts.Height
}

// Run opens a window and runs the machine until it stops.
func Run(machine *Machine, opts Options) (Result, error) {
	game := NewGame(machine, opts)

	// ウィンドウ設定
	ebiten.SetWindowSize(game.opts.Width, game.opts.Height)
	ebiten.SetWindowTitle(game.opts.Title)
	ebiten.SetTPS(game.opts.TPS)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	// ゲームを実行
	if err := ebiten.RunGame(game); err != nil {
		return game.Result(), fmt.Errorf("failed to run game: %w", err)
	}
	if game.result.Reason == StopNone {
		// ウィンドウが閉じられた
		game.result = Result{Reason: StopEscape, Frames: game.frames}
	}
	return game.Result(), nil
}

// RunHeadless runs the same frame logic without a window until the machine
// stops or ctx is canceled.
func RunHeadless(ctx context.Context, machine *Machine, opts Options) (Result, error) {
	game := NewGame(machine, opts)
	game.headless = true
	return game.runHeadless(ctx)
}

func (g *Game) runHeadless(ctx context.Context) (Result, error) {
	var tick <-chan time.Time
	if g.opts.Realtime {
		ticker := time.NewTicker(time.Second / time.Duration(g.opts.TPS))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			g.stop(StopCanceled, nil)
			return g.result, ctx.Err()
		default:
		}

		if err := g.step(); err != nil {
			if errors.Is(err, ebiten.Termination) {
				return g.result, nil
			}
			return g.result, err
		}

		if tick != nil {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
	}
}
