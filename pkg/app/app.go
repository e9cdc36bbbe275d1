package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zurustar/autoscript/pkg/automation"
	"github.com/zurustar/autoscript/pkg/cli"
	"github.com/zurustar/autoscript/pkg/config"
	"github.com/zurustar/autoscript/pkg/logger"
	"github.com/zurustar/autoscript/pkg/screenshot"
	"github.com/zurustar/autoscript/pkg/script"
	"github.com/zurustar/autoscript/pkg/vm"
	"github.com/zurustar/autoscript/pkg/window"
)

// DefaultScript はスクリプト未指定時に組み込みFSから読み込むファイル
const DefaultScript = "smoke.auto"

// ErrScriptFailed is wrapped by Run when the script stops with a runtime error.
var ErrScriptFailed = errors.New("script failed")

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	flags   *cli.Config
	config  *config.Config
	log     *slog.Logger
	scripts fs.FS // 組み込みスクリプト

	stdout io.Writer
	logOut io.Writer

	// runWindow opens the real window; tests replace it.
	runWindow func(*window.Machine, window.Options) (window.Result, error)
}

// New Applicationを作成。scripts は DefaultScript を含むFS
func New(scripts fs.FS) *Application {
	return &Application{
		scripts:   scripts,
		stdout:    os.Stdout,
		logOut:    os.Stdout,
		runWindow: window.Run,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	return app.RunContext(context.Background(), args)
}

// RunContext runs the application; ctx cancels headless runs.
func (app *Application) RunContext(ctx context.Context, args []string) error {
	// 1. コマンドライン引数の解析
	flags, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.flags = flags

	if flags.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. 設定ファイルの読み込みとフラグのマージ
	if err := app.loadConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ロガーの初期化
	if err := logger.InitLoggerTo(app.logOut, app.config.Log.Level, app.config.Log.Format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()
	app.log.Info("Application started", "config", app.config.Path)

	// 4. スクリプトの読み込み
	sources, err := app.loadSources()
	if err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}
	for _, src := range sources {
		app.log.Info("Script loaded", "name", src.FileName, "size", src.Size, "encoding", src.Encoding)
	}

	// 5. コンパイル（ディレクトリ指定時はすべてのファイル）
	compiled := make([]*script.Script, len(sources))
	for i, src := range sources {
		s, err := app.compile(src)
		if err != nil {
			for _, line := range strings.Split(err.Error(), "\n") {
				app.log.Error("Compilation failed", "error", line)
			}
			return fmt.Errorf("failed to compile script: %w", err)
		}
		compiled[i] = s
	}

	if flags.Dump {
		app.dump(sources, compiled)
		return nil
	}

	s, err := app.selectEntry(sources, compiled)
	if err != nil {
		return fmt.Errorf("failed to select entry script: %w", err)
	}

	// 6. VMの準備
	machine, err := app.newMachine(s)
	if err != nil {
		return fmt.Errorf("failed to load script into vm: %w", err)
	}

	// 7. 実行
	res, err := app.execute(ctx, machine)
	if err != nil {
		return fmt.Errorf("failed to run: %w", err)
	}
	return app.finish(res)
}

// loadConfig reads the TOML file named by --config, or the nearest
// autoscript.toml above the script, then applies explicit flags.
func (app *Application) loadConfig() error {
	var (
		cfg *config.Config
		err error
	)
	if app.flags.ConfigPath != "" {
		cfg, err = config.Load(app.flags.ConfigPath)
	} else {
		start := "."
		if path := app.flags.ScriptPath; path != "" {
			start = filepath.Dir(path)
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				start = path
			}
		}
		cfg, err = config.FindAndLoad(start)
	}
	if err != nil {
		return err
	}

	cfg.ApplyFlags(app.flags)
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.config = cfg
	return nil
}

// loadSources loads the script named on the command line, every .auto file
// of a directory named there, or the embedded default.
func (app *Application) loadSources() ([]*script.Source, error) {
	if path := app.flags.ScriptPath; path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return script.NewLoader(os.DirFS(path)).LoadAll(".")
		}
		dir, name := filepath.Split(path)
		if dir == "" {
			dir = "."
		}
		src, err := script.NewLoader(os.DirFS(dir)).Load(name)
		if err != nil {
			return nil, err
		}
		return []*script.Source{src}, nil
	}
	if app.scripts == nil {
		return nil, errors.New("no script given and no embedded scripts available")
	}
	app.log.Info("No script given, using embedded script", "name", DefaultScript)
	src, err := script.NewLoader(app.scripts).Load(DefaultScript)
	if err != nil {
		return nil, err
	}
	return []*script.Source{src}, nil
}

// selectEntry returns the only script defining the entry function.
func (app *Application) selectEntry(sources []*script.Source, compiled []*script.Script) (*script.Script, error) {
	if len(compiled) == 1 {
		return compiled[0], nil
	}
	entry := app.config.VM.Entry
	var (
		found *script.Script
		names []string
	)
	for i, s := range compiled {
		if _, ok := s.LabelPC(entry); ok {
			found = s
			names = append(names, sources[i].FileName)
		}
	}
	switch len(names) {
	case 0:
		return nil, fmt.Errorf("no script defines %q", entry)
	case 1:
		app.log.Info("Entry script found", "name", names[0], "entry", entry)
		return found, nil
	default:
		return nil, fmt.Errorf("%q is defined in several scripts: %s", entry, strings.Join(names, ", "))
	}
}

// dump prints the disassembly of each script, with a header per file when
// there are several.
func (app *Application) dump(sources []*script.Source, compiled []*script.Script) {
	for i, s := range compiled {
		if len(compiled) > 1 {
			fmt.Fprintf(app.stdout, "== %s ==\n", sources[i].FileName)
		}
		fmt.Fprint(app.stdout, s.Disassemble())
	}
}

func (app *Application) compile(src *script.Source) (*script.Script, error) {
	cache := NewCache(app.config.Compiler.CacheDir, app.config.Compiler.MaxCallArgs, app.log)
	s, hit, err := cache.Compile(src)
	if err != nil {
		return nil, err
	}
	app.log.Info("Script compiled", "ops", s.Len(), "literals", s.NumLiterals(), "cached", hit)
	app.log.Debug("Disassembly", "code", s.Disassemble())
	return s, nil
}

func (app *Application) newMachine(s *script.Script) (*window.Machine, error) {
	registry := automation.NewRegistry(app.log)
	machine := vm.New(registry,
		vm.WithLogger(app.log),
		vm.WithEntryLabel(app.config.VM.Entry),
		vm.WithMaxStackDepth(app.config.VM.MaxStackDepth),
	)
	if err := machine.Load(s); err != nil {
		return nil, err
	}
	return machine, nil
}

func (app *Application) windowOptions() (window.Options, error) {
	cfg := app.config
	opts := window.Options{
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Title:     cfg.Window.Title,
		TPS:       cfg.Window.TPS,
		Timeout:   cfg.Run.Timeout(),
		MaxFrames: cfg.Run.MaxFrames,
		Debug:     window.DebugOptions{Enabled: cfg.Window.ShowDebug},
		Logger:    app.log,
	}
	if cfg.Screenshot.Dir != "" {
		w, err := screenshot.New(cfg.Screenshot.Dir, cfg.Screenshot.Format)
		if err != nil {
			return opts, err
		}
		opts.Screenshots = w
	}
	return opts, nil
}

func (app *Application) execute(ctx context.Context, machine *window.Machine) (window.Result, error) {
	opts, err := app.windowOptions()
	if err != nil {
		return window.Result{}, err
	}

	// ヘッドレスモードの場合
	if app.config.Run.Headless {
		app.log.Info("Running headless", "max_frames", opts.MaxFrames, "timeout", opts.Timeout)
		return window.RunHeadless(ctx, machine, opts)
	}

	app.log.Info("Opening window", "width", opts.Width, "height", opts.Height)
	return app.runWindow(machine, opts)
}

// finish maps the stop reason to the process outcome.
func (app *Application) finish(res window.Result) error {
	switch res.Reason {
	case window.StopFailed:
		return fmt.Errorf("%w after %d frames: %w", ErrScriptFailed, res.Frames, res.Err)
	case window.StopTimeout, window.StopMaxFrames:
		app.log.Warn("Script did not finish", "reason", res.Reason.String(), "frames", res.Frames)
	default:
		app.log.Info("Application terminated normally", "reason", res.Reason.String(), "frames", res.Frames)
	}
	return nil
}
