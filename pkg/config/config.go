// Package config handles the autoscript.toml settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/zurustar/autoscript/pkg/cli"
	"github.com/zurustar/autoscript/pkg/vm"
)

// FileName is the settings file looked up by FindAndLoad.
const FileName = "autoscript.toml"

// Config represents an autoscript.toml file merged with defaults.
type Config struct {
	VM         VMConfig         `toml:"vm"`
	Compiler   CompilerConfig   `toml:"compiler"`
	Run        RunConfig        `toml:"run"`
	Window     WindowConfig     `toml:"window"`
	Screenshot ScreenshotConfig `toml:"screenshot"`
	Log        LogConfig        `toml:"log"`

	// Path is the file the settings were read from (set at load time).
	Path string `toml:"-"`
}

// VMConfig configures the virtual machine.
type VMConfig struct {
	Entry         string `toml:"entry"`
	MaxStackDepth int    `toml:"max_stack_depth"`
}

// CompilerConfig configures compilation.
type CompilerConfig struct {
	// MaxCallArgs limits literal arguments per call; 0 means unlimited.
	MaxCallArgs int    `toml:"max_call_args"`
	CacheDir    string `toml:"cache_dir"`
}

// RunConfig bounds a run.
type RunConfig struct {
	Headless bool `toml:"headless"`
	// TimeoutSeconds stops the host after this many seconds; 0 means no limit.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// MaxFrames stops the host after this many ticks; 0 means no limit.
	MaxFrames int `toml:"max_frames"`
}

// Timeout returns TimeoutSeconds as a duration.
func (r RunConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// WindowConfig configures the game window.
type WindowConfig struct {
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Title     string `toml:"title"`
	TPS       int    `toml:"tps"`
	ShowDebug bool   `toml:"show_debug"`
}

// ScreenshotConfig configures screenshot output.
type ScreenshotConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		VM: VMConfig{
			Entry:         vm.DefaultEntryLabel,
			MaxStackDepth: vm.MaxStackDepth,
		},
		Window: WindowConfig{
			Width:  640,
			Height: 480,
			Title:  "autoscript",
			TPS:    60,
		},
		Screenshot: ScreenshotConfig{
			Dir:    "screenshots",
			Format: "png",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Parse decodes TOML data on top of the defaults. name is used in errors.
// Unknown keys are rejected.
func Parse(data []byte, name string) (*Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", name, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in %s: %s", name, strings.Join(keys, ", "))
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	c.Screenshot.Format = strings.ToLower(c.Screenshot.Format)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// Load parses the settings file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	c.Path = path
	return c, nil
}

// FindAndLoad walks up from startDir to find an autoscript.toml file and
// loads it. Returns the defaults if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if !isIdentifier(c.VM.Entry) {
		errs = append(errs, fmt.Errorf("vm.entry: %q is not a function name", c.VM.Entry))
	}
	if c.VM.MaxStackDepth <= 0 {
		errs = append(errs, fmt.Errorf("vm.max_stack_depth must be positive, got %d", c.VM.MaxStackDepth))
	}
	if c.Compiler.MaxCallArgs < 0 {
		errs = append(errs, fmt.Errorf("compiler.max_call_args must be non-negative, got %d", c.Compiler.MaxCallArgs))
	}
	if c.Run.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("run.timeout_seconds must be non-negative, got %d", c.Run.TimeoutSeconds))
	}
	if c.Run.MaxFrames < 0 {
		errs = append(errs, fmt.Errorf("run.max_frames must be non-negative, got %d", c.Run.MaxFrames))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Window.TPS <= 0 {
		errs = append(errs, fmt.Errorf("window.tps must be positive, got %d", c.Window.TPS))
	}
	switch c.Screenshot.Format {
	case "png", "bmp":
	default:
		errs = append(errs, fmt.Errorf("screenshot.format: %q is not png or bmp", c.Screenshot.Format))
	}
	if err := cli.ValidateLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if err := cli.ValidateLogFormat(c.Log.Format); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ApplyFlags overrides file values with the flags and environment variables
// the user set explicitly.
func (c *Config) ApplyFlags(f *cli.Config) {
	if f.IsSet("entry") {
		c.VM.Entry = f.Entry
	}
	if f.IsSet("max-args") {
		c.Compiler.MaxCallArgs = f.MaxArgs
	}
	if f.IsSet("cache-dir") {
		c.Compiler.CacheDir = f.CacheDir
	}
	if f.IsSet("headless") {
		c.Run.Headless = f.Headless
	}
	if f.IsSet("timeout") {
		c.Run.TimeoutSeconds = int(f.Timeout / time.Second)
	}
	if f.IsSet("max-frames") {
		c.Run.MaxFrames = f.MaxFrames
	}
	if f.IsSet("screenshot-dir") {
		c.Screenshot.Dir = f.ScreenshotDir
	}
	if f.IsSet("log-level") {
		c.Log.Level = f.LogLevel
	}
	if f.IsSet("log-format") {
		c.Log.Format = f.LogFormat
	}
}

func isIdentifier(s string) bool {
	if s == "" || s == "fn" {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		if !(b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')) {
			return false
		}
	}
	return true
}
