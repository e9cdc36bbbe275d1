package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zurustar/autoscript/pkg/cli"
)

func TestParse_Defaults(t *testing.T) {
	c, err := Parse(nil, "empty.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	if *c != *want {
		t.Errorf("Parse(empty) = %+v, want %+v", c, want)
	}
	if c.VM.Entry != "run" || c.VM.MaxStackDepth != 1000 {
		t.Errorf("vm defaults = %+v", c.VM)
	}
}

func TestParse_FullFile(t *testing.T) {
	data := `
[vm]
entry = "smoke"
max_stack_depth = 64

[compiler]
max_call_args = 1
cache_dir = ".cache"

[run]
headless = true
timeout_seconds = 30
max_frames = 600

[window]
width = 800
height = 600
title = "demo"
tps = 30
show_debug = true

[screenshot]
dir = "out"
format = "BMP"

[log]
level = "Debug"
format = "json"
`
	c, err := Parse([]byte(data), "full.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Config{
		VM:         VMConfig{Entry: "smoke", MaxStackDepth: 64},
		Compiler:   CompilerConfig{MaxCallArgs: 1, CacheDir: ".cache"},
		Run:        RunConfig{Headless: true, TimeoutSeconds: 30, MaxFrames: 600},
		Window:     WindowConfig{Width: 800, Height: 600, Title: "demo", TPS: 30, ShowDebug: true},
		Screenshot: ScreenshotConfig{Dir: "out", Format: "bmp"},
		Log:        LogConfig{Level: "debug", Format: "json"},
	}
	if *c != want {
		t.Errorf("Parse =\n %+v\nwant\n %+v", *c, want)
	}
	if c.Run.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v", c.Run.Timeout())
	}
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	c, err := Parse([]byte("[window]\ntitle = \"x\"\n"), "partial.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Window.Title != "x" || c.Window.Width != 640 || c.Window.TPS != 60 {
		t.Errorf("window = %+v", c.Window)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		contains string
	}{
		{"構文エラー", "[vm\n", "parse error"},
		{"未知のキー", "[vm]\nentri = \"run\"\n", "vm.entri"},
		{"未知のセクション", "[audio]\nvolume = 3\n", "audio"},
		{"型の不一致", "[window]\nwidth = \"wide\"\n", "parse error"},
		{"数字を含むエントリー名", "[vm]\nentry = \"run2\"\n", "vm.entry"},
		{"キーワードのエントリー名", "[vm]\nentry = \"fn\"\n", "vm.entry"},
		{"スタック深さゼロ", "[vm]\nmax_stack_depth = 0\n", "max_stack_depth"},
		{"負の引数制限", "[compiler]\nmax_call_args = -1\n", "max_call_args"},
		{"負のタイムアウト", "[run]\ntimeout_seconds = -1\n", "timeout_seconds"},
		{"ウィンドウサイズ", "[window]\nwidth = 0\n", "window size"},
		{"TPS", "[window]\ntps = 0\n", "tps"},
		{"画像形式", "[screenshot]\nformat = \"gif\"\n", "screenshot.format"},
		{"ログレベル", "[log]\nlevel = \"trace\"\n", "invalid log level"},
		{"ログ形式", "[log]\nformat = \"xml\"\n", "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "bad.toml")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not contain %q", err, tt.contains)
			}
			if !strings.Contains(err.Error(), "bad.toml") {
				t.Errorf("error %q does not name the file", err)
			}
		})
	}
}

func TestLoadAndFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, []byte("[vm]\nentry = \"main\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if c.VM.Entry != "main" || c.Path != path {
		t.Errorf("FindAndLoad = entry %q path %q", c.VM.Entry, c.Path)
	}

	if _, err := Load(filepath.Join(root, "missing.toml")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestApplyFlags(t *testing.T) {
	for _, key := range []string{"HEADLESS", "TIMEOUT", "LOG_LEVEL", "AUTOSCRIPT_CONFIG"} {
		t.Setenv(key, "")
	}

	c, err := Parse([]byte("[log]\nlevel = \"debug\"\n[run]\nmax_frames = 10\n[compiler]\nmax_call_args = 1\n"), "f.toml")
	if err != nil {
		t.Fatal(err)
	}
	flags, err := cli.ParseArgs([]string{"--headless", "-t", "4", "--max-args", "0", "-e", "smoke"})
	if err != nil {
		t.Fatal(err)
	}
	c.ApplyFlags(flags)

	if c.Log.Level != "debug" {
		t.Errorf("unset flag default must not override file: level = %q", c.Log.Level)
	}
	if c.Run.MaxFrames != 10 {
		t.Errorf("MaxFrames = %d, want 10", c.Run.MaxFrames)
	}
	if !c.Run.Headless || c.Run.TimeoutSeconds != 4 || c.VM.Entry != "smoke" {
		t.Errorf("flags not applied: %+v", c)
	}
	if c.Compiler.MaxCallArgs != 0 {
		t.Errorf("explicit --max-args 0 should override file, got %d", c.Compiler.MaxCallArgs)
	}
}
