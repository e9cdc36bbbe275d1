package cli

import (
	"reflect"
	"testing"
	"time"
)

// clearEnv は環境変数の影響を受けないようにする
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HEADLESS", "TIMEOUT", "LOG_LEVEL", "AUTOSCRIPT_CONFIG"} {
		t.Setenv(key, "")
	}
}

func TestParseArgs_ValidArgs(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name     string
		args     []string
		expected Config
	}{
		{
			name: "デフォルト設定",
			args: []string{},
			expected: Config{
				LogLevel:  "info",
				LogFormat: "text",
			},
		},
		{
			name: "スクリプトパス指定",
			args: []string{"/path/to/game.auto"},
			expected: Config{
				ScriptPath: "/path/to/game.auto",
				LogLevel:   "info",
				LogFormat:  "text",
			},
		},
		{
			name: "タイムアウト指定",
			args: []string{"--timeout", "10"},
			expected: Config{
				Timeout:   10 * time.Second,
				LogLevel:  "info",
				LogFormat: "text",
			},
		},
		{
			name: "タイムアウト指定（短縮形）",
			args: []string{"-t", "5"},
			expected: Config{
				Timeout:   5 * time.Second,
				LogLevel:  "info",
				LogFormat: "text",
			},
		},
		{
			name: "ログレベル指定（短縮形、大文字）",
			args: []string{"-l", "ERROR"},
			expected: Config{
				LogLevel:  "error",
				LogFormat: "text",
			},
		},
		{
			name: "JSONログ",
			args: []string{"--log-format", "json"},
			expected: Config{
				LogLevel:  "info",
				LogFormat: "json",
			},
		},
		{
			name: "ヘッドレスモードと最大フレーム数",
			args: []string{"--headless", "--max-frames", "600"},
			expected: Config{
				MaxFrames: 600,
				LogLevel:  "info",
				LogFormat: "text",
				Headless:  true,
			},
		},
		{
			name: "旧仕様の引数制限",
			args: []string{"--max-args", "1", "game.auto"},
			expected: Config{
				ScriptPath: "game.auto",
				MaxArgs:    1,
				LogLevel:   "info",
				LogFormat:  "text",
			},
		},
		{
			name: "ヘルプ表示（短縮形）",
			args: []string{"-h"},
			expected: Config{
				LogLevel:  "info",
				LogFormat: "text",
				ShowHelp:  true,
			},
		},
		{
			name: "位置引数が最初（順序に関係なく動作）",
			args: []string{"game.auto", "--dump", "-e", "smoke", "-c", "autoscript.toml"},
			expected: Config{
				ScriptPath: "game.auto",
				ConfigPath: "autoscript.toml",
				Entry:      "smoke",
				LogLevel:   "info",
				LogFormat:  "text",
				Dump:       true,
			},
		},
		{
			name: "イコール形式",
			args: []string{"--timeout=3", "game.auto", "--screenshot-dir=shots", "--cache-dir", ".cache"},
			expected: Config{
				ScriptPath:    "game.auto",
				Timeout:       3 * time.Second,
				LogLevel:      "info",
				LogFormat:     "text",
				ScreenshotDir: "shots",
				CacheDir:      ".cache",
			},
		},
		{
			name: "ダブルダッシュ以降は位置引数",
			args: []string{"--headless", "--", "-weird.auto"},
			expected: Config{
				ScriptPath: "-weird.auto",
				LogLevel:   "info",
				LogFormat:  "text",
				Headless:   true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := *config
			got.set = nil
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseArgs(%q) =\n %+v\nwant\n %+v", tt.args, got, tt.expected)
			}
		})
	}
}

func TestParseArgs_InvalidArgs(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"負のタイムアウト", []string{"--timeout", "-10"}},
		{"無効なログレベル", []string{"--log-level", "invalid"}},
		{"無効なログレベル（短縮形）", []string{"-l", "trace"}},
		{"無効なログ形式", []string{"--log-format", "xml"}},
		{"負の最大フレーム数", []string{"--max-frames", "-1"}},
		{"負の引数制限", []string{"--max-args", "-2"}},
		{"未知のフラグ", []string{"--bogus"}},
		{"位置引数が多すぎる", []string{"a.auto", "b.auto"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseArgs_EnvFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("HEADLESS", "true")
	t.Setenv("TIMEOUT", "7")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("AUTOSCRIPT_CONFIG", "/etc/autoscript.toml")

	config, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !config.Headless {
		t.Error("HEADLESS should enable headless mode")
	}
	if config.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want 7s", config.Timeout)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", config.LogLevel)
	}
	if config.ConfigPath != "/etc/autoscript.toml" {
		t.Errorf("ConfigPath = %q", config.ConfigPath)
	}
	for _, name := range []string{"headless", "timeout", "log-level", "config"} {
		if !config.IsSet(name) {
			t.Errorf("IsSet(%q) = false, want true", name)
		}
	}
}

func TestParseArgs_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEOUT", "7")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTOSCRIPT_CONFIG", "env.toml")

	config, err := ParseArgs([]string{"-t", "2", "-l", "warn", "-c", "flag.toml"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Timeout != 2*time.Second || config.LogLevel != "warn" || config.ConfigPath != "flag.toml" {
		t.Errorf("flags should win over env: %+v", config)
	}
}

func TestConfig_IsSet(t *testing.T) {
	clearEnv(t)

	config, err := ParseArgs([]string{"-e", "main", "--max-args", "0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !config.IsSet("entry") {
		t.Error("short alias should mark the long name as set")
	}
	if !config.IsSet("max-args") {
		t.Error("explicit zero should count as set")
	}
	if config.IsSet("log-level") || config.IsSet("headless") {
		t.Error("defaults should not count as set")
	}
}

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"空", nil, nil},
		{"フラグのみ", []string{"-t", "5"}, []string{"-t", "5"}},
		{"位置引数が先", []string{"x.auto", "-t", "5"}, []string{"-t", "5", "x.auto"}},
		{"ブールフラグは値を取らない", []string{"--headless", "x.auto"}, []string{"--headless", "x.auto"}},
		{"イコール形式", []string{"x.auto", "--timeout=5"}, []string{"--timeout=5", "x.auto"}},
		{"負の値", []string{"--timeout", "-1", "x.auto"}, []string{"--timeout", "-1", "x.auto"}},
		{"ダブルダッシュは残す", []string{"--headless", "--", "-weird.auto"}, []string{"--headless", "--", "-weird.auto"}},
		{"ダブルダッシュの前の位置引数", []string{"x.auto", "--", "-t"}, []string{"--", "x.auto", "-t"}},
		{"末尾のダブルダッシュ", []string{"--headless", "--"}, []string{"--headless"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("reorderArgs(%q) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
