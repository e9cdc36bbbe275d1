package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ScriptPath    string        // スクリプトファイル（.auto）のパス（空なら組み込みスモークスクリプト）
	ConfigPath    string        // 設定ファイル（TOML）のパス
	Entry         string        // エントリー関数名
	Timeout       time.Duration // タイムアウト時間（0は無制限）
	MaxFrames     int           // 最大フレーム数（0は無制限）
	MaxArgs       int           // 1呼び出しあたりの最大引数数（0は無制限）
	LogLevel      string        // ログレベル（debug, info, warn, error）
	LogFormat     string        // ログ形式（text, json）
	ScreenshotDir string        // スクリーンショット出力先
	CacheDir      string        // コンパイル済みイメージのキャッシュ先
	Headless      bool          // ヘッドレスモード
	Dump          bool          // 逆アセンブルを表示して終了
	ShowHelp      bool          // ヘルプ表示フラグ

	set map[string]bool
}

// IsSet はフラグまたは環境変数で明示的に指定されたかを返す（長い名前で指定）
func (c *Config) IsSet(name string) bool {
	return c.set[name]
}

// 短縮形から長い名前への対応
var aliases = map[string]string{
	"t": "timeout",
	"l": "log-level",
	"c": "config",
	"e": "entry",
	"h": "help",
}

// 値を取らないフラグ
var boolFlags = map[string]bool{
	"headless": true,
	"dump":     true,
	"help":     true,
	"h":        true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("autoscript", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{set: make(map[string]bool)}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.StringVar(&config.LogFormat, "log-format", "text", "ログ形式（text, json）")
	fs.StringVar(&config.ConfigPath, "config", "", "設定ファイルのパス")
	fs.StringVar(&config.ConfigPath, "c", "", "設定ファイルのパス（短縮形）")
	fs.StringVar(&config.Entry, "entry", "", "エントリー関数名")
	fs.StringVar(&config.Entry, "e", "", "エントリー関数名（短縮形）")
	fs.IntVar(&config.MaxFrames, "max-frames", 0, "最大フレーム数")
	fs.IntVar(&config.MaxArgs, "max-args", 0, "1呼び出しあたりの最大引数数")
	fs.StringVar(&config.ScreenshotDir, "screenshot-dir", "", "スクリーンショット出力先")
	fs.StringVar(&config.CacheDir, "cache-dir", "", "コンパイルキャッシュのディレクトリ")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.BoolVar(&config.Dump, "dump", false, "逆アセンブルを表示して終了")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := aliases[name]; ok {
			name = long
		}
		config.set[name] = true
	})

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.set["headless"] {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
			config.set["headless"] = true
		}
	}

	// 環境変数からタイムアウトを取得（コマンドラインフラグが優先）
	if !config.set["timeout"] {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
				config.set["timeout"] = true
			}
		}
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if !config.set["log-level"] {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = logLevelEnv
			config.set["log-level"] = true
		}
	}

	// 環境変数から設定ファイルのパスを取得
	if !config.set["config"] {
		if configEnv := os.Getenv("AUTOSCRIPT_CONFIG"); configEnv != "" {
			config.ConfigPath = configEnv
			config.set["config"] = true
		}
	}

	config.LogLevel = strings.ToLower(config.LogLevel)
	config.LogFormat = strings.ToLower(config.LogFormat)

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if config.MaxFrames < 0 {
		return nil, fmt.Errorf("max-frames must be non-negative, got %d", config.MaxFrames)
	}
	if config.MaxArgs < 0 {
		return nil, fmt.Errorf("max-args must be non-negative, got %d", config.MaxArgs)
	}

	// ログレベルの検証
	if err := ValidateLogLevel(config.LogLevel); err != nil {
		return nil, err
	}
	if err := ValidateLogFormat(config.LogFormat); err != nil {
		return nil, err
	}

	// 位置引数（スクリプトのパス）
	switch fs.NArg() {
	case 0:
	case 1:
		config.ScriptPath = fs.Arg(0)
	default:
		return nil, fmt.Errorf("too many arguments: %s", strings.Join(fs.Args(), " "))
	}

	return config, nil
}

// ValidateLogLevel ログレベル文字列を検証する
func ValidateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
}

// ValidateLogFormat ログ形式文字列を検証する
func ValidateLogFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	}
	return fmt.Errorf("invalid log format: %s (must be text or json)", format)
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string
	separated := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--" 以降はすべて位置引数
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			separated = true
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// -t=5 のような形式は値を含む
			name := strings.TrimLeft(arg, "-")
			if strings.Contains(name, "=") || boolFlags[name] {
				continue
			}

			// -t 5 のような場合は次の引数も値として追加
			if i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	// "-" で始まる位置引数をフラグと誤認させないため区切りを残す
	if separated && len(positional) > 0 {
		flags = append(flags, "--")
	}
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprint(os.Stdout, `autoscript - tick-driven automation script runner

Usage:
  autoscript [options] [script.auto]

Arguments:
  script.auto   実行するスクリプトのパス（省略可）
                省略した場合、組み込みのスモークテストスクリプトを実行

Options:
  -c, --config <path>         設定ファイル（TOML）のパス
  -e, --entry <name>          エントリー関数名（デフォルト: run）
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  --max-frames <n>            指定フレーム数後にプログラムを終了（デフォルト: 無制限）
  --max-args <n>              1呼び出しあたりの最大引数数（1で旧仕様、0で無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --log-format <format>       ログ形式: text, json（デフォルト: text）
  --screenshot-dir <dir>      スクリーンショットの出力先
  --cache-dir <dir>           コンパイル済みスクリプトのキャッシュ先
  --headless                  ヘッドレスモード（GUIなし）
  --dump                      コンパイル結果を逆アセンブルして表示し終了
  -h, --help                  このヘルプを表示

Environment Variables:
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル
  AUTOSCRIPT_CONFIG=<path>    設定ファイルのパス

Examples:
  autoscript scripts/smoke.auto               スクリプトを実行
  autoscript --headless --max-frames 600      組み込みスクリプトをヘッドレスで実行
  autoscript --dump scripts/smoke.auto        バイトコードを表示
  autoscript -c autoscript.toml game.auto     設定ファイルを指定
  HEADLESS=1 autoscript game.auto             環境変数でヘッドレスモード
`)
}
