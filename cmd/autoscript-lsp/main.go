package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/zurustar/autoscript/pkg/automation"
	"github.com/zurustar/autoscript/pkg/compiler"
	"github.com/zurustar/autoscript/pkg/lsp"
)

func main() {
	fs := flag.NewFlagSet("autoscript-lsp", flag.ExitOnError)
	verbose := fs.Int("v", 0, "ログの詳細度（0-2）")
	logFile := fs.String("log", "", "ログの出力先ファイル（省略時は標準エラー出力）")
	maxArgs := fs.Int("max-args", 0, "1呼び出しあたりの最大引数数（0で無制限）")
	fs.Parse(os.Args[1:])

	// 標準出力はLSPの通信路なのでログは別に出す
	var path *string
	if *logFile != "" {
		path = logFile
	}
	commonlog.Configure(*verbose, path)

	var opts []compiler.Option
	if *maxArgs > 0 {
		opts = append(opts, compiler.WithMaxArgs(*maxArgs))
	}

	server := lsp.New(automation.Names(), opts...)
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
