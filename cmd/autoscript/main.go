package main

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/zurustar/autoscript/pkg/app"
)

//go:embed scripts
var embeddedScripts embed.FS

func scripts() fs.FS {
	sub, err := fs.Sub(embeddedScripts, "scripts")
	if err != nil {
		panic(err)
	}
	return sub
}

func main() {
	application := app.New(scripts())
	if err := application.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
