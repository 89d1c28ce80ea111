// Command audioflow is the CLI entrypoint for AudioFlow.
//
// It locates SoX and FFmpeg, then runs the requested operation on one file,
// a list of files (merge) or a glob (batch). SIGINT and SIGTERM cancel the
// running engine process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/agaudioflow/audioflow/internal/cli"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cli.New(version, commit).Run(ctx, os.Args)
}
