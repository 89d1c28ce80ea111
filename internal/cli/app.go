// Package cli wires the command tree: global flags, one subcommand per
// dispatch operation, plus info and batch.
//
// Engines are located once per process in the root Before hook. Every
// action reads the shared state from the App, so nothing is global.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/agaudioflow/audioflow/internal/check"
	"github.com/agaudioflow/audioflow/internal/config"
	"github.com/agaudioflow/audioflow/internal/dispatch"
	"github.com/agaudioflow/audioflow/internal/display"
	"github.com/agaudioflow/audioflow/internal/engine"
	"github.com/agaudioflow/audioflow/internal/invoke"
	"github.com/agaudioflow/audioflow/internal/logging"
	"github.com/agaudioflow/audioflow/internal/probe"
	"github.com/agaudioflow/audioflow/internal/term"
)

// App holds the per-process state shared by every command.
type App struct {
	Version string
	Commit  string
	Stdout  io.Writer
	Stderr  io.Writer

	// Replaceable collaborators; nil means the real implementation.
	locate    func(ctx context.Context, soxPath, ffmpegPath string) engine.Engines
	newProber func(ffprobe string) dispatch.Prober
	exec      invoke.ExecFunc
	checker   *check.Checker
	tty       func() bool

	// Populated by before.
	cfg       config.Config
	log       *logging.Logger
	engines   engine.Engines
	prefer    engine.Name
	selected  engine.Name
	selectErr error
	ffprobe   string
	prober    dispatch.Prober
}

// New creates an App writing to the process's stdout and stderr.
func New(version, commit string) *App {
	return &App{Version: version, Commit: commit, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes args (including the program name) and returns the process
// exit code. Errors are reported on stderr exactly once.
func (a *App) Run(ctx context.Context, args []string) int {
	defer func() {
		if a.log != nil {
			a.log.Close()
		}
	}()
	err := a.Command().Run(ctx, args)
	if err == nil {
		return 0
	}
	msg := err.Error()
	if errors.Is(err, dispatch.ErrUnknownOperation) {
		msg += " (see 'audioflow --help')"
	}
	if a.log != nil {
		a.log.Error("%s", msg)
	} else {
		fmt.Fprintf(a.Stderr, "audioflow: %s\n", msg)
	}
	return 1
}

// Command builds the root command.
func (a *App) Command() *cli.Command {
	return &cli.Command{
		Name:      "audioflow",
		Usage:     "audio processing front end for SoX and FFmpeg",
		UsageText: "audioflow [global options] <command> <input> [params...] [output]",
		Version:   fmt.Sprintf("%s (%s)", a.Version, a.Commit),
		Description: "Runs common audio jobs through SoX when it is installed and FFmpeg otherwise.\n" +
			"Operations without a SoX recipe (extract-audio, aac output, crossfades) use FFmpeg.",
		Flags:          config.Flags(),
		Commands:       a.commands(),
		Before:         a.before,
		Action:         a.rootAction,
		Writer:         a.Stdout,
		ErrWriter:      a.Stderr,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

// before turns flags into config, opens the logger and locates engines.
func (a *App) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg := config.FromCommand(cmd)
	if err := cfg.Validate(); err != nil {
		return ctx, err
	}
	a.cfg = cfg

	log, err := logging.NewLogger(&a.cfg)
	if err != nil {
		return ctx, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(a.Stdout, a.Stderr)
	a.log = log

	locate := a.locate
	if locate == nil {
		locate = engine.NewLocator().Discover
	}
	a.engines = locate(ctx, a.cfg.SoxPath, a.cfg.FFmpegPath)
	if a.cfg.Engine != config.EngineAuto {
		a.prefer = engine.Name(a.cfg.Engine)
	}
	a.selected, a.selectErr = engine.Select(a.engines, a.prefer)

	a.ffprobe = probe.FindFFprobe(a.engines.Get(engine.FFmpeg).Path)
	if a.newProber != nil {
		a.prober = a.newProber(a.ffprobe)
	} else {
		a.prober = probe.New(a.ffprobe)
	}

	for _, d := range a.engines.All() {
		a.log.Debug(a.cfg.Verbose, "%s: available=%v path=%q version=%q", d.Name, d.Available, d.Path, d.Version)
	}
	if a.selectErr == nil {
		a.log.Debug(a.cfg.Verbose, "Selected engine: %s", a.selected)
	}
	return ctx, nil
}

func (a *App) rootAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool(config.FlagEngines) {
		return a.reportEngines(ctx)
	}
	if cmd.Args().Present() {
		return fmt.Errorf("%w: %q", dispatch.ErrUnknownOperation, cmd.Args().First())
	}
	display.PrintBanner(a.Stdout)
	return cli.ShowRootCommandHelp(cmd)
}

func (a *App) reportEngines(ctx context.Context) error {
	c := a.checker
	if c == nil {
		c = check.New()
	}
	return c.Report(ctx, a.engines, a.prefer, a.ffprobe, a.log)
}

// dispatcher builds a Dispatcher over the located engines.
func (a *App) dispatcher() *dispatch.Dispatcher {
	return dispatch.New(a.engines, dispatch.Options{
		Engine:  a.selected,
		Forced:  a.prefer != "",
		Prober:  a.prober,
		Verbose: a.cfg.Verbose,
	})
}

// runner builds the invocation runner for this process.
func (a *App) runner() *invoke.Runner {
	var r *invoke.Runner
	if a.exec != nil {
		r = invoke.NewRunnerForTests(a.exec)
		r.DryRun, r.Verbose = a.cfg.DryRun, a.cfg.Verbose
	} else {
		r = invoke.NewRunner(&a.cfg)
	}
	r.Echo = a.Stdout
	r.Stderr = a.Stderr
	return r
}

// progress returns a fresh progress line, or nil when progress is off.
func (a *App) progress() *display.Progress {
	if a.cfg.Quiet || a.cfg.DryRun {
		return nil
	}
	tty := a.tty
	if tty == nil {
		tty = func() bool { return term.IsTerminal(os.Stdout) }
	}
	return display.NewProgress(a.Stdout, tty())
}
