package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/agaudioflow/audioflow/internal/batch"
	"github.com/agaudioflow/audioflow/internal/dispatch"
	"github.com/agaudioflow/audioflow/internal/display"
	"github.com/agaudioflow/audioflow/internal/invoke"
	"github.com/agaudioflow/audioflow/internal/probe"
)

const flagCrossfade = "crossfade"

// commands generates one subcommand per dispatch operation, then info and
// batch.
func (a *App) commands() []*cli.Command {
	var cmds []*cli.Command
	for _, op := range dispatch.Operations() {
		if op.Inspect {
			continue
		}
		c := &cli.Command{
			Name:      op.Name,
			Aliases:   op.Aliases,
			Usage:     op.Usage,
			ArgsUsage: op.ArgsUsage(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return a.runOperation(ctx, cmd, op)
			},
		}
		if op.Multi {
			c.Flags = []cli.Flag{&cli.FloatFlag{
				Name:  flagCrossfade,
				Usage: "overlap consecutive files by `SECONDS`",
			}}
		}
		cmds = append(cmds, c)
	}

	info, _ := dispatch.Lookup("info")
	cmds = append(cmds,
		&cli.Command{
			Name:      info.Name,
			Usage:     info.Usage,
			ArgsUsage: "<input>",
			Action:    a.runInfo,
		},
		&cli.Command{
			Name:      "batch",
			Usage:     "Apply an operation to every file matching a glob",
			ArgsUsage: "<operation> <glob> [output-dir] [params...]",
			Description: "Quote the glob so the shell does not expand it; ** matches across directories.\n" +
				"Outputs keep each input's name inside output-dir (default: current directory).",
			Action: a.runBatch,
		},
	)
	return cmds
}

// runOperation handles a single-file (or merge) operation.
func (a *App) runOperation(ctx context.Context, cmd *cli.Command, op *dispatch.Operation) error {
	args := cmd.Args().Slice()
	var crossfade string
	if op.Multi {
		args, crossfade = extractCrossfade(args)
		if cmd.IsSet(flagCrossfade) {
			crossfade = strconv.FormatFloat(cmd.Float(flagCrossfade), 'f', -1, 64)
		}
	}

	req, err := op.Request(args)
	if err != nil {
		return err
	}
	if crossfade != "" {
		req.Params = []string{crossfade}
	}
	if a.selectErr != nil {
		return a.selectErr
	}

	inv, err := a.dispatcher().Dispatch(ctx, req)
	if err != nil {
		return err
	}
	a.log.Info("%s: %s (%s)", op.Name, describeInputs(req.Inputs), inv.Engine)
	if a.cfg.Verbose {
		for _, s := range inv.Steps {
			a.log.Render("%s", s.CommandLine())
		}
	}

	res := a.execute(ctx, inv)
	if !res.Succeeded {
		return res.Err
	}
	if a.cfg.DryRun {
		return nil
	}
	for _, out := range res.Outputs {
		size := ""
		if fi, err := os.Stat(out); err == nil {
			size = display.FormatBytes(fi.Size())
		}
		a.log.Success("Created %s (%s, %s)", out, size, display.FormatElapsed(res.Elapsed))
	}
	return nil
}

// execute runs inv with a progress line when enabled.
func (a *App) execute(ctx context.Context, inv *dispatch.Invocation) invoke.Result {
	p := a.progress()
	if p == nil {
		return a.runner().Run(ctx, inv, nil)
	}
	res := a.runner().Run(ctx, inv, p)
	p.Finish()
	return res
}

func (a *App) runInfo(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 1 {
		return &dispatch.ArgumentError{Param: "input", Reason: "info takes exactly one input file"}
	}
	path := args[0]
	st, err := os.Stat(path)
	if err != nil {
		return &dispatch.ArgumentError{Param: "input", Reason: fmt.Sprintf("%s: file not found", path)}
	}

	info, err := a.prober.Probe(ctx, path)
	if err != nil {
		return fmt.Errorf("describe %s: %w", path, err)
	}
	if info.Path == "" {
		info.Path = path
	}
	if info.Size == 0 {
		info.Size = st.Size()
	}

	tags, err := probe.ReadTags(path)
	if err != nil {
		a.log.Debug(a.cfg.Verbose, "Tags unreadable: %v", err)
	}
	display.PrintInfo(a.Stdout, info, tags)
	return nil
}

func (a *App) runBatch(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return &dispatch.ArgumentError{Param: "arguments", Reason: "usage: batch <operation> <glob> [output-dir] [params...]"}
	}
	if a.selectErr != nil {
		return a.selectErr
	}
	operation, pattern := args[0], args[1]
	outputDir := ""
	var extra []string
	if len(args) > 2 {
		outputDir = args[2]
		extra = args[3:]
	}

	r := &batch.Runner{
		Dispatcher: a.dispatcher(),
		Executor:   a.runner(),
		Log:        a.log,
		Verbose:    a.cfg.Verbose,
	}
	if !a.cfg.Quiet && !a.cfg.DryRun {
		r.Progress = func() invoke.Observer { return a.progress() }
	}

	sum, err := r.Run(ctx, operation, pattern, outputDir, extra)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", sum.Failed, sum.Total)
	}
	return nil
}

// extractCrossfade removes "--crossfade=S" tokens left among positionals.
func extractCrossfade(args []string) ([]string, string) {
	var rest []string
	value := ""
	for _, arg := range args {
		if v, ok := strings.CutPrefix(arg, "--"+flagCrossfade+"="); ok {
			value = v
			continue
		}
		rest = append(rest, arg)
	}
	return rest, value
}

func describeInputs(inputs []string) string {
	if len(inputs) == 1 {
		return filepath.Base(inputs[0])
	}
	return fmt.Sprintf("%d files", len(inputs))
}
