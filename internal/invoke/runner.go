package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/agaudioflow/audioflow/internal/config"
	"github.com/agaudioflow/audioflow/internal/dispatch"
	"github.com/agaudioflow/audioflow/internal/engine"
)

// Result is the outcome of running one invocation.
type Result struct {
	Operation    string
	Engine       engine.Name
	OutputPath   string   // First output; split-stereo has two.
	Outputs      []string // Every output, in step order.
	Succeeded    bool
	ErrorMessage string
	Err          error
	Elapsed      time.Duration
}

// ExecFunc starts program and waits for it. A non-nil error for a process
// that ran should be an *exec.ExitError.
type ExecFunc func(ctx context.Context, program string, args []string, stdout, stderr io.Writer) error

// Runner executes invocations one step at a time.
type Runner struct {
	DryRun  bool
	Verbose bool
	Echo    io.Writer // Dry-run command lines. Defaults to os.Stdout.
	Stderr  io.Writer // Engine diagnostics in verbose mode. Defaults to os.Stderr.

	exec ExecFunc
}

// NewRunner creates a Runner that starts real processes.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{DryRun: cfg.DryRun, Verbose: cfg.Verbose, exec: execCommand}
}

// NewRunnerForTests creates a Runner backed by fn instead of os/exec.
func NewRunnerForTests(fn ExecFunc) *Runner {
	return &Runner{exec: fn}
}

// Run executes every step of inv in order and reports the outcome. A step
// succeeds when the engine exits with status zero and its output file
// exists; the first failing step ends the run.
func (r *Runner) Run(ctx context.Context, inv *dispatch.Invocation, obs Observer) Result {
	start := time.Now()
	res := Result{Operation: inv.Operation, Engine: inv.Engine, Outputs: inv.Outputs()}
	if len(res.Outputs) > 0 {
		res.OutputPath = res.Outputs[0]
	}
	fail := func(err error) Result {
		res.Err = err
		res.ErrorMessage = err.Error()
		res.Elapsed = time.Since(start)
		return res
	}

	t := &tracker{obs: obs, steps: len(inv.Steps)}
	for i, step := range inv.Steps {
		t.index = i
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("interrupted: %w", err))
		}
		if r.DryRun {
			fmt.Fprintln(r.echo(), step.CommandLine())
			continue
		}
		if dir := filepath.Dir(step.Output); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fail(fmt.Errorf("create output directory: %w", err))
			}
		}
		if err := r.runStep(ctx, inv.Engine, step, t); err != nil {
			return fail(err)
		}
		if _, err := os.Stat(step.Output); err != nil {
			return fail(fmt.Errorf("%w: %s exited successfully but did not create %s",
				ErrSubprocessFailure, filepath.Base(step.Program), step.Output))
		}
	}

	if !r.DryRun {
		t.index = len(inv.Steps) - 1
		t.update(1)
	}
	res.Succeeded = true
	res.Elapsed = time.Since(start)
	return res
}

func (r *Runner) runStep(ctx context.Context, name engine.Name, step dispatch.Step, t *tracker) error {
	var diag bytes.Buffer
	var tee io.Writer
	if r.Verbose {
		tee = r.stderr()
	}

	var stdout, stderr io.Writer
	var status *soxStatus
	if name == engine.Sox {
		status = newSoxStatus(t, &diag, tee)
		stdout, stderr = io.Discard, status
	} else {
		stdout = newFFmpegProgress(t, step.Duration)
		stderr = &diag
		if tee != nil {
			stderr = io.MultiWriter(&diag, tee)
		}
	}

	err := r.exec(ctx, step.Program, step.Args, stdout, stderr)
	if status != nil {
		status.Flush()
	}
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("interrupted: %w", ctxErr)
	}

	program := filepath.Base(step.Program)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &SubprocessError{
			Program:  program,
			ExitCode: exitErr.ExitCode(),
			Stderr:   diag.String(),
			Hint:     Classify(diag.String()),
		}
	}
	hint := err.Error()
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		hint = "executable not found"
	}
	return &SubprocessError{Program: program, ExitCode: -1, Stderr: diag.String(), Hint: hint}
}

func (r *Runner) echo() io.Writer {
	if r.Echo != nil {
		return r.Echo
	}
	return os.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

func execCommand(ctx context.Context, program string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}
