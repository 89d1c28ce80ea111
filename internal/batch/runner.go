package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/agaudioflow/audioflow/internal/dispatch"
	"github.com/agaudioflow/audioflow/internal/display"
	"github.com/agaudioflow/audioflow/internal/invoke"
	"github.com/agaudioflow/audioflow/internal/logging"
	"github.com/agaudioflow/audioflow/internal/naming"
)

// Dispatcher builds invocations. *dispatch.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) (*dispatch.Invocation, error)
}

// Executor runs invocations. *invoke.Runner satisfies it.
type Executor interface {
	Run(ctx context.Context, inv *dispatch.Invocation, obs invoke.Observer) invoke.Result
}

// Runner applies one operation across a file set.
type Runner struct {
	Dispatcher Dispatcher
	Executor   Executor
	Log        *logging.Logger
	Verbose    bool

	// Progress, when set, returns a fresh observer per file. An observer
	// with a Finish method has it called after the file completes.
	Progress func() invoke.Observer
}

// Run expands pattern and applies operation to each match in order. Output
// files go to outputDir (default "."), keeping each input's base name.
//
// Errors returned before any file is processed: an unknown or non-batch
// operation, extra parameters that do not fit, a bad pattern, ErrNoFilesMatched
// (checked before outputDir is created) or a failure to create outputDir.
// Per-file failures are recorded in the Summary and do not stop the run; a
// cancelled ctx stops it and is returned alongside the partial Summary.
func (r *Runner) Run(ctx context.Context, operation, pattern, outputDir string, extra []string) (Summary, error) {
	start := time.Now()
	var sum Summary

	if operation == "batch" {
		return sum, &dispatch.ArgumentError{Param: "operation", Reason: "batch cannot be nested"}
	}
	op, err := dispatch.Lookup(operation)
	if err != nil {
		return sum, err
	}
	sum.Operation = op.Name
	if !op.Batch {
		return sum, &dispatch.ArgumentError{Param: "operation", Reason: op.Name + " cannot run in batch mode"}
	}
	if err := op.CheckBatchParams(extra); err != nil {
		return sum, err
	}

	files, err := Expand(pattern)
	if err != nil {
		return sum, err
	}

	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return sum, fmt.Errorf("create output directory: %w", err)
	}

	sum.RunID = uuid.NewString()
	sum.Total = len(files)
	resolver := naming.NewCollisionResolver()
	resolver.Reserve(files...)

	r.Log.Info("Batch %s: %s on %d file(s) -> %s", sum.RunID[:8], op.Name, sum.Total, outputDir)
	r.Log.Debug(r.Verbose, "Run ID: %s", sum.RunID)

	var runErr error
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			r.Log.Warn("Interrupted after %d of %d files", i, sum.Total)
			runErr = err
			break
		}
		r.Log.Info("[%d/%d] %s", i+1, sum.Total, filepath.Base(path))
		r.processFile(ctx, op, path, outputDir, extra, resolver, &sum)
	}

	sum.Elapsed = time.Since(start)
	r.logSummary(&sum)
	return sum, runErr
}

// processFile handles one file: build request → dispatch → execute.
func (r *Runner) processFile(
	ctx context.Context,
	op *dispatch.Operation,
	path, outputDir string,
	extra []string,
	resolver *naming.CollisionResolver,
	sum *Summary,
) {
	req, err := op.BatchRequest(path, outputDir, extra)
	if err != nil {
		r.Log.Error("  %v", err)
		sum.fail(path, err)
		return
	}
	if req.OutputPath != "" {
		req.OutputPath = resolver.Resolve(path, req.OutputPath)
	}

	inv, err := r.Dispatcher.Dispatch(ctx, req)
	if err != nil {
		r.Log.Error("  %v", err)
		sum.fail(path, err)
		return
	}
	if r.Verbose {
		for _, step := range inv.Steps {
			r.Log.Render("  %s", step.CommandLine())
		}
	}

	var obs invoke.Observer
	if r.Progress != nil {
		obs = r.Progress()
	}
	res := r.Executor.Run(ctx, inv, obs)
	if f, ok := obs.(interface{ Finish() }); ok {
		f.Finish()
	}
	if !res.Succeeded {
		r.Log.Error("  %s", res.ErrorMessage)
		sum.fail(path, res.Err)
		return
	}

	sum.Succeeded++
	var inSize, outSize int64
	if fi, err := os.Stat(path); err == nil {
		inSize = fi.Size()
	}
	for _, out := range res.Outputs {
		if fi, err := os.Stat(out); err == nil {
			outSize += fi.Size()
		}
	}
	sum.InputBytes += inSize
	sum.OutputBytes += outSize
	r.Log.Success("  -> %s (%s, %s)", filepath.Base(res.OutputPath), display.FormatBytes(outSize), display.FormatElapsed(res.Elapsed))
}

func (r *Runner) logSummary(sum *Summary) {
	r.Log.Info("Success: %d/%d", sum.Succeeded, sum.Total)
	if sum.Failed == 0 {
		r.Log.Info("Failed: 0")
	} else {
		r.Log.Warn("Failed: %d", sum.Failed)
		for _, f := range sum.Failures {
			r.Log.Warn("  %s: %v", filepath.Base(f.Input), f.Err)
		}
	}
	if sum.Succeeded > 0 {
		r.Log.Info("Size change: %s in %s", display.FormatBytesWithSign(sum.SizeChange()), display.FormatElapsed(sum.Elapsed))
	}
}
