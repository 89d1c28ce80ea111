package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/agaudioflow/audioflow/internal/engine"
	"github.com/agaudioflow/audioflow/internal/naming"
	"github.com/agaudioflow/audioflow/internal/probe"
)

// Prober describes an input file. *probe.Prober satisfies it.
type Prober interface {
	Probe(ctx context.Context, path string) (*probe.Info, error)
}

// Options configures a Dispatcher.
type Options struct {
	Engine  engine.Name // Engine selected for the run.
	Forced  bool        // Engine came from an explicit override; no fallback.
	Prober  Prober      // Optional; nil skips probing.
	Verbose bool        // Keep the engine's own warnings.
}

// Dispatcher turns requests into engine invocations. It performs no I/O
// beyond stat and probe calls on the inputs.
type Dispatcher struct {
	engines engine.Engines
	opts    Options
}

// New creates a Dispatcher over the probed engines.
func New(engines engine.Engines, opts Options) *Dispatcher {
	return &Dispatcher{engines: engines, opts: opts}
}

// Engine returns the engine selected for the run.
func (d *Dispatcher) Engine() engine.Name { return d.opts.Engine }

// Dispatch validates req and builds its invocation. Validation failures
// wrap ErrInvalidArgument and happen before any probe; unknown keywords
// wrap ErrUnknownOperation; a forced engine that cannot run the operation
// yields engine.ErrEngineNotAvailable.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Invocation, error) {
	op, err := Lookup(req.Operation)
	if err != nil {
		return nil, err
	}
	if op.Inspect {
		return nil, argErr("operation", "%s does not run an engine", op.Name)
	}

	v, err := d.validate(op, req)
	if err != nil {
		return nil, err
	}

	name, err := d.engineFor(op, v)
	if err != nil {
		return nil, err
	}

	if err := d.inspect(ctx, op, v, name); err != nil {
		return nil, err
	}

	build := op.ffmpeg
	if name == engine.Sox {
		build = op.sox
	}
	steps := build(v)
	program := d.engines.Get(name).Path
	if program == "" {
		program = string(name)
	}
	length := outputLength(op, v)
	for i := range steps {
		steps[i].Program = program
		steps[i].Args = append(d.globals(name), steps[i].Args...)
		steps[i].Duration = length
	}
	return &Invocation{Operation: op.Name, Engine: name, Steps: steps}, nil
}

// validate checks arity, parameter values, output path and input existence.
func (d *Dispatcher) validate(op *Operation, req Request) (*values, error) {
	if op.Multi {
		if len(req.Inputs) < 2 {
			return nil, argErr("inputs", "%s needs at least 2 input files, got %d", op.Name, len(req.Inputs))
		}
		if req.OutputPath == "" {
			return nil, argErr("output", "%s needs an output file after the inputs", op.Name)
		}
	} else if len(req.Inputs) != 1 || req.Inputs[0] == "" {
		return nil, argErr("input", "%s takes exactly one input file", op.Name)
	}
	if len(req.Params) > len(op.Params) {
		return nil, argErr("arguments", "too many arguments (usage: %s %s)", op.Name, op.ArgsUsage())
	}
	if req.OutputPath != "" && !op.Output && !op.Multi {
		return nil, argErr("output", "%s does not take an output file", op.Name)
	}

	v := &values{inputs: req.Inputs}
	if op.parse != nil {
		if err := op.parse(v, req.Params); err != nil {
			return nil, err
		}
	}

	if op.Output || op.Multi {
		v.output = req.OutputPath
		if v.output == "" {
			ext := ""
			if op.ext != nil {
				ext = op.ext(v)
			}
			v.output = naming.Derive(v.input(), op.suffix(v), ext)
		}
		for _, in := range v.inputs {
			if samePath(in, v.output) {
				return nil, argErr("output", "%s would overwrite the input", v.output)
			}
		}
	}

	for _, in := range v.inputs {
		st, err := os.Stat(in)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return nil, argErr("input", "%s: file not found", in)
		case err != nil:
			return nil, argErr("input", "%s: %v", in, err)
		case st.IsDir():
			return nil, argErr("input", "%s is a directory", in)
		}
	}
	return v, nil
}

// engineFor returns the run's engine when it can handle the operation,
// otherwise the other engine unless the choice was forced.
func (d *Dispatcher) engineFor(op *Operation, v *values) (engine.Name, error) {
	sel := d.opts.Engine
	if op.supports(v, sel) && d.engines.Available(sel) {
		return sel, nil
	}
	alt := engine.Other(sel)
	if !d.opts.Forced && op.supports(v, alt) && d.engines.Available(alt) {
		return alt, nil
	}
	need := alt
	if op.supports(v, sel) {
		need = sel
	}
	if d.opts.Forced {
		return "", fmt.Errorf("%w: %s cannot run with --engine %s; %s is required (install with: %s)",
			engine.ErrEngineNotAvailable, op.Name, sel, need, engine.InstallHint(need))
	}
	return "", fmt.Errorf("%w: %s requires %s (install with: %s)",
		engine.ErrEngineNotAvailable, op.Name, need, engine.InstallHint(need))
}

// inspect probes the inputs when a prober is configured. Probe failures are
// ignored; only facts the recipe depends on turn into errors.
func (d *Dispatcher) inspect(ctx context.Context, op *Operation, v *values, name engine.Name) error {
	if d.opts.Prober != nil {
		var total float64
		known := true
		for i, in := range v.inputs {
			info, err := d.opts.Prober.Probe(ctx, in)
			if err != nil || info == nil {
				known = false
				continue
			}
			if info.Duration <= 0 {
				known = false
			}
			total += info.Duration
			if i == 0 {
				v.sampleRate = info.SampleRate()
				if op.stereo {
					if ch := info.Channels(); ch != 0 && ch != 2 {
						return argErr("input", "%s has %d channel(s); a stereo file is required", in, ch)
					}
				}
			}
		}
		if known {
			v.duration = total
		}
	}

	if op.Name == "fade" && name == engine.FFmpeg && v.fadeOut > 0 && v.duration <= 0 {
		return argErr("out", "fade-out needs the input duration, which could not be determined")
	}
	return nil
}

// globals returns the engine options every step starts with.
func (d *Dispatcher) globals(name engine.Name) []string {
	if name == engine.Sox {
		if d.opts.Verbose {
			return []string{"-S"}
		}
		return []string{"-S", "-V1"}
	}
	return []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error", "-progress", "pipe:1", "-nostats"}
}

// outputLength estimates the produced audio length for progress reporting.
func outputLength(op *Operation, v *values) float64 {
	d := v.duration
	if d <= 0 {
		return 0
	}
	switch op.Name {
	case "speed":
		if v.factor > 0 {
			d /= v.factor
		}
	case "merge":
		d = math.Max(0, d-v.crossfade*float64(len(v.inputs)-1))
	}
	return d
}
