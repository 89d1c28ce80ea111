package dispatch

import (
	"strings"

	"github.com/agaudioflow/audioflow/internal/engine"
)

// Request is one operation applied to one input (or, for merge, several).
// It is built from argv or by the batch runner and discarded after
// dispatch.
type Request struct {
	Operation  string
	Inputs     []string
	OutputPath string   // Empty means derive from the input name.
	Params     []string // Raw positional parameters in declaration order.
}

// Input returns the first input path, or "".
func (r Request) Input() string {
	if len(r.Inputs) == 0 {
		return ""
	}
	return r.Inputs[0]
}

// Step is a single engine process.
type Step struct {
	Program  string
	Args     []string
	Output   string  // File the step must produce.
	Duration float64 // Expected input length in seconds; 0 when unknown.
}

// CommandLine renders the step for display, quoting arguments that contain
// shell-special characters.
func (s Step) CommandLine() string {
	parts := make([]string, 0, len(s.Args)+1)
	parts = append(parts, quote(s.Program))
	for _, a := range s.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

// Invocation is the resolved, engine-specific plan for a Request.
type Invocation struct {
	Operation string
	Engine    engine.Name
	Steps     []Step
}

// Outputs lists every file the invocation produces, in step order.
func (inv *Invocation) Outputs() []string {
	out := make([]string, 0, len(inv.Steps))
	for _, s := range inv.Steps {
		out = append(out, s.Output)
	}
	return out
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`|&;<>()[]*?!{}#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
