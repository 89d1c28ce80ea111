package invoke

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrSubprocessFailure matches every *SubprocessError.
var ErrSubprocessFailure = errors.New("engine failed")

// SubprocessError describes a non-zero engine exit.
type SubprocessError struct {
	Program  string
	ExitCode int    // -1 when the process never started or was killed.
	Stderr   string // Diagnostic text with progress lines removed.
	Hint     string // Classified cause, when recognised.
}

func (e *SubprocessError) Error() string {
	var b strings.Builder
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, "%s exited with status %d", e.Program, e.ExitCode)
	} else {
		fmt.Fprintf(&b, "%s did not run to completion", e.Program)
	}
	if e.Hint != "" {
		b.WriteString(": " + e.Hint)
	}
	if last := lastLine(e.Stderr); last != "" {
		b.WriteString(" (" + last + ")")
	}
	return b.String()
}

func (e *SubprocessError) Unwrap() error { return ErrSubprocessFailure }

// Pre-compiled patterns for classifying engine stderr. Checked in order;
// the first match supplies the hint.
var hints = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`(?i)No such file or directory|can't open input file`), "input file could not be opened"},
	{regexp.MustCompile(`(?i)Permission denied`), "permission denied"},
	{regexp.MustCompile(`(?i)Unknown encoder|Encoder not found|no handler for file extension|Unable to find a suitable output format|not supported`), "output format or encoder is not supported by this engine build"},
	{regexp.MustCompile(`(?i)Invalid data found|no handler for detected file type|can't open input|FAIL formats`), "input is not a readable audio file"},
	{regexp.MustCompile(`(?i)does not contain any stream|matches no streams|Output file #0 does not contain|no audio`), "input has no audio stream"},
	{regexp.MustCompile(`(?i)No space left on device`), "disk full"},
}

// Classify returns a short explanation for a failed engine's stderr, or "".
func Classify(stderr string) string {
	for _, h := range hints {
		if h.re.MatchString(stderr) {
			return h.hint
		}
	}
	return ""
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
