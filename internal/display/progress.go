package display

import (
	"fmt"
	"io"
	"math"
)

// Progress renders engine progress. On a terminal it redraws one
// "Progress: NN%" line in place; elsewhere it prints a line every 10%.
type Progress struct {
	w       io.Writer
	tty     bool
	last    int
	printed bool
}

// NewProgress creates a Progress writing to w.
func NewProgress(w io.Writer, tty bool) *Progress {
	return &Progress{w: w, tty: tty, last: -1}
}

// Progress implements invoke.Observer.
func (p *Progress) Progress(percent float64) {
	n := int(math.Floor(math.Max(0, math.Min(100, percent))))
	if p.tty {
		if n == p.last {
			return
		}
		fmt.Fprintf(p.w, "\rProgress: %3d%%", n)
	} else {
		step := n / 10 * 10
		if p.last >= 0 && step <= p.last {
			return
		}
		n = step
		fmt.Fprintf(p.w, "Progress: %d%%\n", n)
	}
	p.last = n
	p.printed = true
}

// Finish ends an in-place progress line.
func (p *Progress) Finish() {
	if p.tty && p.printed {
		fmt.Fprintln(p.w)
	}
	p.last = -1
	p.printed = false
}
