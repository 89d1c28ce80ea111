package dispatch

import "math"

// Per-step bounds of ffmpeg's atempo filter.
const (
	MinTempoStep = 0.5
	MaxTempoStep = 2.0
)

// TempoSteps splits factor into a chain of tempo steps, each within
// [MinTempoStep, MaxTempoStep], whose product is factor. Boundary steps are
// emitted until the remainder fits, then the remainder is appended, so the
// result always has at least one element. Non-positive or non-finite
// factors yield nil.
func TempoSteps(factor float64) []float64 {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil
	}
	var steps []float64
	for factor > MaxTempoStep {
		steps = append(steps, MaxTempoStep)
		factor /= MaxTempoStep
	}
	for factor < MinTempoStep {
		steps = append(steps, MinTempoStep)
		factor /= MinTempoStep
	}
	return append(steps, factor)
}
