package batch

import "time"

// Failure records one file that did not produce output.
type Failure struct {
	Input string
	Err   error
}

// Summary tracks aggregate counters across a batch run.
type Summary struct {
	RunID       string
	Operation   string
	Total       int
	Succeeded   int
	Failed      int
	FirstError  error
	Failures    []Failure
	InputBytes  int64
	OutputBytes int64
	Elapsed     time.Duration
}

func (s *Summary) fail(input string, err error) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{Input: input, Err: err})
	if s.FirstError == nil {
		s.FirstError = err
	}
}

// SizeChange returns the byte difference between outputs and inputs of the
// successful files. Negative means the outputs are smaller.
func (s *Summary) SizeChange() int64 {
	return s.OutputBytes - s.InputBytes
}
