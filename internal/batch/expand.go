package batch

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agaudioflow/audioflow/internal/dispatch"
)

// ErrNoFilesMatched is returned when a batch pattern matches nothing.
var ErrNoFilesMatched = errors.New("no files matched")

// Expand returns the regular files matched by pattern, sorted
// lexicographically for deterministic processing order. Patterns support
// "**" for recursive matches.
func Expand(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, &dispatch.ArgumentError{Param: "pattern", Reason: "empty pattern"}
	}
	files, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, &dispatch.ArgumentError{Param: "pattern", Reason: fmt.Sprintf("%q: %v", pattern, err)}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFilesMatched, pattern)
	}
	sort.Strings(files)
	return files, nil
}
