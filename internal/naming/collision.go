package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// CollisionResolver hands out batch output paths so that no two inputs
// write the same file and no output lands on a file the batch still has to
// read. Taken paths get a "_dupN" suffix before the extension.
type CollisionResolver struct {
	mu    sync.Mutex
	taken map[string]string // absolute path -> input that owns it
	next  map[string]int    // requested path -> next dup number to try
}

// NewCollisionResolver creates an empty resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		taken: make(map[string]string),
		next:  make(map[string]int),
	}
}

// Reserve marks the batch inputs themselves as taken. Each input owns its
// own path, so only other inputs are steered away from it.
func (cr *CollisionResolver) Reserve(inputs ...string) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	for _, in := range inputs {
		cr.taken[pathKey(in)] = in
	}
}

// Resolve returns the output path input should write. Claiming the same
// path twice for the same input returns it unchanged.
func (cr *CollisionResolver) Resolve(input, requested string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.claim(input, requested) {
		return requested
	}
	ext := filepath.Ext(requested)
	stem := strings.TrimSuffix(requested, ext)
	n := cr.next[requested]
	if n == 0 {
		n = 1
	}
	for ; ; n++ {
		candidate := fmt.Sprintf("%s_dup%d%s", stem, n, ext)
		if cr.claim(input, candidate) {
			cr.next[requested] = n + 1
			return candidate
		}
	}
}

func (cr *CollisionResolver) claim(input, path string) bool {
	key := pathKey(path)
	if owner, ok := cr.taken[key]; ok && owner != input {
		return false
	}
	cr.taken[key] = input
	return true
}

// pathKey makes relative glob matches and absolute output paths comparable.
func pathKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
