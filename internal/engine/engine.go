// Package engine locates the external audio engines (SoX and FFmpeg) and
// picks the one a run should use.
//
// Engines are probed once at startup into an immutable [Engines] value that
// is passed explicitly to whatever needs it; nothing here keeps global state.
package engine

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Name identifies an engine.
type Name string

const (
	Sox    Name = "sox"
	FFmpeg Name = "ffmpeg"
)

// priority is the fixed selection order: SoX first, FFmpeg as fallback.
var priority = []Name{Sox, FFmpeg}

// Sentinel errors returned by [Select].
var (
	ErrNoEngineAvailable  = errors.New("no audio engine available")
	ErrEngineNotAvailable = errors.New("engine not available")
)

// Descriptor is the outcome of probing one engine.
type Descriptor struct {
	Name      Name
	Path      string // Resolved executable; empty when not available.
	Available bool
	Version   string // First line of the version banner.
}

// Engines is the immutable set of probed engines.
type Engines struct {
	sox    Descriptor
	ffmpeg Descriptor
}

// NewEngines builds the set from two descriptors. The Name fields are
// forced so callers cannot swap them.
func NewEngines(sox, ffmpeg Descriptor) Engines {
	sox.Name = Sox
	ffmpeg.Name = FFmpeg
	return Engines{sox: sox, ffmpeg: ffmpeg}
}

// Get returns the descriptor for name. Unknown names report unavailable.
func (e Engines) Get(name Name) Descriptor {
	switch name {
	case Sox:
		return e.sox
	case FFmpeg:
		return e.ffmpeg
	}
	return Descriptor{Name: name}
}

// Available reports whether name was located.
func (e Engines) Available(name Name) bool { return e.Get(name).Available }

// All returns the descriptors in priority order.
func (e Engines) All() []Descriptor {
	out := make([]Descriptor, 0, len(priority))
	for _, n := range priority {
		out = append(out, e.Get(n))
	}
	return out
}

// Other returns the engine that is not name.
func Other(name Name) Name {
	if name == Sox {
		return FFmpeg
	}
	return Sox
}

// Select picks the engine for this run. An empty prefer means automatic
// priority; a named engine bypasses priority and must have been located.
func Select(e Engines, prefer Name) (Name, error) {
	if prefer != "" {
		if prefer != Sox && prefer != FFmpeg {
			return "", fmt.Errorf("%w: unknown engine %q", ErrEngineNotAvailable, prefer)
		}
		if !e.Available(prefer) {
			return "", fmt.Errorf("%w: %s was requested but not found (install with: %s)",
				ErrEngineNotAvailable, prefer, InstallHint(prefer))
		}
		return prefer, nil
	}
	for _, n := range priority {
		if e.Available(n) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: neither sox nor ffmpeg was found; install with: %s",
		ErrNoEngineAvailable, InstallHint(priority...))
}

// InstallHint returns the package manager command that installs names on
// the current platform.
func InstallHint(names ...Name) string {
	pkgs := make([]string, 0, len(names))
	for _, n := range names {
		pkgs = append(pkgs, string(n))
	}
	list := strings.Join(pkgs, " ")
	switch runtime.GOOS {
	case "darwin":
		return "brew install " + list
	case "windows":
		return "winget install " + list
	default:
		return "sudo apt-get install " + list
	}
}
