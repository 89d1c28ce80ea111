package engine

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// probeTimeout bounds a single version check. Engine runs themselves have
// no timeout.
const probeTimeout = 10 * time.Second

// searchDirs are checked before falling back to a bare PATH lookup.
var searchDirs = []string{"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin"}

// versionArgs is the cheap invocation that proves an executable works.
var versionArgs = map[Name][]string{
	Sox:    {"--version"},
	FFmpeg: {"-version"},
}

// Locator probes candidate executables with a version check.
type Locator struct {
	run  func(ctx context.Context, name string, args ...string) ([]byte, error)
	stat func(name string) (os.FileInfo, error)
}

// NewLocator returns a Locator that spawns real processes.
func NewLocator() *Locator {
	return &Locator{run: runVersion, stat: os.Stat}
}

// NewLocatorForTests returns a Locator with injected process execution.
// Absolute candidates are treated as present; run decides success.
func NewLocatorForTests(run func(ctx context.Context, name string, args ...string) ([]byte, error)) *Locator {
	return &Locator{
		run:  run,
		stat: func(string) (os.FileInfo, error) { return nil, nil },
	}
}

// DefaultCandidates lists where name is usually installed, ending with the
// bare name so PATH is consulted last.
func DefaultCandidates(name Name) []string {
	out := make([]string, 0, len(searchDirs)+1)
	for _, dir := range searchDirs {
		out = append(out, filepath.Join(dir, string(name)))
	}
	return append(out, string(name))
}

// Locate tries each candidate in order and returns the first whose version
// check exits zero. Absence is reported as Available=false, never an error.
func (l *Locator) Locate(ctx context.Context, name Name, candidates []string) Descriptor {
	d := Descriptor{Name: name}
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if filepath.IsAbs(c) {
			if _, err := l.stat(c); err != nil {
				continue
			}
		}
		out, err := l.run(ctx, c, versionArgs[name]...)
		if err != nil {
			continue
		}
		d.Path = c
		d.Available = true
		d.Version = firstLine(string(out))
		return d
	}
	return d
}

// Discover probes both engines. Non-empty override paths are tried before
// the default candidates.
func (l *Locator) Discover(ctx context.Context, soxPath, ffmpegPath string) Engines {
	sox := l.Locate(ctx, Sox, append([]string{soxPath}, DefaultCandidates(Sox)...))
	ff := l.Locate(ctx, FFmpeg, append([]string{ffmpegPath}, DefaultCandidates(FFmpeg)...))
	return NewEngines(sox, ff)
}

func runVersion(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
