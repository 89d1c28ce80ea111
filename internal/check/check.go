// Package check provides the --engines report: which engines were located,
// their versions, which one a run would use, and which output formats each
// engine build can actually write.
package check

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/agaudioflow/audioflow/internal/engine"
)

// Logger is the minimal logging interface needed by Report.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

const probeTimeout = 10 * time.Second

// ffmpeg encoders the recipes rely on, keyed by output format.
var ffmpegEncoders = []struct{ format, encoder string }{
	{"mp3", "libmp3lame"},
	{"wav", "pcm_s16le"},
	{"aac", "aac"},
	{"flac", "flac"},
	{"ogg", "libvorbis"},
}

// SoX file formats the recipes rely on.
var soxFormats = []string{"mp3", "wav", "flac", "ogg"}

// Checker runs the capability probes.
type Checker struct {
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New creates a Checker that runs the real engines.
func New() *Checker {
	return &Checker{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, name, args...).CombinedOutput()
	}}
}

// NewForTests creates a Checker backed by run.
func NewForTests(run func(ctx context.Context, name string, args ...string) ([]byte, error)) *Checker {
	return &Checker{run: run}
}

// Report logs the engine table and returns the selection error, if any.
// The error itself is left for the caller to report.
// prefer is the forced engine or "" for automatic selection; ffprobe is the
// located ffprobe path or "".
func (c *Checker) Report(ctx context.Context, engines engine.Engines, prefer engine.Name, ffprobe string, log Logger) error {
	log.Info("=== Audio engines ===")
	for _, d := range engines.All() {
		if !d.Available {
			log.Warn("%s: not installed (install with: %s)", d.Name, engine.InstallHint(d.Name))
			continue
		}
		version := d.Version
		if version == "" {
			version = "version unknown"
		}
		log.Success("%s: %s (%s)", d.Name, d.Path, version)
	}
	if ffprobe != "" {
		log.Success("ffprobe: %s", ffprobe)
	} else {
		log.Warn("ffprobe: not found; info falls back to reading WAV headers")
	}

	selected, err := engine.Select(engines, prefer)
	if err != nil {
		return err
	}
	mode := "automatic"
	if prefer != "" {
		mode = "forced"
	}
	log.Info("Preferred engine: %s (%s)", selected, mode)

	if d := engines.Get(engine.FFmpeg); d.Available {
		c.checkFFmpegEncoders(ctx, d.Path, log)
	}
	if d := engines.Get(engine.Sox); d.Available {
		c.checkSoxFormats(ctx, d.Path, log)
	}
	return nil
}

// checkFFmpegEncoders lists which recipe encoders the ffmpeg build lacks.
func (c *Checker) checkFFmpegEncoders(ctx context.Context, path string, log Logger) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := c.run(ctx, path, "-hide_banner", "-encoders")
	if err != nil {
		log.Warn("Could not list ffmpeg encoders: %v", err)
		return
	}
	have := make(map[string]bool)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.HasPrefix(fields[0], "A") {
			have[fields[1]] = true
		}
	}
	var missing []string
	for _, e := range ffmpegEncoders {
		if !have[e.encoder] {
			missing = append(missing, e.format+" ("+e.encoder+")")
		}
	}
	if len(missing) == 0 {
		log.Success("ffmpeg encoders: all output formats supported")
		return
	}
	log.Warn("ffmpeg encoders missing: %s", strings.Join(missing, ", "))
}

// checkSoxFormats reads the "AUDIO FILE FORMATS:" line of sox -h.
func (c *Checker) checkSoxFormats(ctx context.Context, path string, log Logger) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	// sox -h exits non-zero on some builds; the text is still usable.
	out, _ := c.run(ctx, path, "-h")
	have := make(map[string]bool)
	found := false
	for _, line := range strings.Split(string(out), "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "AUDIO FILE FORMATS:")
		if !ok {
			continue
		}
		found = true
		for _, f := range strings.Fields(rest) {
			have[f] = true
		}
	}
	if !found {
		log.Warn("Could not read sox format list")
		return
	}
	var missing []string
	for _, f := range soxFormats {
		if !have[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		log.Success("sox formats: all output formats supported")
		return
	}
	log.Warn("sox formats missing: %s (those operations fall back to ffmpeg)", strings.Join(missing, ", "))
}
