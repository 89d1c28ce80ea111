package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agaudioflow/audioflow/internal/check"
	"github.com/agaudioflow/audioflow/internal/dispatch"
	"github.com/agaudioflow/audioflow/internal/engine"
	"github.com/agaudioflow/audioflow/internal/probe"
)

// --- Harness ---

type staticProber struct{ info *probe.Info }

func (p staticProber) Probe(_ context.Context, path string) (*probe.Info, error) {
	if p.info == nil {
		return nil, probe.ErrNoProber
	}
	info := *p.info
	info.Path = path
	return &info, nil
}

type harness struct {
	t      *testing.T
	app    *App
	dir    string
	out    bytes.Buffer
	errOut bytes.Buffer
	execs  int
	fail   string // Inputs whose name contains this fail.
}

func located(name engine.Name) engine.Descriptor {
	return engine.Descriptor{Path: "/usr/bin/" + string(name), Available: true, Version: string(name) + " 1.0"}
}

func bothEngines() engine.Engines {
	return engine.NewEngines(located(engine.Sox), located(engine.FFmpeg))
}

func newHarness(t *testing.T, engines engine.Engines) *harness {
	t.Helper()
	t.Setenv("AUDIOFLOW_ENGINE", "auto")
	t.Setenv("AUDIOFLOW_NO_COLOR", "true")
	h := &harness{t: t, dir: t.TempDir()}
	h.app = New("1.2.3", "abc123")
	h.app.Stdout = &h.out
	h.app.Stderr = &h.errOut
	h.app.locate = func(context.Context, string, string) engine.Engines { return engines }
	h.app.newProber = func(string) dispatch.Prober {
		return staticProber{info: &probe.Info{
			Format:   "wav",
			Duration: 12,
			Audio:    &probe.AudioStream{Codec: "pcm_s16le", Channels: 2, SampleRate: 44100, BitDepth: 16},
			Source:   probe.SourceWAV,
		}}
	}
	h.app.tty = func() bool { return false }
	h.app.checker = check.NewForTests(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("not available in tests")
	})
	// The fake engine creates every path argument under the temp dir that
	// does not exist yet; those are the step outputs.
	h.app.exec = func(_ context.Context, _ string, args []string, _, _ io.Writer) error {
		h.execs++
		for _, a := range args {
			if h.fail != "" && strings.Contains(a, h.fail) {
				return errors.New("engine crashed")
			}
		}
		for _, a := range args {
			if !strings.HasPrefix(a, h.dir) {
				continue
			}
			if _, err := os.Stat(a); os.IsNotExist(err) {
				os.WriteFile(a, []byte("audio out"), 0o644)
			}
		}
		return nil
	}
	return h
}

func (h *harness) file(name string) string {
	h.t.Helper()
	p := filepath.Join(h.dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		h.t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("audio in"), 0o644); err != nil {
		h.t.Fatal(err)
	}
	return p
}

func (h *harness) run(args ...string) int {
	return h.app.Run(context.Background(), append([]string{"audioflow"}, args...))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// --- Single-file operations ---

func TestVolume_ForcedFFmpeg(t *testing.T) {
	h := newHarness(t, bothEngines())
	in := h.file("song.wav")
	if code := h.run("--engine", "ffmpeg", "vol", in, "3"); code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, h.errOut.String())
	}
	if out := filepath.Join(h.dir, "song_vol_3dB.wav"); !exists(out) {
		t.Errorf("%s not created", out)
	}
	if !strings.Contains(h.out.String(), "Created") || !strings.Contains(h.out.String(), "(ffmpeg)") {
		t.Errorf("stdout:\n%s", h.out.String())
	}
}

func TestVolume_NegativeGainIsPositional(t *testing.T) {
	h := newHarness(t, bothEngines())
	in := h.file("song.wav")
	if code := h.run("vol", in, "-3"); code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, h.errOut.String())
	}
	if out := filepath.Join(h.dir, "song_vol_-3dB.wav"); !exists(out) {
		t.Errorf("%s not created", out)
	}
}

func TestVerboseRendersCommandLine(t *testing.T) {
	h := newHarness(t, bothEngines())
	in := h.file("song.wav")
	if code := h.run("-v", "reverse", in); code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, h.errOut.String())
	}
	if !strings.Contains(h.out.String(), "[RENDER]") || !strings.Contains(h.out.String(), " reverse") {
		t.Errorf("stdout:\n%s", h.out.String())
	}

	h = newHarness(t, bothEngines())
	in = h.file("song.wav")
	if code := h.run("reverse", in); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if strings.Contains(h.out.String(), "[RENDER]") {
		t.Errorf("command line rendered without -v:\n%s", h.out.String())
	}
}

func TestNormalizeTargetUsesFFmpeg(t *testing.T) {
	h := newHarness(t, bothEngines())
	in := h.file("voice.wav")
	if code := h.run("-n", "norm", in, "-16"); code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, h.errOut.String())
	}
	if !strings.Contains(h.out.String(), "loudnorm=I=-16") {
		t.Errorf("stdout:\n%s", h.out.String())
	}
}

func TestExplicitOutputPath(t *testing.T) {
	h := newHarness(t, bothEngines())
	in := h.file("song.wav")
	out := filepath.Join(h.dir, "custom", "left.wav")
	if code := h.run("s2m", in, "left", out); code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, h.errOut.String())
	}
	if !exists(out) {
		t.Errorf("%s not created", out)
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		args func(h *harness) []string
		want string
	}{
		{"sample rate lists valid set", func(h *harness) []string {
			return []string{"sr", h.file("a.wav"), "12345"}
		}, "8000, 11025, 22050, 44100, 48000, 88200, 96000, 192000"},
		{"unknown operation", func(h *harness) []string {
			return []string{"chorus", h.file("a.wav")}
		}, "unknown operation"},
		{"merge needs two inputs", func(h *harness) []string {
			return []string{"merge", h.file("a.wav"), filepath.Join(h.dir, "out.wav")}
		}, "at least 2"},
		{"missing input", func(h *harness) []string {
			return []string{"reverse", filepath.Join(h.dir, "nope.wav")}
		}, "file not found"},
		{"missing required param", func(h *harness) []string {
			return []string{"eq", h.file("a.wav")}
		}, "invalid preset"},
		{"too many args", func(h *harness) []string {
			return []string{"reverse", h.file("a.wav"), "b.wav", "c.wav"}
		}, "too many arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, bothEngines())
			if code := h.run(tt.args(h)...); code != 1 {
				t.Fatalf("exit %d, want 1", code)
			}
			if !strings.Contains(h.errOut.String(), tt.want) {
				t.Errorf("stderr missing %q:\n%s", tt.want, h.errOut.String())
			}
			if h.execs != 0 {
				t.Errorf("engine ran %d times", h.execs)
			}
		})
	}
}

func TestNoEngineInstalled(t *testing.T) {
	h := newHarness(t, engine.NewEngines(engine.Descriptor{}, engine.Descriptor{}))
	in := h.file("a.wav")
	if code := h.run("reverse", in); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(h.errOut.String(), "no audio engine available") {
		t.Errorf("stderr:\n%s", h.errOut.String())
	}
}

func TestEngineFailureExitsNonZero(t *testing.T) {
	h := newHarness(t, bothEngines())
	in := h.file("broken.wav")
	h.fail = "broken"
	if code := h.run("reverse", in); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(h.errOut.String(), "engine crashed") {
		t.Errorf("stderr:\n%s", h.errOut.String())
	}
}

func TestDryRunPrintsCommand(t *testing.T) {
	h := newHarness(t, bothEngines())
	in := h.file("song.wav")
	if code := h.run("-n", "s2m", in); code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, h.errOut.String())
	}
	if !strings.Contains(h.out.String(), "remix 1,2") {
		t.Errorf("stdout:\n%s", h.out.String())
	}
	if h.execs != 0 {
		t.Errorf("engine ran %d times during dry run", h.execs)
	}
}

func TestMergeCrossfadeTrailingArg(t *testing.T) {
	h := newHarness(t, bothEngines())
	a, b := h.file("a.wav"), h.file("b.wav")
	out := filepath.Join(h.dir, "ab.wav")
	if code := h.run("-n", "merge", a, b, out, "--crossfade=2"); code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, h.errOut.String())
	}
	if !strings.Contains(h.out.String(), "acrossfade=d=2") {
		t.Errorf("stdout:\n%s", h.out.String())
	}
}

// --- info, --engines, help ---

func TestInfo(t *testing.T) {
	h := newHarness(t, bothEngines())
	in := h.file("song.wav")
	if code := h.run("info", in); code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, h.errOut.String())
	}
	for _, want := range []string{"song.wav", "0:12.00", "2 (stereo)", "44100 Hz", "16 bit"} {
		if !strings.Contains(h.out.String(), want) {
			t.Errorf("stdout missing %q:\n%s", want, h.out.String())
		}
	}
}

func TestInfo_WorksWithoutEngines(t *testing.T) {
	h := newHarness(t, engine.NewEngines(engine.Descriptor{}, engine.Descriptor{}))
	in := h.file("song.wav")
	if code := h.run("info", in); code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, h.errOut.String())
	}
}

func TestEnginesReport(t *testing.T) {
	h := newHarness(t, bothEngines())
	if code := h.run("--engines"); code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, h.errOut.String())
	}
	if !strings.Contains(h.out.String(), "Preferred engine: sox (automatic)") {
		t.Errorf("stdout:\n%s", h.out.String())
	}

	h = newHarness(t, engine.NewEngines(engine.Descriptor{}, engine.Descriptor{}))
	if code := h.run("--engines"); code != 1 {
		t.Fatalf("exit %d with no engines, want 1", code)
	}
	if !strings.Contains(h.errOut.String(), "not installed") {
		t.Errorf("stderr:\n%s", h.errOut.String())
	}
}

func TestHelpListsOperations(t *testing.T) {
	h := newHarness(t, bothEngines())
	if code := h.run(); code != 0 {
		t.Fatalf("exit %d", code)
	}
	for _, want := range []string{"stereo-to-mono", "sample-rate", "batch", "--engine"} {
		if !strings.Contains(h.out.String(), want) {
			t.Errorf("help missing %q", want)
		}
	}
}

// --- batch ---

func TestBatch(t *testing.T) {
	h := newHarness(t, bothEngines())
	h.file("one.wav")
	h.file("two.wav")
	outDir := filepath.Join(h.dir, "out")
	if code := h.run("batch", "reverse", filepath.Join(h.dir, "*.wav"), outDir); code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, h.errOut.String())
	}
	for _, n := range []string{"one.wav", "two.wav"} {
		if !exists(filepath.Join(outDir, n)) {
			t.Errorf("%s not created in %s", n, outDir)
		}
	}
	if !strings.Contains(h.out.String(), "Success: 2/2") {
		t.Errorf("stdout:\n%s", h.out.String())
	}
}

func TestBatch_FailuresExitNonZero(t *testing.T) {
	h := newHarness(t, bothEngines())
	h.file("a.wav")
	h.file("bad.wav")
	h.file("c.wav")
	h.fail = "bad"
	code := h.run("batch", "convert", filepath.Join(h.dir, "*.wav"), filepath.Join(h.dir, "mp3"), "mp3")
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(h.errOut.String(), "1 of 3 files failed") {
		t.Errorf("stderr:\n%s", h.errOut.String())
	}
	if !exists(filepath.Join(h.dir, "mp3", "c.mp3")) {
		t.Error("batch stopped at the failing file")
	}
}

func TestBatch_NoMatches(t *testing.T) {
	h := newHarness(t, bothEngines())
	outDir := filepath.Join(h.dir, "never")
	if code := h.run("batch", "reverse", filepath.Join(h.dir, "*.flac"), outDir); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(h.errOut.String(), "no files matched") || exists(outDir) {
		t.Errorf("stderr:\n%s", h.errOut.String())
	}
}

func TestExtractCrossfade(t *testing.T) {
	rest, v := extractCrossfade([]string{"a.wav", "--crossfade=1.5", "b.wav", "out.wav"})
	if v != "1.5" || strings.Join(rest, " ") != "a.wav b.wav out.wav" {
		t.Errorf("extractCrossfade = %v, %q", rest, v)
	}
}
