package dispatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/agaudioflow/audioflow/internal/engine"
	"github.com/agaudioflow/audioflow/internal/probe"
)

// --- Helpers ---

type fakeProber struct {
	info  *probe.Info
	err   error
	calls int
}

func (f *fakeProber) Probe(_ context.Context, _ string) (*probe.Info, error) {
	f.calls++
	return f.info, f.err
}

func stereoInfo(duration float64) *probe.Info {
	return &probe.Info{
		Duration: duration,
		Audio:    &probe.AudioStream{Codec: "pcm_s16le", Channels: 2, SampleRate: 44100},
	}
}

func located(name engine.Name) engine.Descriptor {
	return engine.Descriptor{Name: name, Path: "/usr/bin/" + string(name), Available: true}
}

func bothEngines() engine.Engines {
	return engine.NewEngines(located(engine.Sox), located(engine.FFmpeg))
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func dispatchOne(t *testing.T, d *Dispatcher, op string, inputs []string, params ...string) (*Invocation, error) {
	t.Helper()
	return d.Dispatch(context.Background(), Request{Operation: op, Inputs: inputs, Params: params})
}

// --- Validation ---

func TestDispatch_MissingRequiredParamSkipsProbe(t *testing.T) {
	in := touch(t, t.TempDir(), "track.wav")
	for _, op := range Operations() {
		required := false
		for _, p := range op.Params {
			required = required || p.Required
		}
		if !required {
			continue
		}
		t.Run(op.Name, func(t *testing.T) {
			fp := &fakeProber{info: stereoInfo(10)}
			d := New(bothEngines(), Options{Engine: engine.Sox, Prober: fp})
			_, err := dispatchOne(t, d, op.Name, []string{in})
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("error = %v, want ErrInvalidArgument", err)
			}
			var ae *ArgumentError
			if !errors.As(err, &ae) || ae.Param == "" {
				t.Errorf("error %v does not name the parameter", err)
			}
			if fp.calls != 0 {
				t.Errorf("prober called %d times before validation finished", fp.calls)
			}
		})
	}
}

func TestDispatch_SampleRateErrorListsValidRates(t *testing.T) {
	in := touch(t, t.TempDir(), "track.wav")
	d := New(bothEngines(), Options{Engine: engine.Sox})
	_, err := dispatchOne(t, d, "sr", []string{in}, "12345")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
	want := "8000, 11025, 22050, 44100, 48000, 88200, 96000, 192000"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not list %q", err, want)
	}
}

func TestDispatch_Validation(t *testing.T) {
	dir := t.TempDir()
	in := touch(t, dir, "track.wav")
	other := touch(t, dir, "other.wav")
	tests := []struct {
		name string
		req  Request
	}{
		{"merge with one input", Request{Operation: "merge", Inputs: []string{in}, OutputPath: filepath.Join(dir, "out.wav")}},
		{"merge without output", Request{Operation: "merge", Inputs: []string{in, other}}},
		{"missing input file", Request{Operation: "reverse", Inputs: []string{filepath.Join(dir, "nope.wav")}}},
		{"input is a directory", Request{Operation: "reverse", Inputs: []string{dir}}},
		{"output overwrites input", Request{Operation: "reverse", Inputs: []string{in}, OutputPath: in}},
		{"too many params", Request{Operation: "volume", Inputs: []string{in}, Params: []string{"3", "4"}}},
		{"volume not a number", Request{Operation: "vol", Inputs: []string{in}, Params: []string{"loud"}}},
		{"volume out of range", Request{Operation: "vol", Inputs: []string{in}, Params: []string{"90"}}},
		{"fade both zero", Request{Operation: "fade", Inputs: []string{in}, Params: []string{"0", "0"}}},
		{"fade negative", Request{Operation: "fade", Inputs: []string{in}, Params: []string{"-1", "2"}}},
		{"speed too slow", Request{Operation: "speed", Inputs: []string{in}, Params: []string{"5"}}},
		{"speed bad pitch flag", Request{Operation: "speed", Inputs: []string{in}, Params: []string{"50", "maybe"}}},
		{"channels zero", Request{Operation: "channels", Inputs: []string{in}, Params: []string{"0"}}},
		{"channels nine", Request{Operation: "channels", Inputs: []string{in}, Params: []string{"9"}}},
		{"convert unknown format", Request{Operation: "cvt", Inputs: []string{in}, Params: []string{"wma"}}},
		{"eq unknown preset", Request{Operation: "eq", Inputs: []string{in}, Params: []string{"disco"}}},
		{"s2m unknown method", Request{Operation: "s2m", Inputs: []string{in}, Params: []string{"center"}}},
		{"info is not dispatchable", Request{Operation: "info", Inputs: []string{in}}},
	}
	d := New(bothEngines(), Options{Engine: engine.Sox})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Dispatch(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestDispatch_UnknownOperation(t *testing.T) {
	d := New(bothEngines(), Options{Engine: engine.Sox})
	_, err := d.Dispatch(context.Background(), Request{Operation: "chorus", Inputs: []string{"a.wav"}})
	if !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("error = %v, want ErrUnknownOperation", err)
	}
}

func TestDispatch_StereoRequired(t *testing.T) {
	in := touch(t, t.TempDir(), "mono.wav")
	fp := &fakeProber{info: &probe.Info{Duration: 3, Audio: &probe.AudioStream{Channels: 1}}}
	d := New(bothEngines(), Options{Engine: engine.Sox, Prober: fp})
	for _, op := range []string{"s2m", "split"} {
		if _, err := dispatchOne(t, d, op, []string{in}); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s on mono input: error = %v, want ErrInvalidArgument", op, err)
		}
	}
}

// --- Recipes ---

func TestDispatch_SoxStereoToMono(t *testing.T) {
	dir := t.TempDir()
	in := touch(t, dir, "track.wav")
	d := New(bothEngines(), Options{Engine: engine.Sox})
	inv, err := dispatchOne(t, d, "s2m", []string{in})
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "track_mono.wav")
	want := Step{
		Program: "/usr/bin/sox",
		Args:    []string{"-S", "-V1", in, out, "remix", "1,2"},
		Output:  out,
	}
	if inv.Engine != engine.Sox || len(inv.Steps) != 1 || !reflect.DeepEqual(inv.Steps[0], want) {
		t.Errorf("invocation = %+v, want one step %+v", inv, want)
	}
}

func TestDispatch_FFmpegArgs(t *testing.T) {
	dir := t.TempDir()
	in := touch(t, dir, "track.mp3")
	tests := []struct {
		name   string
		op     string
		params []string
		output string
		want   []string // Args after the global options.
	}{
		{"mono left", "s2m", []string{"left"}, "track_mono.mp3",
			[]string{"-i", in, "-af", "pan=mono|c0=c0", "-ac", "1"}},
		{"volume", "vol", []string{"-3"}, "track_vol_-3dB.mp3",
			[]string{"-i", in, "-af", "volume=-3dB"}},
		{"normalize default", "norm", nil, "track_normalized.mp3",
			[]string{"-i", in, "-af", "loudnorm=I=-23:TP=-2:LRA=7"}},
		{"speed quarter keeps pitch", "speed", []string{"25"}, "track_speed_25.mp3",
			[]string{"-i", in, "-af", "atempo=0.500000,atempo=0.500000"}},
		{"speed without pitch", "speed", []string{"150", "false"}, "track_speed_150.mp3",
			[]string{"-i", in, "-af", "asetrate=66150,aresample=44100"}},
		{"convert to flac", "cvt", []string{"flac"}, "track_converted.flac",
			[]string{"-i", in, "-vn", "-c:a", "flac"}},
		{"sample rate", "sr", []string{"48000"}, "track_48000hz.mp3",
			[]string{"-i", in, "-ar", "48000"}},
		{"channels", "channels", []string{"6"}, "track_6ch.mp3",
			[]string{"-i", in, "-ac", "6"}},
		{"eq bass", "eq", []string{"bass"}, "track_eq_bass.mp3",
			[]string{"-i", in, "-af", "bass=g=10:f=100:w=1"}},
		{"reverse", "reverse", nil, "track_reversed.mp3",
			[]string{"-i", in, "-af", "areverse"}},
		{"fade", "fade", []string{"1", "2"}, "track_faded.mp3",
			[]string{"-i", in, "-af", "afade=t=in:ss=0:d=1,afade=t=out:st=8.000:d=2"}},
	}
	fp := &fakeProber{info: stereoInfo(10)}
	d := New(bothEngines(), Options{Engine: engine.FFmpeg, Forced: true, Prober: fp})
	globals := d.globals(engine.FFmpeg)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := dispatchOne(t, d, tt.op, []string{in}, tt.params...)
			if err != nil {
				t.Fatal(err)
			}
			out := filepath.Join(dir, tt.output)
			want := append(append(append([]string(nil), globals...), tt.want...), out)
			got := inv.Steps[0]
			if !reflect.DeepEqual(got.Args, want) {
				t.Errorf("args =\n  %q\nwant\n  %q", got.Args, want)
			}
			if got.Output != out {
				t.Errorf("output = %q, want %q", got.Output, out)
			}
		})
	}
}

func TestDispatch_SpeedSetsOutputLength(t *testing.T) {
	in := touch(t, t.TempDir(), "track.wav")
	d := New(bothEngines(), Options{Engine: engine.Sox, Prober: &fakeProber{info: stereoInfo(30)}})
	inv, err := dispatchOne(t, d, "speed", []string{in}, "200")
	if err != nil {
		t.Fatal(err)
	}
	if inv.Steps[0].Duration != 15 {
		t.Errorf("Duration = %v, want 15", inv.Steps[0].Duration)
	}
}

func TestDispatch_FFmpegFadeOutNeedsDuration(t *testing.T) {
	in := touch(t, t.TempDir(), "track.mp3")
	d := New(bothEngines(), Options{Engine: engine.FFmpeg, Forced: true})
	if _, err := dispatchOne(t, d, "fade", []string{in}, "1", "2"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("fade-out without duration: error = %v, want ErrInvalidArgument", err)
	}
	if _, err := dispatchOne(t, d, "fade", []string{in}, "1", "0"); err != nil {
		t.Errorf("fade-in only: %v", err)
	}
}

func TestDispatch_SoxFade(t *testing.T) {
	in := touch(t, t.TempDir(), "track.wav")
	d := New(bothEngines(), Options{Engine: engine.Sox, Verbose: true})
	inv, err := dispatchOne(t, d, "fade", []string{in}, "2", "3")
	if err != nil {
		t.Fatal(err)
	}
	args := inv.Steps[0].Args
	if args[0] != "-S" || args[1] == "-V1" {
		t.Errorf("verbose sox globals = %q", args[:2])
	}
	tail := args[len(args)-5:]
	if want := []string{"fade", "h", "2", "-0", "3"}; !reflect.DeepEqual(tail, want) {
		t.Errorf("effects = %q, want %q", tail, want)
	}
}

func TestDispatch_Split(t *testing.T) {
	dir := t.TempDir()
	in := touch(t, dir, "duet.flac")
	outDir := filepath.Join(dir, "parts")
	d := New(bothEngines(), Options{Engine: engine.Sox})
	inv, err := dispatchOne(t, d, "split", []string{in}, outDir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(outDir, "duet_left.flac"), filepath.Join(outDir, "duet_right.flac")}
	if got := inv.Outputs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Outputs() = %q, want %q", got, want)
	}
}

func TestDispatch_MergeCrossfade(t *testing.T) {
	dir := t.TempDir()
	a, b, c := touch(t, dir, "a.wav"), touch(t, dir, "b.wav"), touch(t, dir, "c.wav")
	out := filepath.Join(dir, "all.wav")
	d := New(bothEngines(), Options{Engine: engine.Sox})
	inv, err := d.Dispatch(context.Background(), Request{
		Operation: "merge", Inputs: []string{a, b, c}, OutputPath: out, Params: []string{"2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if inv.Engine != engine.FFmpeg {
		t.Fatalf("crossfade merge engine = %s, want ffmpeg fallback", inv.Engine)
	}
	graph := "[0:a][1:a]acrossfade=d=2:c1=tri:c2=tri[a1];[a1][2:a]acrossfade=d=2:c1=tri:c2=tri[out]"
	if !strings.Contains(strings.Join(inv.Steps[0].Args, " "), graph) {
		t.Errorf("args %q missing graph %q", inv.Steps[0].Args, graph)
	}

	inv, err = d.Dispatch(context.Background(), Request{Operation: "concat", Inputs: []string{a, b}, OutputPath: out})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"-S", "-V1", a, b, out}; inv.Engine != engine.Sox || !reflect.DeepEqual(inv.Steps[0].Args, want) {
		t.Errorf("plain merge = %s %q, want sox %q", inv.Engine, inv.Steps[0].Args, want)
	}
}

// --- Engine choice ---

func TestDispatch_EngineFallback(t *testing.T) {
	in := touch(t, t.TempDir(), "movie.mp4")
	tests := []struct {
		name    string
		engines engine.Engines
		opts    Options
		op      string
		params  []string
		want    engine.Name
		wantErr error
	}{
		{"extract falls back to ffmpeg", bothEngines(), Options{Engine: engine.Sox}, "extract", nil, engine.FFmpeg, nil},
		{"aac falls back to ffmpeg", bothEngines(), Options{Engine: engine.Sox}, "cvt", []string{"aac"}, engine.FFmpeg, nil},
		{"mp3 stays on sox", bothEngines(), Options{Engine: engine.Sox}, "cvt", []string{"mp3"}, engine.Sox, nil},
		{"forced sox cannot extract", bothEngines(), Options{Engine: engine.Sox, Forced: true}, "extract", nil, "", engine.ErrEngineNotAvailable},
		{"ffmpeg missing", engine.NewEngines(located(engine.Sox), engine.Descriptor{}), Options{Engine: engine.Sox}, "extract", nil, "", engine.ErrEngineNotAvailable},
		{"default normalize stays on sox", bothEngines(), Options{Engine: engine.Sox}, "norm", nil, engine.Sox, nil},
		{"loudness target falls back to ffmpeg", bothEngines(), Options{Engine: engine.Sox}, "norm", []string{"-16"}, engine.FFmpeg, nil},
		{"forced sox rejects loudness target", bothEngines(), Options{Engine: engine.Sox, Forced: true}, "norm", []string{"-16"}, "", engine.ErrEngineNotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.engines, tt.opts)
			inv, err := dispatchOne(t, d, tt.op, []string{in}, tt.params...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && inv.Engine != tt.want {
				t.Errorf("engine = %s, want %s", inv.Engine, tt.want)
			}
		})
	}
}

func TestDispatch_NormalizeTargetReachesLoudnorm(t *testing.T) {
	in := touch(t, t.TempDir(), "voice.wav")
	d := New(bothEngines(), Options{Engine: engine.Sox})
	inv, err := dispatchOne(t, d, "norm", []string{in}, "-16")
	if err != nil {
		t.Fatal(err)
	}
	if got := inv.Steps[0].CommandLine(); !strings.Contains(got, "loudnorm=I=-16") {
		t.Errorf("command line = %s", got)
	}
}

// --- Table helpers ---

func TestLookup_Aliases(t *testing.T) {
	for alias, name := range map[string]string{
		"s2m": "stereo-to-mono", "split": "split-stereo", "cvt": "convert", "norm": "normalize",
		"vol": "volume", "trim": "trim-silence", "concat": "merge", "extract": "extract-audio",
		"sr": "sample-rate", "EQ": "eq",
	} {
		op, err := Lookup(alias)
		if err != nil || op.Name != name {
			t.Errorf("Lookup(%q) = %v, %v; want %s", alias, op, err, name)
		}
	}
}

func TestOperation_Request(t *testing.T) {
	s2m, _ := Lookup("s2m")
	req, err := s2m.Request([]string{"in.wav", "left", "out.wav"})
	if err != nil {
		t.Fatal(err)
	}
	if req.Input() != "in.wav" || !reflect.DeepEqual(req.Params, []string{"left"}) || req.OutputPath != "out.wav" {
		t.Errorf("Request = %+v", req)
	}
	if _, err := s2m.Request([]string{"in.wav", "left", "out.wav", "extra"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("extra argument: error = %v", err)
	}
	if _, err := s2m.Request(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("no arguments: error = %v", err)
	}

	merge, _ := Lookup("merge")
	req, _ = merge.Request([]string{"a.wav", "b.wav", "c.wav", "out.wav"})
	if !reflect.DeepEqual(req.Inputs, []string{"a.wav", "b.wav", "c.wav"}) || req.OutputPath != "out.wav" {
		t.Errorf("merge Request = %+v", req)
	}
}

func TestOperation_BatchRequest(t *testing.T) {
	cvt, _ := Lookup("convert")
	req, err := cvt.BatchRequest(filepath.Join("in", "a.wav"), "out", []string{"mp3"})
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("out", "a.mp3"); req.OutputPath != want {
		t.Errorf("convert output = %q, want %q", req.OutputPath, want)
	}

	s2m, _ := Lookup("s2m")
	req, _ = s2m.BatchRequest(filepath.Join("dir", "a.wav"), "dir", nil)
	if want := filepath.Join("dir", "a_mono.wav"); req.OutputPath != want {
		t.Errorf("same-dir output = %q, want %q", req.OutputPath, want)
	}

	split, _ := Lookup("split")
	req, _ = split.BatchRequest("a.wav", "parts", nil)
	if !reflect.DeepEqual(req.Params, []string{"parts"}) || req.OutputPath != "" {
		t.Errorf("split request = %+v", req)
	}
	if _, err := split.BatchRequest("a.wav", "parts", []string{"elsewhere"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("value in output-dir slot: error = %v, want ErrInvalidArgument", err)
	}
	if _, err := cvt.BatchRequest("a.wav", "out", []string{"mp3", "extra"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("too many values: error = %v, want ErrInvalidArgument", err)
	}
}

func TestStep_CommandLine(t *testing.T) {
	s := Step{Program: "ffmpeg", Args: []string{"-i", "my song.mp3", "-af", "pan=mono|c0=c0", "out.mp3"}}
	want := `ffmpeg -i 'my song.mp3' -af 'pan=mono|c0=c0' out.mp3`
	if got := s.CommandLine(); got != want {
		t.Errorf("CommandLine() = %s, want %s", got, want)
	}
}
