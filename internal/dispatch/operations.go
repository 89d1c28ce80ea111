package dispatch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agaudioflow/audioflow/internal/engine"
	"github.com/agaudioflow/audioflow/internal/naming"
)

// Param is one positional parameter in an operation's arity table.
type Param struct {
	Name     string
	Usage    string // Shown in help instead of Name when set.
	Required bool
	Dir      bool // Output directory; batch runs fill it with theirs.
}

// recipe turns validated values into engine steps. Program, engine global
// options and Duration are filled in by the dispatcher.
type recipe func(v *values) []Step

// Operation is one row of the dispatch table.
type Operation struct {
	Name    string
	Aliases []string
	Usage   string
	Params  []Param
	Output  bool // Accepts a trailing explicit output path.
	Batch   bool // Can run under the batch command.
	Inspect bool // Describes inputs; no engine involved.
	Multi   bool // Several inputs followed by a required output.

	stereo bool // Input must be two-channel when the channel count is known.
	parse  func(v *values, params []string) error
	suffix func(v *values) string
	ext    func(v *values) string

	sox    recipe
	soxCan func(v *values) bool // nil means sox can run every variant.
	ffmpeg recipe
}

// ArgsUsage renders the positional arguments for help text.
func (op *Operation) ArgsUsage() string {
	var parts []string
	if op.Multi {
		parts = append(parts, "<file>", "<file>...", "<output>")
	} else {
		in := "<input>"
		if op.Name == "extract-audio" {
			in = "<video>"
		}
		parts = append(parts, in)
	}
	for _, p := range op.Params {
		if op.Multi {
			break
		}
		label := p.Name
		if p.Usage != "" {
			label = p.Usage
		}
		if p.Required {
			parts = append(parts, "<"+label+">")
		} else {
			parts = append(parts, "["+label+"]")
		}
	}
	if op.Output {
		parts = append(parts, "[output]")
	}
	return strings.Join(parts, " ")
}

func (op *Operation) supports(v *values, e engine.Name) bool {
	switch e {
	case engine.Sox:
		return op.sox != nil && (op.soxCan == nil || op.soxCan(v))
	case engine.FFmpeg:
		return op.ffmpeg != nil
	}
	return false
}

// Request splits CLI positional arguments by the arity table: input first,
// then up to len(Params) parameters, then the optional output path.
// Multi-input operations take every argument but the last as inputs.
func (op *Operation) Request(args []string) (Request, error) {
	req := Request{Operation: op.Name}
	if op.Multi {
		if len(args) > 0 {
			req.Inputs = append([]string(nil), args[:len(args)-1]...)
			req.OutputPath = args[len(args)-1]
		}
		return req, nil
	}
	if len(args) == 0 {
		return req, argErr("input", "missing input file (usage: %s %s)", op.Name, op.ArgsUsage())
	}
	req.Inputs = []string{args[0]}
	rest := args[1:]
	n := len(op.Params)
	if len(rest) > n {
		if !op.Output || len(rest) > n+1 {
			return req, argErr("arguments", "too many arguments (usage: %s %s)", op.Name, op.ArgsUsage())
		}
		req.OutputPath = rest[n]
		rest = rest[:n]
	}
	req.Params = append([]string(nil), rest...)
	return req, nil
}

// CheckBatchParams rejects batch parameters that cannot be placed: more
// values than the operation declares, or a value in a slot the batch output
// directory fills.
func (op *Operation) CheckBatchParams(extra []string) error {
	if len(extra) > len(op.Params) {
		return argErr("arguments", "%s takes at most %d parameter(s) in batch mode", op.Name, len(op.Params))
	}
	for i, v := range extra {
		if op.Params[i].Dir && v != "" {
			return argErr(op.Params[i].Name, "%s is set by the batch output directory", op.Params[i].Name)
		}
	}
	return nil
}

// BatchRequest builds the request for one batch file: extra fills the
// parameters in order, a Dir parameter receives outputDir, and the output
// path mirrors the input's base name inside outputDir. When that would
// overwrite the input itself the operation suffix is added.
func (op *Operation) BatchRequest(input, outputDir string, extra []string) (Request, error) {
	req := Request{Operation: op.Name, Inputs: []string{input}}
	if err := op.CheckBatchParams(extra); err != nil {
		return req, err
	}
	params := append([]string(nil), extra...)
	for i, p := range op.Params {
		if !p.Dir {
			continue
		}
		for len(params) <= i {
			params = append(params, "")
		}
		params[i] = outputDir
	}
	req.Params = params
	if !op.Output {
		return req, nil
	}

	v := &values{inputs: req.Inputs}
	ext := ""
	if op.parse == nil || op.parse(v, params) == nil {
		if op.ext != nil {
			ext = op.ext(v)
		}
	}
	out := naming.InDir(outputDir, input, ext)
	if samePath(out, input) && op.suffix != nil {
		out = naming.DeriveIn(outputDir, input, op.suffix(v), ext)
	}
	req.OutputPath = out
	return req, nil
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}

// --- Lookup ---

var byName = func() map[string]*Operation {
	m := make(map[string]*Operation)
	for _, op := range table {
		m[op.Name] = op
		for _, a := range op.Aliases {
			m[a] = op
		}
	}
	return m
}()

// Lookup resolves an operation keyword or alias.
func Lookup(name string) (*Operation, error) {
	if op, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return op, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// Operations returns the dispatch table in help order.
func Operations() []*Operation {
	return append([]*Operation(nil), table...)
}

// --- The table ---

func fixed(s string) func(*values) string { return func(*values) string { return s } }

var table = []*Operation{
	{
		Name:    "stereo-to-mono",
		Aliases: []string{"s2m"},
		Usage:   "Convert stereo to mono by mixing or picking one channel",
		Params:  []Param{{Name: "method", Usage: "mix|left|right"}},
		Output:  true,
		Batch:   true,
		stereo:  true,
		parse: func(v *values, p []string) error {
			v.method = "mix"
			if s := param(p, 0); s != "" {
				m, err := parseChoice("method", s, mixMethods)
				if err != nil {
					return err
				}
				v.method = m
			}
			return nil
		},
		suffix: fixed("mono"),
		sox:    soxStereoToMono,
		ffmpeg: ffmpegStereoToMono,
	},
	{
		Name:    "split-stereo",
		Aliases: []string{"split"},
		Usage:   "Split stereo into separate left and right mono files",
		Params:  []Param{{Name: "output-dir", Dir: true}},
		Batch:   true,
		stereo:  true,
		parse: func(v *values, p []string) error {
			v.outDir = param(p, 0)
			return nil
		},
		sox:    soxSplit,
		ffmpeg: ffmpegSplit,
	},
	{
		Name:    "convert",
		Aliases: []string{"cvt"},
		Usage:   "Convert to another audio format",
		Params:  []Param{{Name: "format", Usage: "mp3|wav|aac|flac|ogg", Required: true}},
		Output:  true,
		Batch:   true,
		parse: func(v *values, p []string) error {
			f, err := parseChoice("format", param(p, 0), formats)
			v.format = f
			return err
		},
		suffix: fixed("converted"),
		ext:    func(v *values) string { return v.format },
		sox:    soxConvert,
		soxCan: func(v *values) bool { return v.format != "aac" },
		ffmpeg: ffmpegConvert,
	},
	{
		Name:    "normalize",
		Aliases: []string{"norm"},
		Usage:   "Normalize loudness (target in LUFS, default -23)",
		Params:  []Param{{Name: "target-level"}},
		Output:  true,
		Batch:   true,
		parse: func(v *values, p []string) error {
			v.target = -23
			if s := param(p, 0); s != "" {
				t, err := parseNumberIn("target-level", s, -70, -5)
				if err != nil {
					return err
				}
				v.target, v.targetSet = t, true
			}
			return nil
		},
		suffix: fixed("normalized"),
		sox:    soxNormalize,
		// sox only peak-normalizes; a loudness target needs loudnorm.
		soxCan: func(v *values) bool { return !v.targetSet },
		ffmpeg: ffmpegNormalize,
	},
	{
		Name:    "volume",
		Aliases: []string{"vol"},
		Usage:   "Change volume by a number of decibels",
		Params:  []Param{{Name: "dB", Required: true}},
		Output:  true,
		Batch:   true,
		parse: func(v *values, p []string) error {
			db, err := parseNumberIn("dB", param(p, 0), -60, 60)
			v.gainDB = db
			return err
		},
		suffix: func(v *values) string { return "vol_" + formatNum(v.gainDB) + "dB" },
		sox:    soxVolume,
		ffmpeg: ffmpegVolume,
	},
	{
		Name:    "trim-silence",
		Aliases: []string{"trim"},
		Usage:   "Remove leading and trailing silence (threshold in dB, default -50)",
		Params:  []Param{{Name: "threshold"}},
		Output:  true,
		Batch:   true,
		parse: func(v *values, p []string) error {
			v.threshold = -50
			if s := param(p, 0); s != "" {
				t, err := parseNumberIn("threshold", s, -100, 0)
				if err != nil {
					return err
				}
				v.threshold = t
			}
			return nil
		},
		suffix: fixed("trimmed"),
		sox:    soxTrimSilence,
		ffmpeg: ffmpegTrimSilence,
	},
	{
		Name:   "fade",
		Usage:  "Add fade in and fade out (seconds)",
		Params: []Param{{Name: "in", Required: true}, {Name: "out", Required: true}},
		Output: true,
		Batch:  true,
		parse: func(v *values, p []string) error {
			in, err := parseNumberIn("in", param(p, 0), 0, 3600)
			if err != nil {
				return err
			}
			out, err := parseNumberIn("out", param(p, 1), 0, 3600)
			if err != nil {
				return err
			}
			if in == 0 && out == 0 {
				return argErr("fade", "fade in and fade out are both zero")
			}
			v.fadeIn, v.fadeOut = in, out
			return nil
		},
		suffix: fixed("faded"),
		sox:    soxFade,
		ffmpeg: ffmpegFade,
	},
	{
		Name:  "speed",
		Usage: "Change playback speed in percent (50 = half, 200 = double)",
		Params: []Param{
			{Name: "percent", Required: true},
			{Name: "preserve-pitch", Usage: "true|false"},
		},
		Output: true,
		Batch:  true,
		parse: func(v *values, p []string) error {
			pct, err := parseNumberIn("percent", param(p, 0), 10, 1000)
			if err != nil {
				return err
			}
			v.percent = pct
			v.factor = pct / 100
			v.preservePitch = true
			if s := param(p, 1); s != "" {
				keep, err := parseBool("preserve-pitch", s)
				if err != nil {
					return err
				}
				v.preservePitch = keep
			}
			return nil
		},
		suffix: func(v *values) string { return "speed_" + formatNum(v.percent) },
		sox:    soxSpeed,
		ffmpeg: ffmpegSpeed,
	},
	{
		Name:    "merge",
		Aliases: []string{"concat"},
		Usage:   "Join files end to end, optionally with a crossfade",
		Params:  []Param{{Name: "crossfade"}},
		Multi:   true,
		parse: func(v *values, p []string) error {
			if s := param(p, 0); s != "" {
				cf, err := parseNumberIn("crossfade", s, 0, 60)
				if err != nil {
					return err
				}
				v.crossfade = cf
			}
			return nil
		},
		sox:    soxMerge,
		soxCan: func(v *values) bool { return v.crossfade == 0 },
		ffmpeg: ffmpegMerge,
	},
	{
		Name:    "extract-audio",
		Aliases: []string{"extract"},
		Usage:   "Extract the audio track from a video",
		Params:  []Param{{Name: "format", Usage: "mp3|wav|aac|flac|ogg"}},
		Output:  true,
		Batch:   true,
		parse: func(v *values, p []string) error {
			v.format = "mp3"
			if s := param(p, 0); s != "" {
				f, err := parseChoice("format", s, formats)
				if err != nil {
					return err
				}
				v.format = f
			}
			return nil
		},
		suffix: fixed("audio"),
		ext:    func(v *values) string { return v.format },
		ffmpeg: ffmpegExtract,
	},
	{
		Name:   "channels",
		Usage:  "Set the number of output channels (1-8)",
		Params: []Param{{Name: "count", Usage: "1-8", Required: true}},
		Output: true,
		Batch:  true,
		parse: func(v *values, p []string) error {
			n, err := parseInteger("count", param(p, 0))
			if err != nil {
				return err
			}
			if n < 1 || n > 8 {
				return argErr("count", "%d is out of range (1 to 8)", n)
			}
			v.channels = n
			return nil
		},
		suffix: func(v *values) string { return fmt.Sprintf("%dch", v.channels) },
		sox:    soxChannels,
		ffmpeg: ffmpegChannels,
	},
	{
		Name:    "sample-rate",
		Aliases: []string{"sr"},
		Usage:   "Resample to a standard rate",
		Params:  []Param{{Name: "rate", Required: true}},
		Output:  true,
		Batch:   true,
		parse: func(v *values, p []string) error {
			s := param(p, 0)
			if s == "" {
				return argErr("rate", "missing value (valid: %s)", intList(SampleRates()))
			}
			n, err := parseInteger("rate", s)
			if err == nil {
				for _, r := range sampleRates {
					if n == r {
						v.rate = n
						return nil
					}
				}
			}
			return argErr("rate", "%s Hz is not supported (valid: %s)", s, intList(SampleRates()))
		},
		suffix: func(v *values) string { return fmt.Sprintf("%dhz", v.rate) },
		sox:    soxSampleRate,
		ffmpeg: ffmpegSampleRate,
	},
	{
		Name:   "eq",
		Usage:  "Apply an equalizer preset",
		Params: []Param{{Name: "preset", Usage: "bass|treble|vocal|flat|loudness", Required: true}},
		Output: true,
		Batch:  true,
		parse: func(v *values, p []string) error {
			pr, err := parseChoice("preset", param(p, 0), eqPresets)
			v.preset = pr
			return err
		},
		suffix: func(v *values) string { return "eq_" + v.preset },
		sox:    soxEQ,
		ffmpeg: ffmpegEQ,
	},
	{
		Name:   "reverse",
		Usage:  "Play the audio backwards",
		Output: true,
		Batch:  true,
		suffix: fixed("reversed"),
		sox:    soxReverse,
		ffmpeg: ffmpegReverse,
	},
	{
		Name:    "info",
		Usage:   "Show duration, channels, sample rate, bitrate, format and tags",
		Inspect: true,
	},
}
