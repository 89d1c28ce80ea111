package dispatch

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// values holds validated parameters. Each operation fills only the fields
// its recipes read; recipes never see raw strings.
type values struct {
	inputs []string
	output string
	outDir string // split-stereo

	method        string // stereo-to-mono: mix | left | right
	format        string // convert, extract-audio
	target        float64
	targetSet     bool // normalize: a LUFS target was given explicitly
	gainDB        float64
	threshold     float64
	fadeIn        float64
	fadeOut       float64
	percent       float64
	factor        float64
	preservePitch bool
	crossfade     float64
	channels      int
	rate          int
	preset        string

	// Probed from the input; zero when unknown.
	duration   float64
	sampleRate int
}

func (v *values) input() string { return v.inputs[0] }

// --- Value sets ---

var (
	mixMethods  = []string{"mix", "left", "right"}
	formats     = []string{"mp3", "wav", "aac", "flac", "ogg"}
	eqPresets   = []string{"bass", "treble", "vocal", "flat", "loudness"}
	sampleRates = []int{8000, 11025, 22050, 44100, 48000, 88200, 96000, 192000}
)

// SampleRates returns the accepted sample-rate set in ascending order.
func SampleRates() []int {
	out := append([]int(nil), sampleRates...)
	sort.Ints(out)
	return out
}

// --- Parsing helpers ---

// param returns params[i] trimmed, or "" when absent.
func param(params []string, i int) string {
	if i < len(params) {
		return strings.TrimSpace(params[i])
	}
	return ""
}

func parseNumber(name, s string) (float64, error) {
	if s == "" {
		return 0, argErr(name, "missing value")
	}
	f, err := strconv.ParseFloat(strings.TrimPrefix(s, "+"), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, argErr(name, "%q is not a number", s)
	}
	return f, nil
}

func parseNumberIn(name, s string, lo, hi float64) (float64, error) {
	f, err := parseNumber(name, s)
	if err != nil {
		return 0, err
	}
	if f < lo || f > hi {
		return 0, argErr(name, "%s is out of range (%s to %s)", formatNum(f), formatNum(lo), formatNum(hi))
	}
	return f, nil
}

func parseInteger(name, s string) (int, error) {
	if s == "" {
		return 0, argErr(name, "missing value")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, argErr(name, "%q is not a whole number", s)
	}
	return n, nil
}

func parseChoice(name, s string, choices []string) (string, error) {
	if s == "" {
		return "", argErr(name, "missing value (use %s)", orList(choices))
	}
	l := strings.ToLower(s)
	for _, c := range choices {
		if l == c {
			return c, nil
		}
	}
	return "", argErr(name, "%q is not supported (use %s)", s, orList(choices))
}

func parseBool(name, s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, argErr(name, "%q is not true or false", s)
}

// formatNum renders f without trailing zeros: 50, -3, 2.5, 0.75.
func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func orList(choices []string) string {
	switch len(choices) {
	case 0:
		return ""
	case 1:
		return choices[0]
	}
	return strings.Join(choices[:len(choices)-1], ", ") + " or " + choices[len(choices)-1]
}

func intList(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
