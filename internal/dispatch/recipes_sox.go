package dispatch

import (
	"math"
	"path/filepath"
	"strconv"

	"github.com/agaudioflow/audioflow/internal/naming"
)

// SoX recipes. Arguments follow "sox infile outfile effect...".

func soxStep(v *values, effects ...string) []Step {
	args := append([]string{v.input(), v.output}, effects...)
	return []Step{{Args: args, Output: v.output}}
}

func soxStereoToMono(v *values) []Step {
	switch v.method {
	case "left":
		return soxStep(v, "remix", "1")
	case "right":
		return soxStep(v, "remix", "2")
	}
	return soxStep(v, "remix", "1,2")
}

func soxSplit(v *values) []Step {
	left, right := splitOutputs(v)
	return []Step{
		{Args: []string{v.input(), left, "remix", "1"}, Output: left},
		{Args: []string{v.input(), right, "remix", "2"}, Output: right},
	}
}

func soxConvert(v *values) []Step { return soxStep(v) }

// SoX has no integrated-loudness measure; peak normalisation stands in.
func soxNormalize(v *values) []Step { return soxStep(v, "norm", "-0.1") }

func soxVolume(v *values) []Step {
	gain := math.Pow(10, v.gainDB/20)
	return soxStep(v, "vol", strconv.FormatFloat(gain, 'f', 6, 64))
}

func soxTrimSilence(v *values) []Step {
	t := formatNum(v.threshold) + "d"
	return soxStep(v,
		"silence", "1", "0.1", t,
		"reverse",
		"silence", "1", "0.1", t,
		"reverse")
}

func soxFade(v *values) []Step {
	effects := []string{"fade", "h", formatNum(v.fadeIn)}
	if v.fadeOut > 0 {
		effects = append(effects, "-0", formatNum(v.fadeOut))
	}
	return soxStep(v, effects...)
}

func soxSpeed(v *values) []Step {
	effect := "speed"
	if v.preservePitch {
		effect = "tempo"
	}
	return soxStep(v, effect, formatNum(v.factor))
}

func soxMerge(v *values) []Step {
	args := append(append([]string(nil), v.inputs...), v.output)
	return []Step{{Args: args, Output: v.output}}
}

func soxChannels(v *values) []Step {
	return soxStep(v, "channels", strconv.Itoa(v.channels))
}

func soxSampleRate(v *values) []Step {
	return soxStep(v, "rate", strconv.Itoa(v.rate))
}

func soxEQ(v *values) []Step {
	switch v.preset {
	case "bass":
		return soxStep(v, "bass", "+10")
	case "treble":
		return soxStep(v, "treble", "+5")
	case "vocal":
		return soxStep(v, "equalizer", "1000", "2q", "+3", "equalizer", "3000", "1q", "+2")
	case "loudness":
		return soxStep(v, "loudness")
	}
	return soxStep(v)
}

func soxReverse(v *values) []Step { return soxStep(v, "reverse") }

// splitOutputs names the left and right files of a split in v.outDir,
// which defaults to the input's directory.
func splitOutputs(v *values) (left, right string) {
	dir := v.outDir
	if dir == "" {
		dir = filepath.Dir(v.input())
	}
	return naming.DeriveIn(dir, v.input(), "left", ""), naming.DeriveIn(dir, v.input(), "right", "")
}
