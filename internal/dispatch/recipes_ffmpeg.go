package dispatch

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FFmpeg recipes. Global options (banner, overwrite, progress) are
// prepended by the dispatcher.

func ffmpegFilter(v *values, filter string, extra ...string) []Step {
	args := []string{"-i", v.input()}
	if filter != "" {
		args = append(args, "-af", filter)
	}
	args = append(args, extra...)
	args = append(args, v.output)
	return []Step{{Args: args, Output: v.output}}
}

// codecArgs returns the encoder options for an output format.
func codecArgs(format string) []string {
	switch format {
	case "mp3":
		return []string{"-c:a", "libmp3lame", "-q:a", "2"}
	case "wav":
		return []string{"-c:a", "pcm_s16le"}
	case "aac":
		return []string{"-c:a", "aac", "-b:a", "192k"}
	case "flac":
		return []string{"-c:a", "flac"}
	case "ogg":
		return []string{"-c:a", "libvorbis", "-q:a", "5"}
	}
	return nil
}

func monoPan(method string) string {
	switch method {
	case "left":
		return "pan=mono|c0=c0"
	case "right":
		return "pan=mono|c0=c1"
	}
	return "pan=mono|c0=0.5*c0+0.5*c1"
}

func ffmpegStereoToMono(v *values) []Step {
	return ffmpegFilter(v, monoPan(v.method), "-ac", "1")
}

func ffmpegSplit(v *values) []Step {
	left, right := splitOutputs(v)
	return []Step{
		{Args: []string{"-i", v.input(), "-af", monoPan("left"), "-ac", "1", left}, Output: left},
		{Args: []string{"-i", v.input(), "-af", monoPan("right"), "-ac", "1", right}, Output: right},
	}
}

func ffmpegConvert(v *values) []Step {
	return ffmpegFilter(v, "", append([]string{"-vn"}, codecArgs(v.format)...)...)
}

func ffmpegNormalize(v *values) []Step {
	return ffmpegFilter(v, "loudnorm=I="+formatNum(v.target)+":TP=-2:LRA=7")
}

func ffmpegVolume(v *values) []Step {
	return ffmpegFilter(v, "volume="+formatNum(v.gainDB)+"dB")
}

func ffmpegTrimSilence(v *values) []Step {
	remove := "silenceremove=start_periods=1:start_duration=1:start_threshold=" +
		formatNum(v.threshold) + "dB:detection=peak"
	return ffmpegFilter(v, strings.Join([]string{remove, "areverse", remove, "areverse"}, ","))
}

func ffmpegFade(v *values) []Step {
	var filters []string
	if v.fadeIn > 0 {
		filters = append(filters, "afade=t=in:ss=0:d="+formatNum(v.fadeIn))
	}
	if v.fadeOut > 0 {
		start := math.Max(0, v.duration-v.fadeOut)
		filters = append(filters, "afade=t=out:st="+strconv.FormatFloat(start, 'f', 3, 64)+":d="+formatNum(v.fadeOut))
	}
	return ffmpegFilter(v, strings.Join(filters, ","))
}

func ffmpegSpeed(v *values) []Step {
	if v.preservePitch {
		steps := TempoSteps(v.factor)
		parts := make([]string, len(steps))
		for i, s := range steps {
			parts[i] = "atempo=" + strconv.FormatFloat(s, 'f', 6, 64)
		}
		return ffmpegFilter(v, strings.Join(parts, ","))
	}
	sr := v.sampleRate
	if sr <= 0 {
		sr = 44100
	}
	shifted := int(math.Round(float64(sr) * v.factor))
	return ffmpegFilter(v, fmt.Sprintf("asetrate=%d,aresample=%d", shifted, sr))
}

func ffmpegMerge(v *values) []Step {
	var args []string
	for _, in := range v.inputs {
		args = append(args, "-i", in)
	}
	n := len(v.inputs)
	var graph strings.Builder
	if v.crossfade > 0 {
		prev := "[0:a]"
		for i := 1; i < n; i++ {
			label := fmt.Sprintf("[a%d]", i)
			if i == n-1 {
				label = "[out]"
			}
			if i > 1 {
				graph.WriteString(";")
			}
			fmt.Fprintf(&graph, "%s[%d:a]acrossfade=d=%s:c1=tri:c2=tri%s", prev, i, formatNum(v.crossfade), label)
			prev = label
		}
	} else {
		for i := 0; i < n; i++ {
			fmt.Fprintf(&graph, "[%d:a]", i)
		}
		fmt.Fprintf(&graph, "concat=n=%d:v=0:a=1[out]", n)
	}
	args = append(args, "-filter_complex", graph.String(), "-map", "[out]", v.output)
	return []Step{{Args: args, Output: v.output}}
}

func ffmpegExtract(v *values) []Step {
	return ffmpegFilter(v, "", append([]string{"-vn"}, codecArgs(v.format)...)...)
}

func ffmpegChannels(v *values) []Step {
	return ffmpegFilter(v, "", "-ac", strconv.Itoa(v.channels))
}

func ffmpegSampleRate(v *values) []Step {
	return ffmpegFilter(v, "", "-ar", strconv.Itoa(v.rate))
}

var ffmpegPresets = map[string]string{
	"bass":     "bass=g=10:f=100:w=1",
	"treble":   "treble=g=5:f=5000:w=1",
	"vocal":    "equalizer=f=800:t=h:w=200:g=3,equalizer=f=3000:t=h:w=1000:g=2",
	"flat":     "equalizer=f=1000:t=h:w=1000:g=0",
	"loudness": "loudnorm=I=-16:TP=-1.5:LRA=11",
}

func ffmpegEQ(v *values) []Step {
	return ffmpegFilter(v, ffmpegPresets[v.preset])
}

func ffmpegReverse(v *values) []Step { return ffmpegFilter(v, "areverse") }
