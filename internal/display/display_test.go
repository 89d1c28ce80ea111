package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agaudioflow/audioflow/internal/probe"
)

func TestProgress_NonTTYPrintsTenPercentSteps(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false)
	for _, pct := range []float64{0, 3, 9.9, 10, 12, 25, 99, 100, 100} {
		p.Progress(pct)
	}
	p.Finish()
	want := "Progress: 0%\nProgress: 10%\nProgress: 20%\nProgress: 90%\nProgress: 100%\n"
	if buf.String() != want {
		t.Errorf("output =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestProgress_TTYRedrawsInPlace(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, true)
	p.Progress(10.2)
	p.Progress(10.7)
	p.Progress(55)
	p.Finish()
	want := "\rProgress:  10%\rProgress:  55%\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestProgress_FinishWithoutUpdates(t *testing.T) {
	var buf bytes.Buffer
	NewProgress(&buf, true).Finish()
	if buf.Len() != 0 {
		t.Errorf("Finish wrote %q", buf.String())
	}
}

func TestPrintInfo(t *testing.T) {
	info := &probe.Info{
		Path:       "/music/track.mp3",
		Format:     "mp3",
		FormatLong: "MP2/3 (MPEG audio layer 2/3)",
		Duration:   205.4,
		Size:       4928307,
		Audio:      &probe.AudioStream{Codec: "mp3", Channels: 2, SampleRate: 44100, BitRate: 192000},
		Source:     probe.SourceFFprobe,
	}
	tags := probe.Tags{Format: "ID3v2.4", Title: "Song", Artist: "Band", Track: 3, TrackTotal: 12}

	var buf bytes.Buffer
	PrintInfo(&buf, info, tags)
	out := buf.String()
	for _, want := range []string{
		"track.mp3",
		"mp3 (MP2/3 (MPEG audio layer 2/3))",
		"3:25.40",
		"4.7 MiB",
		"192 kbps",
		"2 (stereo)",
		"44100 Hz",
		"Song",
		"Band",
		"3/12",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("PrintInfo output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintInfo_NoAudioNoTags(t *testing.T) {
	var buf bytes.Buffer
	PrintInfo(&buf, &probe.Info{Path: "clip.mp4", Format: "mov,mp4"}, probe.Tags{})
	out := buf.String()
	if !strings.Contains(out, "none") || strings.Contains(out, "Tags") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
