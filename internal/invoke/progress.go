package invoke

import (
	"bytes"
	"io"
	"strconv"
	"strings"
)

// Observer receives overall progress in percent, 0 to 100, non-decreasing.
type Observer interface {
	Progress(percent float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(percent float64)

func (f ObserverFunc) Progress(percent float64) { f(percent) }

// tracker maps one step's completed fraction onto the whole invocation.
type tracker struct {
	obs   Observer
	index int
	steps int
	last  float64
}

func (t *tracker) update(fraction float64) {
	if t.obs == nil || t.steps == 0 {
		return
	}
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	pct := (float64(t.index) + fraction) / float64(t.steps) * 100
	if pct > t.last {
		t.last = pct
		t.obs.Progress(pct)
	}
}

// ffmpegProgress parses the key=value stream ffmpeg writes with
// "-progress pipe:1". Position is reported as out_time_us (older builds
// also emit out_time_ms, which is microseconds despite the name).
type ffmpegProgress struct {
	t        *tracker
	duration float64
	pending  []byte
}

func newFFmpegProgress(t *tracker, duration float64) *ffmpegProgress {
	return &ffmpegProgress{t: t, duration: duration}
}

func (p *ffmpegProgress) Write(b []byte) (int, error) {
	p.pending = append(p.pending, b...)
	for {
		i := bytes.IndexByte(p.pending, '\n')
		if i < 0 {
			break
		}
		p.line(strings.TrimSpace(string(p.pending[:i])))
		p.pending = p.pending[i+1:]
	}
	return len(b), nil
}

func (p *ffmpegProgress) line(l string) {
	key, val, ok := strings.Cut(l, "=")
	if !ok {
		return
	}
	switch key {
	case "out_time_us", "out_time_ms":
		if p.duration <= 0 {
			return
		}
		us, err := strconv.ParseInt(val, 10, 64)
		if err != nil || us < 0 {
			return
		}
		p.t.update(float64(us) / 1e6 / p.duration)
	case "progress":
		if val == "end" {
			p.t.update(1)
		}
	}
}

// soxStatus splits SoX's stderr on carriage returns and newlines. Status
// segments ("In:12.34% 00:00:01.02 [...]") drive the tracker; everything
// else is kept as diagnostics and optionally echoed.
type soxStatus struct {
	t       *tracker
	diag    *bytes.Buffer
	tee     io.Writer
	pending []byte
}

func newSoxStatus(t *tracker, diag *bytes.Buffer, tee io.Writer) *soxStatus {
	return &soxStatus{t: t, diag: diag, tee: tee}
}

func (s *soxStatus) Write(b []byte) (int, error) {
	s.pending = append(s.pending, b...)
	for {
		i := bytes.IndexAny(s.pending, "\r\n")
		if i < 0 {
			break
		}
		s.segment(string(s.pending[:i]))
		s.pending = s.pending[i+1:]
	}
	return len(b), nil
}

// Flush handles a trailing segment with no terminator.
func (s *soxStatus) Flush() {
	if len(s.pending) > 0 {
		s.segment(string(s.pending))
		s.pending = nil
	}
}

func (s *soxStatus) segment(seg string) {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return
	}
	if rest, ok := strings.CutPrefix(seg, "In:"); ok {
		if pct, ok := leadingPercent(rest); ok {
			s.t.update(pct / 100)
		}
		return
	}
	s.diag.WriteString(seg + "\n")
	if s.tee != nil {
		io.WriteString(s.tee, seg+"\n")
	}
}

func leadingPercent(s string) (float64, bool) {
	end := strings.IndexByte(s, '%')
	if end < 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s[:end]), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
