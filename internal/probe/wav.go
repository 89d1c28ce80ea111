package probe

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ErrNotWAV is returned by [ReadWAV] for files without a usable RIFF/WAVE
// header.
var ErrNotWAV = errors.New("not a valid WAV file")

// ReadWAV describes a WAV file from its header alone, so info and the
// dispatcher's duration lookup keep working on machines without ffprobe.
func ReadWAV(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotWAV, err)
		}
		return nil, ErrNotWAV
	}

	dur, err := d.Duration()
	if err != nil {
		return nil, fmt.Errorf("wav duration: %w", err)
	}

	info := &Info{
		Path:       path,
		Format:     "wav",
		FormatLong: "WAV / WAVE (Waveform Audio)",
		Duration:   dur.Seconds(),
		BitRate:    int64(d.AvgBytesPerSec) * 8,
		Source:     SourceWAV,
		Audio: &AudioStream{
			Codec:      pcmCodec(d.WavAudioFormat, int(d.BitDepth)),
			Channels:   int(d.NumChans),
			SampleRate: int(d.SampleRate),
			BitRate:    int64(d.AvgBytesPerSec) * 8,
			BitDepth:   int(d.BitDepth),
		},
	}
	if fi, err := f.Stat(); err == nil {
		info.Size = fi.Size()
	}
	return info, nil
}

// pcmCodec names the sample format the way ffprobe would.
func pcmCodec(format uint16, depth int) string {
	switch format {
	case 3:
		return fmt.Sprintf("pcm_f%dle", depth)
	case 1, 0xFFFE:
		if depth == 8 {
			return "pcm_u8"
		}
		return fmt.Sprintf("pcm_s%dle", depth)
	}
	return fmt.Sprintf("wav_0x%04x", format)
}
