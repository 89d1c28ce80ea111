package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNoProber is returned when ffprobe is missing and the file cannot be
// read natively.
var ErrNoProber = errors.New("ffprobe not available")

// Prober describes media files with a single ffprobe JSON call, falling
// back to reading WAV headers directly when ffprobe is missing.
type Prober struct {
	ffprobe string
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New returns a Prober that runs ffprobe at path. An empty path disables
// ffprobe and leaves only the WAV header reader.
func New(path string) *Prober {
	return &Prober{ffprobe: path, run: runOutput}
}

// NewForTests returns a Prober with injected process execution.
func NewForTests(path string, run func(ctx context.Context, name string, args ...string) ([]byte, error)) *Prober {
	return &Prober{ffprobe: path, run: run}
}

// Available reports whether ffprobe is configured.
func (p *Prober) Available() bool { return p.ffprobe != "" }

// Probe describes path. ffprobe is tried first; WAV files are still
// described when it is missing or fails.
func (p *Prober) Probe(ctx context.Context, path string) (*Info, error) {
	if p.ffprobe != "" {
		out, err := p.run(ctx, p.ffprobe,
			"-v", "quiet",
			"-print_format", "json",
			"-show_format", "-show_streams",
			path,
		)
		if err == nil {
			info, perr := ParseJSON(out)
			if perr == nil {
				info.Path = path
				return info, nil
			}
			err = perr
		}
		if isWAV(path) {
			if info, werr := ReadWAV(path); werr == nil {
				return info, nil
			}
		}
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	if isWAV(path) {
		return ReadWAV(path)
	}
	return nil, fmt.Errorf("%w: cannot describe %s", ErrNoProber, filepath.Base(path))
}

// FindFFprobe returns the ffprobe that ships next to ffmpegPath, else the
// one on PATH, else "".
func FindFFprobe(ffmpegPath string) string {
	if ffmpegPath != "" && filepath.IsAbs(ffmpegPath) {
		sibling := filepath.Join(filepath.Dir(ffmpegPath), "ffprobe")
		if fi, err := os.Stat(sibling); err == nil && !fi.IsDir() {
			return sibling
		}
	}
	if p, err := exec.LookPath("ffprobe"); err == nil {
		return p
	}
	return ""
}

// ParseJSON converts raw ffprobe JSON output into an Info.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Info, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildInfo(&raw), nil
}

func runOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func isWAV(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".wav" || ext == ".wave"
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename       string            `json:"filename"`
	FormatName     string            `json:"format_name"`
	FormatLongName string            `json:"format_long_name"`
	Duration       string            `json:"duration"`
	Size           string            `json:"size"`
	BitRate        string            `json:"bit_rate"`
	Tags           map[string]string `json:"tags"`
}

type ffprobeStream struct {
	Index            int    `json:"index"`
	CodecName        string `json:"codec_name"`
	CodecType        string `json:"codec_type"`
	Channels         int    `json:"channels"`
	ChannelLayout    string `json:"channel_layout"`
	SampleRate       string `json:"sample_rate"`
	BitRate          string `json:"bit_rate"`
	BitsPerSample    int    `json:"bits_per_sample"`
	BitsPerRawSample string `json:"bits_per_raw_sample"`
	Duration         string `json:"duration"`
}

// --- Conversion from wire types to domain types ---

func buildInfo(raw *ffprobeOutput) *Info {
	info := &Info{
		Path:       raw.Format.Filename,
		Format:     firstName(raw.Format.FormatName),
		FormatLong: raw.Format.FormatLongName,
		Duration:   parseFloat(raw.Format.Duration),
		Size:       parseInt64(raw.Format.Size),
		BitRate:    parseInt64(raw.Format.BitRate),
		Tags:       lowerKeys(raw.Format.Tags),
		Source:     SourceFFprobe,
	}
	for i := range raw.Streams {
		s := &raw.Streams[i]
		if s.CodecType != "audio" {
			continue
		}
		a := convertAudio(s)
		info.Audio = &a
		if info.Duration == 0 {
			info.Duration = parseFloat(s.Duration)
		}
		break
	}
	return info
}

func convertAudio(s *ffprobeStream) AudioStream {
	depth := s.BitsPerSample
	if depth == 0 {
		depth = parseInt(s.BitsPerRawSample)
	}
	return AudioStream{
		Index:         s.Index,
		Codec:         s.CodecName,
		Channels:      s.Channels,
		ChannelLayout: s.ChannelLayout,
		SampleRate:    parseInt(s.SampleRate),
		BitRate:       parseInt64(s.BitRate),
		BitDepth:      depth,
	}
}

// firstName picks "mov" out of ffprobe's "mov,mp4,m4a,3gp,3g2,mj2".
func firstName(s string) string {
	if i := strings.IndexByte(s, ','); i >= 0 {
		return s[:i]
	}
	return s
}

func lowerKeys(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
