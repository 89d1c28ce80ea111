package probe

// Source names where an [Info] came from.
type Source string

const (
	SourceFFprobe Source = "ffprobe"
	SourceWAV     Source = "wav-header"
)

// AudioStream holds the parsed properties of the first audio stream.
type AudioStream struct {
	Index         int
	Codec         string
	Channels      int
	ChannelLayout string
	SampleRate    int
	BitRate       int64
	BitDepth      int
}

// Info is the container-level and primary audio stream description of a
// media file. Audio is nil when the file has no audio stream.
type Info struct {
	Path       string
	Format     string // Short container name, e.g. "mp3" or "wav".
	FormatLong string
	Duration   float64 // Seconds; 0 when unknown.
	Size       int64
	BitRate    int64
	Audio      *AudioStream
	Tags       map[string]string
	Source     Source
}

// Channels returns the primary audio stream channel count, or 0.
func (i *Info) Channels() int {
	if i == nil || i.Audio == nil {
		return 0
	}
	return i.Audio.Channels
}

// SampleRate returns the primary audio stream sample rate, or 0.
func (i *Info) SampleRate() int {
	if i == nil || i.Audio == nil {
		return 0
	}
	return i.Audio.SampleRate
}

// AudioBitRate returns the audio stream bitrate in bits/sec, falling back
// to the container bitrate when the stream value is missing.
func (i *Info) AudioBitRate() int64 {
	if i == nil {
		return 0
	}
	if i.Audio != nil && i.Audio.BitRate > 0 {
		return i.Audio.BitRate
	}
	return i.BitRate
}

// Tags is the subset of embedded metadata shown by the info command.
type Tags struct {
	Format      string // Tag format, e.g. "ID3v2.4" or "VORBIS".
	FileType    string
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Genre       string
	Year        int
	Track       int
	TrackTotal  int
}

// Empty reports whether no descriptive field is set.
func (t Tags) Empty() bool {
	return t.Title == "" && t.Artist == "" && t.Album == "" &&
		t.AlbumArtist == "" && t.Genre == "" && t.Year == 0 && t.Track == 0
}
