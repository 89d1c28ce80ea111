package display

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/agaudioflow/audioflow/internal/probe"
	"github.com/agaudioflow/audioflow/internal/term"
)

// PrintInfo writes the info report for one file.
func PrintInfo(w io.Writer, info *probe.Info, tags probe.Tags) {
	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "  %s%-12s%s %s\n", term.Bold, label+":", term.NC, value)
	}

	fmt.Fprintf(w, "%s%s%s\n", term.Cyan, filepath.Base(info.Path), term.NC)
	format := info.Format
	if info.FormatLong != "" && info.FormatLong != info.Format {
		format += " (" + info.FormatLong + ")"
	}
	row("Format", format)
	row("Duration", FormatDuration(info.Duration))
	if info.Size > 0 {
		row("Size", FormatBytes(info.Size))
	}
	row("Bitrate", FormatBitrate(info.AudioBitRate()))
	if a := info.Audio; a != nil {
		row("Codec", a.Codec)
		row("Channels", ChannelLabel(a.Channels))
		if a.ChannelLayout != "" && a.ChannelLayout != "mono" && a.ChannelLayout != "stereo" {
			row("Layout", a.ChannelLayout)
		}
		if a.SampleRate > 0 {
			row("Sample rate", strconv.Itoa(a.SampleRate)+" Hz")
		}
		if a.BitDepth > 0 {
			row("Bit depth", strconv.Itoa(a.BitDepth)+" bit")
		}
	} else {
		row("Audio", "none")
	}
	row("Source", string(info.Source))

	if tags.Empty() {
		return
	}
	fmt.Fprintf(w, "  %sTags%s (%s)\n", term.Bold, term.NC, tags.Format)
	row("Title", tags.Title)
	row("Artist", tags.Artist)
	row("Album", tags.Album)
	row("Album artist", tags.AlbumArtist)
	row("Genre", tags.Genre)
	if tags.Year > 0 {
		row("Year", strconv.Itoa(tags.Year))
	}
	if tags.Track > 0 {
		track := strconv.Itoa(tags.Track)
		if tags.TrackTotal > 0 {
			track += "/" + strconv.Itoa(tags.TrackTotal)
		}
		row("Track", track)
	}
}
