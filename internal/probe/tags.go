package probe

import (
	"errors"
	"os"

	"github.com/dhowden/tag"
)

// ReadTags reads embedded metadata (ID3, MP4 atoms, Vorbis comments, FLAC)
// from path. Files without tags return an empty Tags and no error.
func ReadTags(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return Tags{}, nil
		}
		return Tags{}, err
	}

	track, total := m.Track()
	return Tags{
		Format:      string(m.Format()),
		FileType:    string(m.FileType()),
		Title:       m.Title(),
		Artist:      m.Artist(),
		Album:       m.Album(),
		AlbumArtist: m.AlbumArtist(),
		Genre:       m.Genre(),
		Year:        m.Year(),
		Track:       track,
		TrackTotal:  total,
	}, nil
}
