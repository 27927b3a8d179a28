package bot

import (
	"strings"
	"time"
)

// Stat keys.
const (
	StatAppendCount    = "append_count"
	StatDuplicateCount = "duplicate_count"
)

// Track is the catalog independent view of a song: its title and the first credited artist.
type Track struct {
	name       string
	artistName string
}

// NewTrack builds a Track. Surrounding whitespace is dropped.
func NewTrack(name, artistName string) Track {
	return Track{
		name:       strings.TrimSpace(name),
		artistName: strings.TrimSpace(artistName),
	}
}

// Name returns the track title.
func (t Track) Name() string { return t.name }

// ArtistName returns the first credited artist only.
func (t Track) ArtistName() string { return t.artistName }

// IsZero reports whether the track carries no title.
func (t Track) IsZero() bool { return t.name == "" }

func (t Track) String() string {
	if t.artistName == "" {
		return t.name
	}
	return t.name + " - " + t.artistName
}

// Playlist is the catalog independent view of a playlist.
type Playlist struct {
	ID     string
	Name   string
	Link   string
	Tracks []Track
}

// ChatBinding is the persisted playlist configuration of one chat.
// An empty playlist id means the catalog is not bound.
type ChatBinding struct {
	ChatID    string
	ChatName  string
	Playlists map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlaylistFor returns the bound playlist id for a catalog.
func (b *ChatBinding) PlaylistFor(catalog string) (string, bool) {
	if b == nil || b.Playlists == nil {
		return "", false
	}
	id := strings.TrimSpace(b.Playlists[catalog])
	return id, id != ""
}

// HasAny reports whether at least one catalog is bound.
func (b *ChatBinding) HasAny() bool {
	if b == nil {
		return false
	}
	for _, id := range b.Playlists {
		if strings.TrimSpace(id) != "" {
			return true
		}
	}
	return false
}
