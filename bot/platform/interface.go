package platform

import (
	"context"
	"regexp"

	"github.com/spotelegramify/spotelegramify-go/bot"
)

// AppendResult is the outcome of a successful AddToPlaylist call.
type AppendResult int

const (
	// Appended means the track was added by this call.
	Appended AppendResult = iota + 1
	// AlreadyPresent means the playlist already held the track and nothing was changed.
	AlreadyPresent
)

func (r AppendResult) String() string {
	switch r {
	case Appended:
		return "appended"
	case AlreadyPresent:
		return "already_present"
	default:
		return "unknown"
	}
}

// Catalog is a remote music catalog the bot can read from and append to.
// Every method that talks to the network returns ErrNotFound (wrapped) when the
// catalog has no such resource.
type Catalog interface {
	// Name returns the catalog's unique identifier ("spotify", "tidal").
	Name() string

	// TrackPattern matches track links; the first capture group is the native id.
	TrackPattern() *regexp.Regexp

	// AlbumPattern matches album links; the first capture group is the native id.
	AlbumPattern() *regexp.Regexp

	// PlaylistPattern matches playlist links; the first capture group is the native id.
	PlaylistPattern() *regexp.Regexp

	// RefreshAuth renews the credential used for playlist mutations.
	// It is safe to call before every mutation.
	RefreshAuth(ctx context.Context) error

	LookupTrack(ctx context.Context, id string) (*Track, error)

	LookupAlbum(ctx context.Context, id string) (*Album, error)

	// TrackFromAlbum returns the first track of the album in catalog order.
	TrackFromAlbum(ctx context.Context, album *Album) (*Track, error)

	LookupPlaylist(ctx context.Context, id string) (*Playlist, error)

	// SearchTrack returns the catalog's top hit for the track's name and artist.
	SearchTrack(ctx context.Context, track bot.Track) (*Track, error)

	// PlaylistContainsTrack fetches the whole playlist and compares native ids.
	PlaylistContainsTrack(ctx context.Context, playlistID string, track *Track) (bool, error)

	// AddToPlaylist refreshes auth, checks membership and appends only when absent.
	AddToPlaylist(ctx context.Context, playlist *Playlist, track *Track) (AppendResult, error)

	ConvertTrack(track *Track) bot.Track

	ConvertPlaylist(playlist *Playlist) bot.Playlist
}

// Manager keeps the set of configured catalogs.
type Manager interface {
	Register(catalog Catalog) error

	Get(name string) Catalog

	// List returns catalog names in registration order.
	List() []string

	// ExtractLinks returns every track and album link of every catalog in text order.
	ExtractLinks(text string) []Link

	// MatchPlaylist finds the first playlist link in text.
	MatchPlaylist(text string) (catalog, playlistID string, matched bool)

	ResolveAlias(alias string) (catalog string, matched bool)

	Meta(name string) (Meta, bool)

	ListMeta() []Meta
}

// ConvertTrack projects a native track onto the canonical value object.
// Only the first credited artist is kept.
func ConvertTrack(track *Track) bot.Track {
	if track == nil {
		return bot.Track{}
	}
	return bot.NewTrack(track.Title, track.PrimaryArtist())
}

// ConvertPlaylist projects a native playlist onto the canonical value object.
func ConvertPlaylist(playlist *Playlist) bot.Playlist {
	if playlist == nil {
		return bot.Playlist{}
	}
	tracks := make([]bot.Track, 0, len(playlist.Tracks))
	for i := range playlist.Tracks {
		tracks = append(tracks, ConvertTrack(&playlist.Tracks[i]))
	}
	return bot.Playlist{
		ID:     playlist.ID,
		Name:   playlist.Title,
		Link:   playlist.URL,
		Tracks: tracks,
	}
}
