package platform

import (
	"context"
	"regexp"

	"github.com/spotelegramify/spotelegramify-go/bot"
)

// mockCatalog is a Catalog whose behaviour is set through func fields.
type mockCatalog struct {
	name            string
	meta            *Meta
	trackPattern    *regexp.Regexp
	albumPattern    *regexp.Regexp
	playlistPattern *regexp.Regexp

	lookupTrackFunc    func(ctx context.Context, id string) (*Track, error)
	lookupAlbumFunc    func(ctx context.Context, id string) (*Album, error)
	lookupPlaylistFunc func(ctx context.Context, id string) (*Playlist, error)
	searchFunc         func(ctx context.Context, track bot.Track) (*Track, error)
}

func (m *mockCatalog) Name() string                    { return m.name }
func (m *mockCatalog) TrackPattern() *regexp.Regexp    { return m.trackPattern }
func (m *mockCatalog) AlbumPattern() *regexp.Regexp    { return m.albumPattern }
func (m *mockCatalog) PlaylistPattern() *regexp.Regexp { return m.playlistPattern }
func (m *mockCatalog) RefreshAuth(context.Context) error {
	return nil
}

func (m *mockCatalog) LookupTrack(ctx context.Context, id string) (*Track, error) {
	if m.lookupTrackFunc != nil {
		return m.lookupTrackFunc(ctx, id)
	}
	return nil, NewNotFoundError(m.name, "track", id)
}

func (m *mockCatalog) LookupAlbum(ctx context.Context, id string) (*Album, error) {
	if m.lookupAlbumFunc != nil {
		return m.lookupAlbumFunc(ctx, id)
	}
	return nil, NewNotFoundError(m.name, "album", id)
}

func (m *mockCatalog) TrackFromAlbum(_ context.Context, album *Album) (*Track, error) {
	if album == nil || len(album.Tracks) == 0 {
		return nil, NewNotFoundError(m.name, "album", "")
	}
	return &album.Tracks[0], nil
}

func (m *mockCatalog) LookupPlaylist(ctx context.Context, id string) (*Playlist, error) {
	if m.lookupPlaylistFunc != nil {
		return m.lookupPlaylistFunc(ctx, id)
	}
	return nil, NewNotFoundError(m.name, "playlist", id)
}

func (m *mockCatalog) SearchTrack(ctx context.Context, track bot.Track) (*Track, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, track)
	}
	return nil, NewNotFoundError(m.name, "track", track.String())
}

func (m *mockCatalog) PlaylistContainsTrack(context.Context, string, *Track) (bool, error) {
	return false, nil
}

func (m *mockCatalog) AddToPlaylist(context.Context, *Playlist, *Track) (AppendResult, error) {
	return Appended, nil
}

func (m *mockCatalog) ConvertTrack(track *Track) bot.Track { return ConvertTrack(track) }

func (m *mockCatalog) ConvertPlaylist(playlist *Playlist) bot.Playlist {
	return ConvertPlaylist(playlist)
}

// metaCatalog adds MetadataProvider on top of mockCatalog.
type metaCatalog struct {
	*mockCatalog
}

func (m metaCatalog) Metadata() Meta { return *m.meta }

var (
	testSpotifyTrack    = regexp.MustCompile(`spotify\.com/(?:intl-[a-z]{2}/)?track/([a-zA-Z0-9]{22})`)
	testSpotifyAlbum    = regexp.MustCompile(`spotify\.com/(?:intl-[a-z]{2}/)?album/([a-zA-Z0-9]{22})`)
	testSpotifyPlaylist = regexp.MustCompile(`spotify\.com/(?:intl-[a-z]{2}/)?playlist/([a-zA-Z0-9]{22})`)
	testTidalTrack      = regexp.MustCompile(`tidal\.com/(?:[^\s/]+/)*track/(\d+)`)
	testTidalAlbum      = regexp.MustCompile(`tidal\.com/(?:[^\s/]+/)*album/(\d+)`)
	testTidalPlaylist   = regexp.MustCompile(`tidal\.com/(?:[^\s/]+/)*playlist/([0-9a-fA-F-]{36})`)
)

func newSpotifyMock() *mockCatalog {
	return &mockCatalog{
		name:            "spotify",
		trackPattern:    testSpotifyTrack,
		albumPattern:    testSpotifyAlbum,
		playlistPattern: testSpotifyPlaylist,
	}
}

func newTidalMock() *mockCatalog {
	return &mockCatalog{
		name:            "tidal",
		trackPattern:    testTidalTrack,
		albumPattern:    testTidalAlbum,
		playlistPattern: testTidalPlaylist,
	}
}
