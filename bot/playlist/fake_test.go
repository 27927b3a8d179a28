package playlist

import (
	"context"
	"errors"
	"regexp"
	"sync"

	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

// fakeCatalog is an in-memory catalog that honours the append contract.
type fakeCatalog struct {
	name            string
	trackPattern    *regexp.Regexp
	albumPattern    *regexp.Regexp
	playlistPattern *regexp.Regexp

	mu        sync.Mutex
	tracks    map[string]*platform.Track
	albums    map[string]*platform.Album
	playlists map[string]*platform.Playlist
	search    map[string]*platform.Track
	searchErr error
	addErr    error
	refreshes int
	adds      int
	searches  int
}

func newFakeCatalog(name string, track, album, playlist *regexp.Regexp) *fakeCatalog {
	return &fakeCatalog{
		name:            name,
		trackPattern:    track,
		albumPattern:    album,
		playlistPattern: playlist,
		tracks:          make(map[string]*platform.Track),
		albums:          make(map[string]*platform.Album),
		playlists:       make(map[string]*platform.Playlist),
		search:          make(map[string]*platform.Track),
	}
}

func newFakeSpotify() *fakeCatalog {
	return newFakeCatalog("spotify",
		regexp.MustCompile(`spotify\.com/(?:intl-[a-z]{2}/)?track/([a-zA-Z0-9]{22})`),
		regexp.MustCompile(`spotify\.com/(?:intl-[a-z]{2}/)?album/([a-zA-Z0-9]{22})`),
		regexp.MustCompile(`spotify\.com/(?:intl-[a-z]{2}/)?playlist/([a-zA-Z0-9]{22})`))
}

func newFakeTidal() *fakeCatalog {
	return newFakeCatalog("tidal",
		regexp.MustCompile(`tidal\.com/(?:[^\s/]+/)*track/(\d+)`),
		regexp.MustCompile(`tidal\.com/(?:[^\s/]+/)*album/(\d+)`),
		regexp.MustCompile(`tidal\.com/(?:[^\s/]+/)*playlist/([0-9a-fA-F-]{36})`))
}

func (f *fakeCatalog) addTrack(id, title, artist string) *platform.Track {
	t := &platform.Track{
		ID:       id,
		Platform: f.name,
		Title:    title,
		Artists:  []platform.Artist{{Name: artist}},
	}
	f.tracks[id] = t
	return t
}

func (f *fakeCatalog) addPlaylist(id, title string) *platform.Playlist {
	p := &platform.Playlist{ID: id, Platform: f.name, Title: title}
	f.playlists[id] = p
	return p
}

func (f *fakeCatalog) indexSearch(t *platform.Track) {
	f.search[platform.NormalizeQuery(t.Title+" "+t.PrimaryArtist())] = t
}

func (f *fakeCatalog) playlistLen(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.playlists[id].Tracks)
}

func (f *fakeCatalog) Name() string                    { return f.name }
func (f *fakeCatalog) TrackPattern() *regexp.Regexp    { return f.trackPattern }
func (f *fakeCatalog) AlbumPattern() *regexp.Regexp    { return f.albumPattern }
func (f *fakeCatalog) PlaylistPattern() *regexp.Regexp { return f.playlistPattern }

func (f *fakeCatalog) RefreshAuth(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeCatalog) LookupTrack(_ context.Context, id string) (*platform.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tracks[id]; ok {
		return t, nil
	}
	return nil, platform.NewNotFoundError(f.name, "track", id)
}

func (f *fakeCatalog) LookupAlbum(_ context.Context, id string) (*platform.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.albums[id]; ok {
		return a, nil
	}
	return nil, platform.NewNotFoundError(f.name, "album", id)
}

func (f *fakeCatalog) TrackFromAlbum(_ context.Context, album *platform.Album) (*platform.Track, error) {
	if album == nil || len(album.Tracks) == 0 {
		return nil, platform.NewNotFoundError(f.name, "album", "")
	}
	return &album.Tracks[0], nil
}

func (f *fakeCatalog) LookupPlaylist(_ context.Context, id string) (*platform.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.playlists[id]; ok {
		copied := *p
		copied.Tracks = append([]platform.Track(nil), p.Tracks...)
		return &copied, nil
	}
	return nil, platform.NewNotFoundError(f.name, "playlist", id)
}

func (f *fakeCatalog) SearchTrack(_ context.Context, track botpkg.Track) (*platform.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if t, ok := f.search[platform.NormalizeQuery(track.Name()+" "+track.ArtistName())]; ok {
		return t, nil
	}
	return nil, platform.NewNotFoundError(f.name, "track", track.String())
}

func (f *fakeCatalog) PlaylistContainsTrack(_ context.Context, playlistID string, track *platform.Track) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[playlistID]
	if !ok {
		return false, platform.NewNotFoundError(f.name, "playlist", playlistID)
	}
	for _, t := range p.Tracks {
		if t.ID == track.ID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) AddToPlaylist(ctx context.Context, playlist *platform.Playlist, track *platform.Track) (platform.AppendResult, error) {
	if err := f.RefreshAuth(ctx); err != nil {
		return 0, err
	}
	present, err := f.PlaylistContainsTrack(ctx, playlist.ID, track)
	if err != nil {
		return 0, err
	}
	if present {
		return platform.AlreadyPresent, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return 0, f.addErr
	}
	f.adds++
	p := f.playlists[playlist.ID]
	p.Tracks = append(p.Tracks, *track)
	return platform.Appended, nil
}

func (f *fakeCatalog) ConvertTrack(track *platform.Track) botpkg.Track {
	return platform.ConvertTrack(track)
}

func (f *fakeCatalog) ConvertPlaylist(playlist *platform.Playlist) botpkg.Playlist {
	return platform.ConvertPlaylist(playlist)
}

// memRepo is an in-memory binding and stat store.
type memRepo struct {
	mu       sync.Mutex
	bindings map[string]map[string]string
	stats    map[string]int64
	err      error
}

func newMemRepo() *memRepo {
	return &memRepo{
		bindings: make(map[string]map[string]string),
		stats:    make(map[string]int64),
	}
}

func (r *memRepo) GetBinding(_ context.Context, chatID, catalog string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", false, r.err
	}
	id, ok := r.bindings[chatID][catalog]
	return id, ok && id != "", nil
}

func (r *memRepo) SetBinding(_ context.Context, chatID, _ string, catalog, playlistID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bindings[chatID] == nil {
		r.bindings[chatID] = make(map[string]string)
	}
	r.bindings[chatID][catalog] = playlistID
	return nil
}

func (r *memRepo) GetChat(_ context.Context, chatID string) (*botpkg.ChatBinding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	playlists, ok := r.bindings[chatID]
	if !ok {
		return nil, nil
	}
	return &botpkg.ChatBinding{ChatID: chatID, Playlists: playlists}, nil
}

func (r *memRepo) EnsureChat(_ context.Context, chatID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bindings[chatID] == nil {
		r.bindings[chatID] = make(map[string]string)
	}
	return nil
}

func (r *memRepo) CountChats(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.bindings)), nil
}

func (r *memRepo) IncrementStat(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[key]++
	return nil
}

func (r *memRepo) GetStat(_ context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats[key], nil
}

var errBoom = errors.New("boom")
