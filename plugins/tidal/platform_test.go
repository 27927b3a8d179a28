package tidal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rickID     = 77646170
	albumID    = 77646168
	playlistID = "0b7b2f1e-52a4-4b5e-9c3f-5a1b2c3d4e5f"
)

// fakeTidal serves the v1 endpoints the adapter calls plus the OAuth2 token endpoint.
type fakeTidal struct {
	t  *testing.T
	mu sync.Mutex

	playlist    []int64
	version     int
	queries     []string
	countries   []string
	tokens      []string
	refreshes   int
	adds        int
	topHit      bool
	staleOnce   bool
	rejectDupes bool
	status      int
}

func newFakeTidal(t *testing.T) (*fakeTidal, *httptest.Server) {
	f := &fakeTidal{t: t, topHit: true}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", f.token)
	mux.HandleFunc("/v1/", f.api)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return f, server
}

func trackBody(id int64, title, artist string) map[string]any {
	return map[string]any{
		"id":       id,
		"title":    title,
		"duration": 213,
		"isrc":     "GBARL9300135",
		"artist":   map[string]any{"id": 1, "name": artist},
		"artists":  []map[string]any{{"id": 1, "name": artist}},
		"album":    map[string]any{"id": albumID, "title": "Whenever You Need Somebody"},
	}
}

func (f *fakeTidal) token(w http.ResponseWriter, r *http.Request) {
	require.NoError(f.t, r.ParseForm())
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("refresh_token") != "tidal-refresh" || r.PostForm.Get("client_id") != "tidal-client" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
		return
	}
	f.refreshes++
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": fmt.Sprintf("access-%d", f.refreshes),
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (f *fakeTidal) api(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, r.Header.Get("Authorization"))
	f.countries = append(f.countries, r.URL.Query().Get("countryCode"))
	if f.status != 0 {
		writeJSON(w, f.status, map[string]any{"status": f.status, "userMessage": "forced"})
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/"), "/"), "/")
	switch {
	case parts[0] == "tracks" && len(parts) == 2:
		if parts[1] != strconv.Itoa(rickID) {
			writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "userMessage": "Track not found"})
			return
		}
		writeJSON(w, http.StatusOK, trackBody(rickID, "Never Gonna Give You Up", "Rick Astley"))
	case parts[0] == "albums" && len(parts) == 2:
		writeJSON(w, http.StatusOK, map[string]any{
			"id": albumID, "title": "Whenever You Need Somebody", "numberOfTracks": 10,
			"artist": map[string]any{"id": 1, "name": "Rick Astley"},
		})
	case parts[0] == "albums" && len(parts) == 3:
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{trackBody(rickID, "Never Gonna Give You Up", "Rick Astley")}, "totalNumberOfItems": 10})
	case parts[0] == "search":
		q := r.URL.Query().Get("query")
		f.queries = append(f.queries, q)
		assert.Equal(f.t, "TRACKS", r.URL.Query().Get("types"))
		if !strings.Contains(q, "never gonna") {
			writeJSON(w, http.StatusOK, map[string]any{"tracks": map[string]any{"items": []any{}}})
			return
		}
		body := map[string]any{"tracks": map[string]any{"items": []any{trackBody(1, "Never Gonna Give You Up (Live)", "Rick Astley")}}}
		if f.topHit {
			body["topHit"] = map[string]any{"type": "TRACKS", "value": trackBody(rickID, "Never Gonna Give You Up", "Rick Astley")}
		} else {
			body["topHit"] = map[string]any{"type": "ARTISTS", "value": map[string]any{"id": 1, "name": "Rick Astley"}}
		}
		writeJSON(w, http.StatusOK, body)
	case parts[0] == "playlists" && len(parts) == 2:
		if parts[1] != playlistID {
			writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "userMessage": "Playlist not found"})
			return
		}
		w.Header().Set("ETag", f.etag())
		writeJSON(w, http.StatusOK, map[string]any{
			"uuid": playlistID, "title": "Friends Mix", "numberOfTracks": len(f.playlist),
			"creator": map[string]any{"id": 9, "name": "alice"},
		})
	case parts[0] == "playlists" && parts[2] == "tracks":
		f.servePlaylistTracks(w, r)
	case parts[0] == "playlists" && parts[2] == "items" && r.Method == http.MethodPost:
		f.addItems(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "userMessage": "unknown " + r.URL.Path})
	}
}

func (f *fakeTidal) etag() string {
	return fmt.Sprintf(`"%d"`, f.version)
}

func (f *fakeTidal) servePlaylistTracks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	var items []any
	for i := offset; i < len(f.playlist) && i < offset+limit; i++ {
		items = append(items, trackBody(f.playlist[i], "Track", "Artist"))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit, "offset": offset, "totalNumberOfItems": len(f.playlist)})
}

func (f *fakeTidal) addItems(w http.ResponseWriter, r *http.Request) {
	require.NoError(f.t, r.ParseForm())
	assert.Equal(f.t, "FAIL", r.PostForm.Get("onDupes"))
	assert.Equal(f.t, "FAIL", r.PostForm.Get("onArtifactNotFound"))
	if f.staleOnce {
		f.staleOnce = false
		f.version++
	}
	if r.Header.Get("If-None-Match") != f.etag() {
		writeJSON(w, http.StatusPreconditionFailed, map[string]any{"status": 412, "userMessage": "etag mismatch"})
		return
	}
	id, err := strconv.ParseInt(r.PostForm.Get("trackIds"), 10, 64)
	require.NoError(f.t, err)
	if f.rejectDupes {
		writeJSON(w, http.StatusConflict, map[string]any{"status": 409, "userMessage": "duplicate"})
		return
	}
	f.playlist = append(f.playlist, id)
	f.version++
	f.adds++
	w.Header().Set("ETag", f.etag())
	writeJSON(w, http.StatusOK, map[string]any{"lastUpdated": 1})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestPlatform(t *testing.T, opts Options) (*TidalPlatform, *fakeTidal) {
	t.Helper()
	fake, server := newFakeTidal(t)
	opts.APIURL = server.URL + "/v1"
	opts.TokenURL = server.URL + "/oauth2/token"
	opts.HTTPClient = server.Client()
	client, err := New(opts, nil)
	require.NoError(t, err)
	return NewPlatform(client, nil), fake
}

func refreshOptions() Options {
	return Options{ClientID: "tidal-client", AccessToken: "stale", RefreshToken: "tidal-refresh", CountryCode: "no"}
}

func TestNewValidatesCredentials(t *testing.T) {
	_, err := New(Options{}, nil)
	assert.Error(t, err)
	_, err = New(Options{RefreshToken: "x"}, nil)
	assert.Error(t, err, "refreshing needs a client id")
	_, err = New(Options{AccessToken: "x"}, nil)
	assert.NoError(t, err)
}

func TestLookupTrack(t *testing.T) {
	p, fake := newTestPlatform(t, Options{AccessToken: "static"})
	track, err := p.LookupTrack(context.Background(), strconv.Itoa(rickID))
	require.NoError(t, err)

	assert.Equal(t, "77646170", track.ID)
	assert.Equal(t, "tidal", track.Platform)
	assert.Equal(t, "Rick Astley", track.PrimaryArtist())
	assert.Equal(t, "GBARL9300135", track.ISRC)
	assert.Equal(t, "https://tidal.com/browse/track/77646170", track.URL)
	assert.Equal(t, bot.NewTrack("Never Gonna Give You Up", "Rick Astley"), p.ConvertTrack(track))
	assert.Equal(t, []string{"Bearer static"}, fake.tokens)
	assert.Equal(t, []string{"US"}, fake.countries)

	_, err = p.LookupTrack(context.Background(), "1")
	assert.True(t, platform.IsNotFound(err))
}

func TestLookupAlbumFirstTrack(t *testing.T) {
	p, _ := newTestPlatform(t, Options{AccessToken: "static"})
	album, err := p.LookupAlbum(context.Background(), strconv.Itoa(albumID))
	require.NoError(t, err)
	assert.Equal(t, "Whenever You Need Somebody", album.Title)
	assert.Equal(t, "Rick Astley", album.Artists[0].Name)

	first, err := p.TrackFromAlbum(context.Background(), album)
	require.NoError(t, err)
	assert.Equal(t, "77646170", first.ID)
}

func TestSearchPrefersTopHit(t *testing.T) {
	p, fake := newTestPlatform(t, Options{AccessToken: "static"})
	hit, err := p.SearchTrack(context.Background(), bot.NewTrack("Never Gonna Give You Up", "Rick Astley"))
	require.NoError(t, err)
	assert.Equal(t, "77646170", hit.ID)
	assert.Equal(t, []string{"never gonna give you up rick astley"}, fake.queries)

	fake.topHit = false
	hit, err = p.SearchTrack(context.Background(), bot.NewTrack("Never Gonna Give You Up", "Rick Astley"))
	require.NoError(t, err)
	assert.Equal(t, "1", hit.ID, "non-track top hits fall back to the first track item")

	_, err = p.SearchTrack(context.Background(), bot.NewTrack("Unknown", "Nobody"))
	assert.True(t, platform.IsNotFound(err))
}

func TestRefreshAuth(t *testing.T) {
	p, fake := newTestPlatform(t, refreshOptions())
	require.NoError(t, p.RefreshAuth(context.Background()))
	_, err := p.LookupTrack(context.Background(), strconv.Itoa(rickID))
	require.NoError(t, err)

	assert.Equal(t, 1, fake.refreshes)
	assert.Equal(t, []string{"Bearer access-1"}, fake.tokens)
	assert.Equal(t, []string{"NO"}, fake.countries)
}

func TestRefreshAuthStaticToken(t *testing.T) {
	p, fake := newTestPlatform(t, Options{AccessToken: "static"})
	require.NoError(t, p.RefreshAuth(context.Background()))
	assert.Zero(t, fake.refreshes)
}

func TestRefreshAuthRejected(t *testing.T) {
	opts := refreshOptions()
	opts.RefreshToken = "revoked"
	p, _ := newTestPlatform(t, opts)
	assert.Error(t, p.RefreshAuth(context.Background()))
}

func TestLookupPlaylistCarriesETag(t *testing.T) {
	p, _ := newTestPlatform(t, Options{AccessToken: "static"})
	playlist, err := p.LookupPlaylist(context.Background(), playlistID)
	require.NoError(t, err)
	assert.Equal(t, "Friends Mix", playlist.Title)
	assert.Equal(t, "alice", playlist.Creator)
	assert.Equal(t, `"0"`, playlist.Revision)
	assert.Equal(t, "https://tidal.com/browse/playlist/"+playlistID, playlist.URL)

	_, err = p.LookupPlaylist(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.True(t, platform.IsNotFound(err))
}

func TestAddToPlaylistIsIdempotent(t *testing.T) {
	p, fake := newTestPlatform(t, refreshOptions())
	ctx := context.Background()
	playlist, err := p.LookupPlaylist(ctx, playlistID)
	require.NoError(t, err)
	track := &platform.Track{ID: strconv.Itoa(rickID), Platform: "tidal"}

	result, err := p.AddToPlaylist(ctx, playlist, track)
	require.NoError(t, err)
	assert.Equal(t, platform.Appended, result)

	result, err = p.AddToPlaylist(ctx, playlist, track)
	require.NoError(t, err)
	assert.Equal(t, platform.AlreadyPresent, result)

	assert.Equal(t, []int64{rickID}, fake.playlist)
	assert.Equal(t, 2, fake.refreshes)
}

func TestAddToPlaylistUsesFreshETag(t *testing.T) {
	p, fake := newTestPlatform(t, Options{AccessToken: "static"})
	ctx := context.Background()
	playlist, err := p.LookupPlaylist(ctx, playlistID)
	require.NoError(t, err)

	for _, id := range []string{"11", "12"} {
		result, err := p.AddToPlaylist(ctx, playlist, &platform.Track{ID: id})
		require.NoError(t, err)
		assert.Equal(t, platform.Appended, result)
	}
	assert.Equal(t, []int64{11, 12}, fake.playlist)
}

func TestAddToPlaylistRetriesStaleETag(t *testing.T) {
	p, fake := newTestPlatform(t, Options{AccessToken: "static"})
	fake.staleOnce = true

	result, err := p.AddToPlaylist(context.Background(), &platform.Playlist{ID: playlistID}, &platform.Track{ID: "11"})
	require.NoError(t, err)
	assert.Equal(t, platform.Appended, result)
	assert.Equal(t, 1, fake.adds)
}

func TestAddToPlaylistDuplicateRejection(t *testing.T) {
	p, fake := newTestPlatform(t, Options{AccessToken: "static"})
	fake.rejectDupes = true

	result, err := p.AddToPlaylist(context.Background(), &platform.Playlist{ID: playlistID}, &platform.Track{ID: "11"})
	require.NoError(t, err)
	assert.Equal(t, platform.AlreadyPresent, result)
	assert.Empty(t, fake.playlist)
}

func TestPlaylistContainsTrackPages(t *testing.T) {
	p, fake := newTestPlatform(t, Options{AccessToken: "static"})
	for i := int64(1); i <= 230; i++ {
		fake.playlist = append(fake.playlist, i)
	}
	found, err := p.PlaylistContainsTrack(context.Background(), playlistID, &platform.Track{ID: "225"})
	require.NoError(t, err)
	assert.True(t, found)

	found, err = p.PlaylistContainsTrack(context.Background(), playlistID, &platform.Track{ID: "999"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, platform.ErrAuthRequired},
		{http.StatusForbidden, platform.ErrAuthRequired},
		{http.StatusTooManyRequests, platform.ErrRateLimited},
		{http.StatusInternalServerError, nil},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p, fake := newTestPlatform(t, Options{AccessToken: "static"})
			fake.status = tt.status
			_, err := p.LookupTrack(context.Background(), strconv.Itoa(rickID))
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			assert.False(t, platform.IsNotFound(err))
			assert.Contains(t, err.Error(), "HTTP 500")
		})
	}
}

func TestPatterns(t *testing.T) {
	p := NewPlatform(nil, nil)
	assert.Equal(t, []string{"77646170"}, platform.FindTrackIDs("https://tidal.com/browse/track/77646170?u", p.TrackPattern()))
	assert.Equal(t, []string{"77646170"}, platform.FindTrackIDs("https://listen.tidal.com/track/77646170", p.TrackPattern()))
	assert.Equal(t, []string{"77646168"}, platform.FindAlbumIDs("https://tidal.com/album/77646168", p.AlbumPattern()))
	assert.Equal(t, []string{playlistID}, platform.FindTrackIDs("https://tidal.com/browse/playlist/"+playlistID, p.PlaylistPattern()))
}
