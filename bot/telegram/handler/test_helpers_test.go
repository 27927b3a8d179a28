package handler

import (
	"context"
	"regexp"
	"sync"

	"github.com/mymmrac/telego"
	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

const (
	testChatID  int64 = -1001
	testAdminID int64 = 42
	testUserID  int64 = 7
)

type sentReply struct {
	chatID  int64
	replyTo int
	text    string
}

// stubReplier records replies instead of sending them.
type stubReplier struct {
	mu      sync.Mutex
	replies []sentReply
	err     error
}

func (r *stubReplier) Reply(_ context.Context, chatID int64, replyTo int, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, sentReply{chatID: chatID, replyTo: replyTo, text: text})
	return r.err
}

func (r *stubReplier) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.replies))
	for _, rep := range r.replies {
		out = append(out, rep.text)
	}
	return out
}

func (r *stubReplier) last() string {
	texts := r.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

// stubRepo is an in-memory binding and stat store.
type stubRepo struct {
	mu        sync.Mutex
	chats     map[string]*botpkg.ChatBinding
	stats     map[string]int64
	setErr    error
	setCalls  int
	ensureErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		chats: make(map[string]*botpkg.ChatBinding),
		stats: make(map[string]int64),
	}
}

func (r *stubRepo) GetBinding(_ context.Context, chatID, catalog string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.chats[chatID].PlaylistFor(catalog)
	return id, ok, nil
}

func (r *stubRepo) SetBinding(_ context.Context, chatID, chatName, catalog, playlistID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setCalls++
	if r.setErr != nil {
		return r.setErr
	}
	chat := r.ensure(chatID, chatName)
	chat.Playlists[catalog] = playlistID
	return nil
}

func (r *stubRepo) GetChat(_ context.Context, chatID string) (*botpkg.ChatBinding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chats[chatID], nil
}

func (r *stubRepo) EnsureChat(_ context.Context, chatID, chatName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ensureErr != nil {
		return r.ensureErr
	}
	r.ensure(chatID, chatName)
	return nil
}

func (r *stubRepo) ensure(chatID, chatName string) *botpkg.ChatBinding {
	chat, ok := r.chats[chatID]
	if !ok {
		chat = &botpkg.ChatBinding{ChatID: chatID, Playlists: make(map[string]string)}
		r.chats[chatID] = chat
	}
	if chatName != "" {
		chat.ChatName = chatName
	}
	return chat
}

func (r *stubRepo) CountChats(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.chats)), nil
}

func (r *stubRepo) IncrementStat(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[key]++
	return nil
}

func (r *stubRepo) GetStat(_ context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats[key], nil
}

func (r *stubRepo) binding(catalog string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, _ := r.chats[chatKey(testChatID)].PlaylistFor(catalog)
	return id
}

// stubCatalog serves playlists from memory. Only the calls handlers make are meaningful.
type stubCatalog struct {
	name            string
	meta            platform.Meta
	trackPattern    *regexp.Regexp
	playlistPattern *regexp.Regexp
	playlists       map[string]*platform.Playlist
	lookupErr       error
	refreshErr      error
	refreshes       int
}

func newStubSpotify() *stubCatalog {
	return &stubCatalog{
		name:            "spotify",
		meta:            platform.Meta{DisplayName: "Spotify", Emoji: "🟢", Aliases: []string{"sp"}},
		trackPattern:    regexp.MustCompile(`spotify\.com/(?:intl-[a-z]{2}/)?track/([a-zA-Z0-9]{22})`),
		playlistPattern: regexp.MustCompile(`spotify\.com/(?:intl-[a-z]{2}/)?playlist/([a-zA-Z0-9]{22})`),
		playlists:       make(map[string]*platform.Playlist),
	}
}

func newStubTidal() *stubCatalog {
	return &stubCatalog{
		name:            "tidal",
		meta:            platform.Meta{DisplayName: "Tidal", Emoji: "⚫", Aliases: []string{"td"}},
		trackPattern:    regexp.MustCompile(`tidal\.com/(?:[^\s/]+/)*track/(\d+)`),
		playlistPattern: regexp.MustCompile(`tidal\.com/(?:[^\s/]+/)*playlist/([0-9a-fA-F-]{36})`),
		playlists:       make(map[string]*platform.Playlist),
	}
}

func (c *stubCatalog) Metadata() platform.Meta         { return c.meta }
func (c *stubCatalog) Name() string                    { return c.name }
func (c *stubCatalog) TrackPattern() *regexp.Regexp    { return c.trackPattern }
func (c *stubCatalog) AlbumPattern() *regexp.Regexp    { return nil }
func (c *stubCatalog) PlaylistPattern() *regexp.Regexp { return c.playlistPattern }
func (c *stubCatalog) ConvertTrack(t *platform.Track) botpkg.Track {
	return platform.ConvertTrack(t)
}

func (c *stubCatalog) ConvertPlaylist(p *platform.Playlist) botpkg.Playlist {
	return platform.ConvertPlaylist(p)
}

func (c *stubCatalog) RefreshAuth(context.Context) error {
	c.refreshes++
	return c.refreshErr
}

func (c *stubCatalog) LookupTrack(_ context.Context, id string) (*platform.Track, error) {
	return nil, platform.NewNotFoundError(c.name, "track", id)
}

func (c *stubCatalog) LookupAlbum(_ context.Context, id string) (*platform.Album, error) {
	return nil, platform.NewNotFoundError(c.name, "album", id)
}

func (c *stubCatalog) TrackFromAlbum(context.Context, *platform.Album) (*platform.Track, error) {
	return nil, platform.NewNotFoundError(c.name, "album", "")
}

func (c *stubCatalog) LookupPlaylist(_ context.Context, id string) (*platform.Playlist, error) {
	if c.lookupErr != nil {
		return nil, c.lookupErr
	}
	if p, ok := c.playlists[id]; ok {
		return p, nil
	}
	return nil, platform.NewNotFoundError(c.name, "playlist", id)
}

func (c *stubCatalog) SearchTrack(_ context.Context, track botpkg.Track) (*platform.Track, error) {
	return nil, platform.NewNotFoundError(c.name, "track", track.String())
}

func (c *stubCatalog) PlaylistContainsTrack(context.Context, string, *platform.Track) (bool, error) {
	return false, nil
}

func (c *stubCatalog) AddToPlaylist(context.Context, *platform.Playlist, *platform.Track) (platform.AppendResult, error) {
	return platform.Appended, nil
}

func newTestManager(catalogs ...platform.Catalog) *platform.DefaultManager {
	manager := platform.NewManager()
	for _, c := range catalogs {
		if err := manager.Register(c); err != nil {
			panic(err)
		}
	}
	return manager
}

func textUpdate(userID int64, text string) *telego.Update {
	return &telego.Update{
		UpdateID: 1,
		Message: &telego.Message{
			MessageID: 10,
			Chat:      telego.Chat{ID: testChatID, Type: "group", Title: "Friends"},
			From:      &telego.User{ID: userID, Username: "alice", FirstName: "Alice"},
			Text:      text,
		},
	}
}

// recordingHandler remembers which updates reached it.
type recordingHandler struct {
	mu    sync.Mutex
	name  string
	seen  []string
	calls *[]string
}

func (h *recordingHandler) Handle(_ context.Context, _ Replier, update *telego.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, messageText(update.Message))
	if h.calls != nil {
		*h.calls = append(*h.calls, h.name)
	}
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}
