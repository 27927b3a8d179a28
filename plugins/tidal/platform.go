package tidal

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

const (
	platformName      = "tidal"
	playlistPageLimit = 100
	browseURL         = "https://tidal.com/browse/"
)

var (
	trackPattern    = regexp.MustCompile(`tidal\.com/(?:[^\s/?#]+/)*track/(\d+)`)
	albumPattern    = regexp.MustCompile(`tidal\.com/(?:[^\s/?#]+/)*album/(\d+)`)
	playlistPattern = regexp.MustCompile(`tidal\.com/(?:[^\s/?#]+/)*playlist/([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})`)
)

// TidalPlatform implements platform.Catalog for Tidal.
type TidalPlatform struct {
	client *Client
	logger bot.Logger
}

var (
	_ platform.Catalog          = (*TidalPlatform)(nil)
	_ platform.MetadataProvider = (*TidalPlatform)(nil)
)

func NewPlatform(client *Client, logger bot.Logger) *TidalPlatform {
	return &TidalPlatform{client: client, logger: logger}
}

func (t *TidalPlatform) Name() string { return platformName }

func (t *TidalPlatform) Metadata() platform.Meta {
	return platform.Meta{
		Name:        platformName,
		DisplayName: "Tidal",
		Emoji:       "⚫",
		Aliases:     []string{"td"},
	}
}

func (t *TidalPlatform) TrackPattern() *regexp.Regexp    { return trackPattern }
func (t *TidalPlatform) AlbumPattern() *regexp.Regexp    { return albumPattern }
func (t *TidalPlatform) PlaylistPattern() *regexp.Regexp { return playlistPattern }

func (t *TidalPlatform) RefreshAuth(ctx context.Context) error {
	return t.client.RefreshAuth(ctx)
}

func (t *TidalPlatform) LookupTrack(ctx context.Context, id string) (*platform.Track, error) {
	track, err := t.client.Track(ctx, id)
	if err != nil {
		return nil, err
	}
	if track.ID == 0 {
		return nil, platform.NewNotFoundError(platformName, "track", id)
	}
	converted := convertTrack(*track)
	return &converted, nil
}

func (t *TidalPlatform) LookupAlbum(ctx context.Context, id string) (*platform.Album, error) {
	album, err := t.client.Album(ctx, id)
	if err != nil {
		return nil, err
	}
	if album.ID == 0 {
		return nil, platform.NewNotFoundError(platformName, "album", id)
	}
	converted := convertAlbum(*album)
	return &converted, nil
}

// TrackFromAlbum fetches the first track of the album.
func (t *TidalPlatform) TrackFromAlbum(ctx context.Context, album *platform.Album) (*platform.Track, error) {
	if album == nil {
		return nil, platform.NewNotFoundError(platformName, "album", "")
	}
	if len(album.Tracks) > 0 {
		first := album.Tracks[0]
		return &first, nil
	}
	page, err := t.client.AlbumTracks(ctx, album.ID, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, platform.NewNotFoundError(platformName, "album", album.ID)
	}
	track := convertTrack(page.Items[0])
	if track.Album == nil {
		owner := *album
		track.Album = &owner
	}
	return &track, nil
}

func (t *TidalPlatform) LookupPlaylist(ctx context.Context, id string) (*platform.Playlist, error) {
	playlist, etag, err := t.client.Playlist(ctx, id)
	if err != nil {
		return nil, err
	}
	if playlist.UUID == "" {
		return nil, platform.NewNotFoundError(platformName, "playlist", id)
	}
	return &platform.Playlist{
		ID:          playlist.UUID,
		Platform:    platformName,
		Title:       playlist.Title,
		Description: playlist.Description,
		Creator:     playlist.Creator.Name,
		TrackCount:  playlist.NumberOfTracks,
		URL:         browseURL + "playlist/" + playlist.UUID,
		Revision:    etag,
	}, nil
}

// SearchTrack prefers the search top hit when it is a track and falls back to the first track item.
func (t *TidalPlatform) SearchTrack(ctx context.Context, track bot.Track) (*platform.Track, error) {
	title := platform.NormalizeQuery(track.Name())
	if title == "" {
		return nil, platform.NewNotFoundError(platformName, "track", track.String())
	}
	query := strings.TrimSpace(title + " " + platform.NormalizeQuery(track.ArtistName()))
	result, err := t.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if hit, ok := topHitTrack(result); ok {
		converted := convertTrack(hit)
		return &converted, nil
	}
	if len(result.Tracks.Items) == 0 {
		return nil, platform.NewNotFoundError(platformName, "track", track.String())
	}
	converted := convertTrack(result.Tracks.Items[0])
	return &converted, nil
}

func topHitTrack(result *tidalSearchResult) (tidalTrack, bool) {
	if result == nil || result.TopHit == nil || result.TopHit.Type != "TRACKS" || len(result.TopHit.Value) == 0 {
		return tidalTrack{}, false
	}
	var track tidalTrack
	if err := json.Unmarshal(result.TopHit.Value, &track); err != nil || track.ID == 0 {
		return tidalTrack{}, false
	}
	return track, true
}

// PlaylistContainsTrack pages through every playlist track and compares ids.
func (t *TidalPlatform) PlaylistContainsTrack(ctx context.Context, playlistID string, track *platform.Track) (bool, error) {
	if track == nil || track.ID == "" {
		return false, nil
	}
	for offset := 0; ; offset += playlistPageLimit {
		page, err := t.client.PlaylistTracks(ctx, playlistID, playlistPageLimit, offset)
		if err != nil {
			return false, err
		}
		for _, item := range page.Items {
			if strconv.FormatInt(item.ID, 10) == track.ID {
				return true, nil
			}
		}
		if len(page.Items) < playlistPageLimit || offset+len(page.Items) >= page.TotalNumberOfItems {
			return false, nil
		}
	}
}

// AddToPlaylist refreshes auth, checks membership and appends with a fresh ETag.
// A stale ETag triggers one re-check; a duplicate rejection counts as already present.
func (t *TidalPlatform) AddToPlaylist(ctx context.Context, playlist *platform.Playlist, track *platform.Track) (platform.AppendResult, error) {
	if playlist == nil || track == nil {
		return 0, platform.NewNotFoundError(platformName, "playlist", "")
	}
	if track.Platform != "" && track.Platform != platformName {
		return 0, platform.NewUnsupportedError(platformName, "foreign track "+track.Platform)
	}
	if err := t.RefreshAuth(ctx); err != nil {
		return 0, err
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var present bool
		present, err = t.PlaylistContainsTrack(ctx, playlist.ID, track)
		if err != nil {
			return 0, err
		}
		if present {
			return platform.AlreadyPresent, nil
		}
		var etag string
		if _, etag, err = t.client.Playlist(ctx, playlist.ID); err != nil {
			return 0, err
		}
		err = t.client.AddTrack(ctx, playlist.ID, track.ID, etag)
		switch {
		case err == nil:
			return platform.Appended, nil
		case errors.Is(err, errDuplicate):
			return platform.AlreadyPresent, nil
		case errors.Is(err, errStaleETag):
			if t.logger != nil {
				t.logger.Debug("tidal playlist changed during append, re-checking", "playlist_id", playlist.ID)
			}
			continue
		default:
			return 0, err
		}
	}
	return 0, err
}

func (t *TidalPlatform) ConvertTrack(track *platform.Track) bot.Track {
	return platform.ConvertTrack(track)
}

func (t *TidalPlatform) ConvertPlaylist(playlist *platform.Playlist) bot.Playlist {
	return platform.ConvertPlaylist(playlist)
}

func convertTrack(t tidalTrack) platform.Track {
	id := strconv.FormatInt(t.ID, 10)
	title := t.Title
	if v := strings.TrimSpace(t.Version); v != "" {
		title += " (" + v + ")"
	}
	track := platform.Track{
		ID:       id,
		Platform: platformName,
		Title:    title,
		Artists:  convertArtists(t.Artist, t.Artists),
		Duration: time.Duration(t.Duration) * time.Second,
		URL:      browseURL + "track/" + id,
		ISRC:     t.ISRC,
	}
	if t.Album != nil && t.Album.ID != 0 {
		album := convertAlbum(*t.Album)
		track.Album = &album
	}
	return track
}

func convertAlbum(a tidalAlbum) platform.Album {
	id := strconv.FormatInt(a.ID, 10)
	return platform.Album{
		ID:         id,
		Platform:   platformName,
		Title:      a.Title,
		Artists:    convertArtists(a.Artist, a.Artists),
		TrackCount: a.NumberOfTracks,
		URL:        browseURL + "album/" + id,
	}
}

// convertArtists keeps catalog order; the main artist leads when the list omits it.
func convertArtists(main *tidalArtist, artists []tidalArtist) []platform.Artist {
	out := make([]platform.Artist, 0, len(artists)+1)
	if len(artists) == 0 && main != nil {
		artists = []tidalArtist{*main}
	}
	for _, a := range artists {
		id := strconv.FormatInt(a.ID, 10)
		out = append(out, platform.Artist{
			ID:       id,
			Platform: platformName,
			Name:     a.Name,
			URL:      browseURL + "artist/" + id,
		})
	}
	return out
}
