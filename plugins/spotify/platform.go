package spotify

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
	spotifyapi "github.com/zmb3/spotify/v2"
)

const (
	platformName      = "spotify"
	playlistPageLimit = 100
	openURL           = "https://open.spotify.com/"
)

var (
	trackPattern    = regexp.MustCompile(`spotify\.com/(?:intl-[a-z]{2}/)?track/([a-zA-Z0-9]{22})`)
	albumPattern    = regexp.MustCompile(`spotify\.com/(?:intl-[a-z]{2}/)?album/([a-zA-Z0-9]{22})`)
	playlistPattern = regexp.MustCompile(`spotify\.com/(?:intl-[a-z]{2}/)?playlist/([a-zA-Z0-9]{22})`)
)

// SpotifyPlatform implements platform.Catalog on top of the Spotify Web API.
type SpotifyPlatform struct {
	client *Client
	logger bot.Logger
}

var (
	_ platform.Catalog          = (*SpotifyPlatform)(nil)
	_ platform.MetadataProvider = (*SpotifyPlatform)(nil)
)

func NewPlatform(client *Client, logger bot.Logger) *SpotifyPlatform {
	return &SpotifyPlatform{client: client, logger: logger}
}

func (s *SpotifyPlatform) Name() string { return platformName }

func (s *SpotifyPlatform) Metadata() platform.Meta {
	return platform.Meta{
		Name:        platformName,
		DisplayName: "Spotify",
		Emoji:       "🟢",
		Aliases:     []string{"sp"},
	}
}

func (s *SpotifyPlatform) TrackPattern() *regexp.Regexp    { return trackPattern }
func (s *SpotifyPlatform) AlbumPattern() *regexp.Regexp    { return albumPattern }
func (s *SpotifyPlatform) PlaylistPattern() *regexp.Regexp { return playlistPattern }

func (s *SpotifyPlatform) RefreshAuth(ctx context.Context) error {
	return s.client.RefreshAuth(ctx)
}

func (s *SpotifyPlatform) LookupTrack(ctx context.Context, id string) (*platform.Track, error) {
	track, err := s.client.Track(ctx, id)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, platform.NewNotFoundError(platformName, "track", id)
	}
	converted := convertFullTrack(track)
	return &converted, nil
}

func (s *SpotifyPlatform) LookupAlbum(ctx context.Context, id string) (*platform.Album, error) {
	album, err := s.client.Album(ctx, id)
	if err != nil {
		return nil, err
	}
	if album == nil {
		return nil, platform.NewNotFoundError(platformName, "album", id)
	}
	result := convertSimpleAlbum(album.SimpleAlbum)
	result.TrackCount = int(album.Tracks.Total)
	for _, t := range album.Tracks.Tracks {
		track := convertSimpleTrack(t)
		track.Album = &platform.Album{ID: result.ID, Platform: platformName, Title: result.Title, Artists: result.Artists, URL: result.URL}
		result.Tracks = append(result.Tracks, track)
	}
	return &result, nil
}

// TrackFromAlbum returns the album's first track, fetching it when the album came without tracks.
func (s *SpotifyPlatform) TrackFromAlbum(ctx context.Context, album *platform.Album) (*platform.Track, error) {
	if album == nil {
		return nil, platform.NewNotFoundError(platformName, "album", "")
	}
	if len(album.Tracks) > 0 {
		first := album.Tracks[0]
		return &first, nil
	}
	page, err := s.client.AlbumTracks(ctx, album.ID, 1, 0)
	if err != nil {
		return nil, err
	}
	if page == nil || len(page.Tracks) == 0 {
		return nil, platform.NewNotFoundError(platformName, "album", album.ID)
	}
	track := convertSimpleTrack(page.Tracks[0])
	owner := *album
	owner.Tracks = nil
	track.Album = &owner
	return &track, nil
}

func (s *SpotifyPlatform) LookupPlaylist(ctx context.Context, id string) (*platform.Playlist, error) {
	playlist, err := s.client.Playlist(ctx, id)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, platform.NewNotFoundError(platformName, "playlist", id)
	}
	return &platform.Playlist{
		ID:         string(playlist.ID),
		Platform:   platformName,
		Title:      playlist.Name,
		Creator:    playlist.Owner.DisplayName,
		TrackCount: int(playlist.Tracks.Total),
		URL:        externalURL(playlist.ExternalURLs, "playlist", string(playlist.ID)),
		Revision:   playlist.SnapshotID,
	}, nil
}

// SearchTrack queries `track:<name> artist:<artist>` and returns the top hit.
func (s *SpotifyPlatform) SearchTrack(ctx context.Context, track bot.Track) (*platform.Track, error) {
	query := searchQuery(track)
	if query == "" {
		return nil, platform.NewNotFoundError(platformName, "track", track.String())
	}
	hit, err := s.client.SearchTrack(ctx, query)
	if err != nil {
		return nil, err
	}
	if hit == nil {
		return nil, platform.NewNotFoundError(platformName, "track", track.String())
	}
	converted := convertFullTrack(hit)
	return &converted, nil
}

func searchQuery(track bot.Track) string {
	title := platform.NormalizeQuery(track.Name())
	if title == "" {
		return ""
	}
	artist := platform.NormalizeQuery(track.ArtistName())
	if artist == "" {
		return "track:" + title
	}
	return "track:" + title + " artist:" + artist
}

// PlaylistContainsTrack pages through every playlist item and compares track ids.
func (s *SpotifyPlatform) PlaylistContainsTrack(ctx context.Context, playlistID string, track *platform.Track) (bool, error) {
	if track == nil || track.ID == "" {
		return false, nil
	}
	for offset := 0; ; offset += playlistPageLimit {
		page, err := s.client.PlaylistItems(ctx, playlistID, playlistPageLimit, offset)
		if err != nil {
			return false, err
		}
		if page == nil {
			return false, nil
		}
		for _, item := range page.Items {
			if item.Track.Track != nil && string(item.Track.Track.ID) == track.ID {
				return true, nil
			}
		}
		if len(page.Items) < playlistPageLimit || offset+len(page.Items) >= int(page.Total) {
			return false, nil
		}
	}
}

// AddToPlaylist refreshes the user token, then appends the track unless the playlist already holds it.
func (s *SpotifyPlatform) AddToPlaylist(ctx context.Context, playlist *platform.Playlist, track *platform.Track) (platform.AppendResult, error) {
	if playlist == nil || track == nil {
		return 0, platform.NewNotFoundError(platformName, "playlist", "")
	}
	if track.Platform != "" && track.Platform != platformName {
		return 0, platform.NewUnsupportedError(platformName, "foreign track "+track.Platform)
	}
	if err := s.RefreshAuth(ctx); err != nil {
		return 0, err
	}
	present, err := s.PlaylistContainsTrack(ctx, playlist.ID, track)
	if err != nil {
		return 0, err
	}
	if present {
		return platform.AlreadyPresent, nil
	}
	snapshot, err := s.client.AddTrack(ctx, playlist.ID, track.ID)
	if err != nil {
		return 0, err
	}
	if s.logger != nil {
		s.logger.Debug("spotify track added", "playlist_id", playlist.ID, "track_id", track.ID, "snapshot_id", snapshot)
	}
	return platform.Appended, nil
}

func (s *SpotifyPlatform) ConvertTrack(track *platform.Track) bot.Track {
	return platform.ConvertTrack(track)
}

func (s *SpotifyPlatform) ConvertPlaylist(playlist *platform.Playlist) bot.Playlist {
	return platform.ConvertPlaylist(playlist)
}

func convertFullTrack(t *spotifyapi.FullTrack) platform.Track {
	track := convertSimpleTrack(t.SimpleTrack)
	album := convertSimpleAlbum(t.Album)
	if album.ID != "" {
		track.Album = &album
	}
	return track
}

func convertSimpleTrack(t spotifyapi.SimpleTrack) platform.Track {
	return platform.Track{
		ID:       string(t.ID),
		Platform: platformName,
		Title:    t.Name,
		Artists:  convertArtists(t.Artists),
		Duration: time.Duration(t.Duration) * time.Millisecond,
		URL:      externalURL(t.ExternalURLs, "track", string(t.ID)),
	}
}

func convertSimpleAlbum(a spotifyapi.SimpleAlbum) platform.Album {
	return platform.Album{
		ID:       string(a.ID),
		Platform: platformName,
		Title:    a.Name,
		Artists:  convertArtists(a.Artists),
		URL:      externalURL(a.ExternalURLs, "album", string(a.ID)),
	}
}

func convertArtists(artists []spotifyapi.SimpleArtist) []platform.Artist {
	out := make([]platform.Artist, 0, len(artists))
	for _, a := range artists {
		out = append(out, platform.Artist{
			ID:       string(a.ID),
			Platform: platformName,
			Name:     a.Name,
			URL:      externalURL(a.ExternalURLs, "artist", string(a.ID)),
		})
	}
	return out
}

func externalURL(urls map[string]string, kind, id string) string {
	if u := strings.TrimSpace(urls["spotify"]); u != "" {
		return u
	}
	if id == "" {
		return ""
	}
	return openURL + kind + "/" + id
}
