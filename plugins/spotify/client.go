package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultAPIURL      = "https://api.spotify.com/v1/"
	defaultRedirectURL = "https://localhost:8888"
	defaultTimeout     = 15 * time.Second
)

// Options configures a Client. Empty URLs fall back to the public Spotify endpoints.
type Options struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	RedirectURL  string
	APIURL       string
	TokenURL     string
	Market       string
	Timeout      time.Duration
	// HTTPClient is the transport used for token and API requests.
	HTTPClient *http.Client
}

// Client talks to the Spotify Web API. Reads use an app token obtained with
// client credentials; playlist reads and writes use the user token minted by RefreshAuth.
type Client struct {
	reader  *spotifyapi.Client
	oauth   *oauth2.Config
	apiURL  string
	market  string
	base    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  bot.Logger

	mu           sync.RWMutex
	refreshToken string
	user         *spotifyapi.Client
}

// New creates a Spotify client. No network call is made until the first request.
func New(opts Options, logger bot.Logger) (*Client, error) {
	if strings.TrimSpace(opts.ClientID) == "" || strings.TrimSpace(opts.ClientSecret) == "" {
		return nil, fmt.Errorf("spotify: client_id and client_secret required")
	}
	apiURL := strings.TrimSpace(opts.APIURL)
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	tokenURL := strings.TrimSpace(opts.TokenURL)
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	redirectURL := strings.TrimSpace(opts.RedirectURL)
	if redirectURL == "" {
		redirectURL = defaultRedirectURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: timeout}
	}

	credentials := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	c := &Client{
		reader: spotifyapi.New(credentials.Client(tokenCtx), spotifyapi.WithBaseURL(apiURL)),
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{spotifyauth.ScopePlaylistModifyPrivate, spotifyauth.ScopePlaylistModifyPublic},
			Endpoint: oauth2.Endpoint{
				AuthURL:   spotifyauth.AuthURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		apiURL:       apiURL,
		market:       strings.ToUpper(strings.TrimSpace(opts.Market)),
		base:         base,
		refreshToken: strings.TrimSpace(opts.RefreshToken),
		logger:       logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "spotify-api",
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
			IsSuccessful: func(err error) bool {
				return err == nil || platform.IsNotFound(err)
			},
		}),
	}
	return c, nil
}

// RefreshAuth trades the configured refresh token for a fresh user access token.
// Spotify may rotate the refresh token; the new one is kept for the next call.
func (c *Client) RefreshAuth(ctx context.Context) error {
	c.mu.RLock()
	refreshToken := c.refreshToken
	c.mu.RUnlock()
	if refreshToken == "" {
		return platform.NewAuthRequiredError("spotify")
	}

	c.debug("refreshing spotify access token")
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, c.base)
	token, err := c.oauth.TokenSource(tokenCtx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return fmt.Errorf("spotify: refresh token: %w", err)
	}

	clientCtx := context.WithValue(context.Background(), oauth2.HTTPClient, c.base)
	user := spotifyapi.New(c.oauth.Client(clientCtx, token), spotifyapi.WithBaseURL(c.apiURL))

	c.mu.Lock()
	c.user = user
	if token.RefreshToken != "" {
		c.refreshToken = token.RefreshToken
	}
	c.mu.Unlock()
	c.debug("refreshed spotify access token", "expiry", token.Expiry)
	return nil
}

// userClient returns the client authorized for the playlist owner, or the
// app client when RefreshAuth has not succeeded yet.
func (c *Client) userClient() *spotifyapi.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user != nil {
		return c.user
	}
	return c.reader
}

func (c *Client) hasUser() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user != nil
}

func (c *Client) marketOptions(opts ...spotifyapi.RequestOption) []spotifyapi.RequestOption {
	if c.market != "" {
		opts = append(opts, spotifyapi.Market(c.market))
	}
	return opts
}

func (c *Client) Track(ctx context.Context, id string) (*spotifyapi.FullTrack, error) {
	var track *spotifyapi.FullTrack
	err := c.execute("track", id, func() (err error) {
		track, err = c.reader.GetTrack(ctx, spotifyapi.ID(id), c.marketOptions()...)
		return err
	})
	return track, err
}

func (c *Client) Album(ctx context.Context, id string) (*spotifyapi.FullAlbum, error) {
	var album *spotifyapi.FullAlbum
	err := c.execute("album", id, func() (err error) {
		album, err = c.reader.GetAlbum(ctx, spotifyapi.ID(id), c.marketOptions()...)
		return err
	})
	return album, err
}

// AlbumTracks returns one page of album tracks.
func (c *Client) AlbumTracks(ctx context.Context, id string, limit, offset int) (*spotifyapi.SimpleTrackPage, error) {
	var page *spotifyapi.SimpleTrackPage
	err := c.execute("album", id, func() (err error) {
		page, err = c.reader.GetAlbumTracks(ctx, spotifyapi.ID(id),
			c.marketOptions(spotifyapi.Limit(limit), spotifyapi.Offset(offset))...)
		return err
	})
	return page, err
}

func (c *Client) Playlist(ctx context.Context, id string) (*spotifyapi.FullPlaylist, error) {
	var playlist *spotifyapi.FullPlaylist
	err := c.execute("playlist", id, func() (err error) {
		playlist, err = c.userClient().GetPlaylist(ctx, spotifyapi.ID(id))
		return err
	})
	return playlist, err
}

// PlaylistItems returns one page of playlist items.
func (c *Client) PlaylistItems(ctx context.Context, id string, limit, offset int) (*spotifyapi.PlaylistItemPage, error) {
	var page *spotifyapi.PlaylistItemPage
	err := c.execute("playlist", id, func() (err error) {
		page, err = c.userClient().GetPlaylistItems(ctx, spotifyapi.ID(id),
			spotifyapi.Limit(limit), spotifyapi.Offset(offset))
		return err
	})
	return page, err
}

// SearchTrack runs a track search and returns the first hit, or nil.
func (c *Client) SearchTrack(ctx context.Context, query string) (*spotifyapi.FullTrack, error) {
	var hit *spotifyapi.FullTrack
	err := c.execute("search", query, func() error {
		result, err := c.reader.Search(ctx, query, spotifyapi.SearchTypeTrack,
			c.marketOptions(spotifyapi.Limit(1))...)
		if err != nil {
			return err
		}
		if result != nil && result.Tracks != nil && len(result.Tracks.Tracks) > 0 {
			track := result.Tracks.Tracks[0]
			hit = &track
		}
		return nil
	})
	return hit, err
}

// AddTrack appends one track with the user token.
func (c *Client) AddTrack(ctx context.Context, playlistID, trackID string) (string, error) {
	if !c.hasUser() {
		return "", platform.NewAuthRequiredError("spotify")
	}
	var snapshot string
	err := c.execute("playlist", playlistID, func() (err error) {
		snapshot, err = c.userClient().AddTracksToPlaylist(ctx, spotifyapi.ID(playlistID), spotifyapi.ID(trackID))
		return err
	})
	return snapshot, err
}

func (c *Client) execute(resource, id string, fn func() error) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, translateError(resource, id, fn())
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return platform.NewUnavailableError("spotify", resource, id, err.Error())
	}
	return err
}

// translateError maps SDK errors onto the platform taxonomy.
func translateError(resource, id string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr spotifyapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound, http.StatusBadRequest:
			return platform.NewNotFoundError("spotify", resource, id)
		case http.StatusUnauthorized, http.StatusForbidden:
			return platform.NewAuthRejectedError("spotify", resource, id, apiErr.Message)
		case http.StatusTooManyRequests:
			return platform.NewRateLimitedError("spotify")
		}
	}
	return platform.Wrap("spotify", resource, id, err)
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
