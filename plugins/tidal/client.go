package tidal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
	"golang.org/x/oauth2"
)

const (
	defaultAPIURL      = "https://api.tidal.com/v1/"
	defaultTokenURL    = "https://auth.tidal.com/v1/oauth2/token"
	defaultCountryCode = "US"
	defaultTimeout     = 15 * time.Second
)

var (
	errDuplicate = errors.New("tidal: track already in playlist")
	errStaleETag = errors.New("tidal: playlist changed since it was read")
)

// Options configures a Client.
type Options struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	CountryCode  string
	APIURL       string
	TokenURL     string
	// MaxRetries is the number of retries for 5xx and connection errors. Zero disables retries.
	MaxRetries int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a small Tidal v1 REST client authenticated with a bearer token.
type Client struct {
	httpClient  *retryablehttp.Client
	breaker     *gobreaker.CircuitBreaker
	oauth       *oauth2.Config
	apiURL      string
	countryCode string
	base        *http.Client
	logger      bot.Logger

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// New creates a Tidal client. It fails when neither an access token nor a refresh token is set.
func New(opts Options, logger bot.Logger) (*Client, error) {
	accessToken := strings.TrimSpace(opts.AccessToken)
	refreshToken := strings.TrimSpace(opts.RefreshToken)
	if accessToken == "" && refreshToken == "" {
		return nil, fmt.Errorf("tidal: access_token or refresh_token required")
	}
	if refreshToken != "" && strings.TrimSpace(opts.ClientID) == "" {
		return nil, fmt.Errorf("tidal: client_id required to refresh tokens")
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
		tokenURL = defaultTokenURL
	}
	countryCode := strings.ToUpper(strings.TrimSpace(opts.CountryCode))
	if countryCode == "" {
		countryCode = defaultCountryCode
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: timeout}
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	httpClient := retryablehttp.NewClient()
	httpClient.HTTPClient = base
	httpClient.RetryMax = maxRetries
	httpClient.RetryWaitMin = 200 * time.Millisecond
	httpClient.RetryWaitMax = 2 * time.Second
	httpClient.Logger = nil
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "tidal-api",
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
			IsSuccessful: func(err error) bool {
				return err == nil || platform.IsNotFound(err) || errors.Is(err, errDuplicate) || errors.Is(err, errStaleETag)
			},
		}),
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
		},
		apiURL:       apiURL,
		countryCode:  countryCode,
		base:         base,
		logger:       logger,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}, nil
}

// RefreshAuth exchanges the refresh token for a new access token. Without a
// refresh token the configured access token is used as is.
func (c *Client) RefreshAuth(ctx context.Context) error {
	c.mu.RLock()
	refreshToken, accessToken := c.refreshToken, c.accessToken
	c.mu.RUnlock()
	if refreshToken == "" {
		if accessToken == "" {
			return platform.NewAuthRequiredError("tidal")
		}
		return nil
	}

	c.debug("refreshing tidal access token")
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, c.base)
	token, err := c.oauth.TokenSource(tokenCtx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return fmt.Errorf("tidal: refresh token: %w", err)
	}
	c.mu.Lock()
	c.accessToken = token.AccessToken
	if token.RefreshToken != "" {
		c.refreshToken = token.RefreshToken
	}
	c.mu.Unlock()
	c.debug("refreshed tidal access token", "expiry", token.Expiry)
	return nil
}

func (c *Client) Track(ctx context.Context, id string) (*tidalTrack, error) {
	var track tidalTrack
	if _, err := c.getJSON(ctx, "track", id, "tracks/"+url.PathEscape(id), nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

func (c *Client) Album(ctx context.Context, id string) (*tidalAlbum, error) {
	var album tidalAlbum
	if _, err := c.getJSON(ctx, "album", id, "albums/"+url.PathEscape(id), nil, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

func (c *Client) AlbumTracks(ctx context.Context, id string, limit, offset int) (*tidalTrackPage, error) {
	var page tidalTrackPage
	query := pageQuery(limit, offset)
	if _, err := c.getJSON(ctx, "album", id, "albums/"+url.PathEscape(id)+"/tracks", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Playlist returns the playlist and its current ETag.
func (c *Client) Playlist(ctx context.Context, id string) (*tidalPlaylist, string, error) {
	var playlist tidalPlaylist
	header, err := c.getJSON(ctx, "playlist", id, "playlists/"+url.PathEscape(id), nil, &playlist)
	if err != nil {
		return nil, "", err
	}
	return &playlist, header.Get("ETag"), nil
}

func (c *Client) PlaylistTracks(ctx context.Context, id string, limit, offset int) (*tidalTrackPage, error) {
	var page tidalTrackPage
	query := pageQuery(limit, offset)
	if _, err := c.getJSON(ctx, "playlist", id, "playlists/"+url.PathEscape(id)+"/tracks", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Search(ctx context.Context, query string) (*tidalSearchResult, error) {
	var result tidalSearchResult
	params := url.Values{}
	params.Set("query", query)
	params.Set("types", "TRACKS")
	params.Set("limit", "1")
	if _, err := c.getJSON(ctx, "search", query, "search", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddTrack appends a track, guarded by the playlist ETag. Tidal rejects the
// request when the track is already present or the playlist changed meanwhile.
func (c *Client) AddTrack(ctx context.Context, playlistID, trackID, etag string) error {
	form := url.Values{}
	form.Set("trackIds", trackID)
	form.Set("onArtifactNotFound", "FAIL")
	form.Set("onDupes", "FAIL")
	headers := http.Header{}
	if etag != "" {
		headers.Set("If-None-Match", etag)
	}
	_, err := c.request(ctx, http.MethodPost, "playlist", playlistID,
		"playlists/"+url.PathEscape(playlistID)+"/items", nil, form, headers, nil)
	return err
}

func (c *Client) getJSON(ctx context.Context, resource, id, path string, query url.Values, out any) (http.Header, error) {
	return c.request(ctx, http.MethodGet, resource, id, path, query, nil, nil, out)
}

func (c *Client) request(ctx context.Context, method, resource, id, path string, query, form url.Values, headers http.Header, out any) (http.Header, error) {
	var respHeader http.Header
	_, err := c.breaker.Execute(func() (interface{}, error) {
		header, err := c.do(ctx, method, resource, id, path, query, form, headers, out)
		respHeader = header
		return nil, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, platform.NewUnavailableError("tidal", resource, id, err.Error())
	}
	return respHeader, err
}

func (c *Client) do(ctx context.Context, method, resource, id, path string, query, form url.Values, headers http.Header, out any) (http.Header, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("countryCode", c.countryCode)
	endpoint := c.apiURL + path + "?" + query.Encode()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	c.mu.RLock()
	accessToken := c.accessToken
	c.mu.RUnlock()
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, platform.Wrap("tidal", resource, id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, platform.Wrap("tidal", resource, id, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resource, id, resp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, platform.Wrap("tidal", resource, id, fmt.Errorf("decode response: %w", err))
		}
	}
	return resp.Header, nil
}

// statusError maps an HTTP failure onto the platform taxonomy.
func statusError(resource, id string, status int, body []byte) error {
	var apiErr tidalError
	_ = json.Unmarshal(body, &apiErr)
	message := strings.TrimSpace(apiErr.UserMessage)
	if message == "" {
		message = http.StatusText(status)
	}
	switch status {
	case http.StatusNotFound:
		return platform.NewNotFoundError("tidal", resource, id)
	case http.StatusUnauthorized, http.StatusForbidden:
		return platform.NewAuthRejectedError("tidal", resource, id, message)
	case http.StatusTooManyRequests:
		return platform.NewRateLimitedError("tidal")
	case http.StatusConflict:
		return &platform.PlatformError{Platform: "tidal", Resource: resource, ID: id, Err: errDuplicate}
	case http.StatusPreconditionFailed:
		return &platform.PlatformError{Platform: "tidal", Resource: resource, ID: id, Err: errStaleETag}
	}
	return &platform.PlatformError{Platform: "tidal", Resource: resource, ID: id, Err: fmt.Errorf("HTTP %d: %s", status, message)}
}

func pageQuery(limit, offset int) url.Values {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	return query
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
