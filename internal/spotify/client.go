// Package spotify talks to the Spotify accounts service and Web API on behalf
// of the single configured account.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/justestif/go-now-playing/internal/track"
)

const (
	// DefaultAPIBaseURL is the Spotify Web API root.
	DefaultAPIBaseURL = "https://api.spotify.com/v1/"

	// DefaultTimeout bounds each call to the accounts service or Web API.
	DefaultTimeout = 5 * time.Second

	currentlyPlayingPath = "me/player/currently-playing"
)

// Sentinel errors.
var (
	// ErrAuth is returned when the refresh-token exchange fails.
	ErrAuth = errors.New("token request failed")

	// ErrUpstream is returned when the now-playing endpoint fails or answers
	// with a status other than 200 or 204.
	ErrUpstream = errors.New("spotify API error")
)

// Config holds credentials and endpoints for the Spotify clients.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string

	// TokenURL defaults to the Spotify accounts token endpoint.
	TokenURL string
	// APIBaseURL defaults to DefaultAPIBaseURL.
	APIBaseURL string
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
	// HTTPClient is used for both endpoints when set.
	HTTPClient *http.Client
}

func (c Config) withDefaults() Config {
	if c.TokenURL == "" {
		c.TokenURL = spotifyauth.TokenURL
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return c
}

// Client queries the currently-playing endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// NewClient creates a Web API client from cfg.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		httpClient: cfg.HTTPClient,
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/") + "/",
		timeout:    cfg.Timeout,
	}
}

// CurrentlyPlaying fetches and normalizes the account's playback state.
// Returns (nil, nil) when nothing is playing (HTTP 204).
func (c *Client) CurrentlyPlaying(ctx context.Context, accessToken string) (*track.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+currentlyPlayingPath, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUpstream, resp.StatusCode)
	}

	var state PlaybackState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		// The API occasionally answers 200 with an empty body when idle.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: decoding playback state: %v", ErrUpstream, err)
	}

	t := Normalize(state)
	return &t, nil
}
