package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/justestif/go-now-playing/internal/track"
)

// DefaultTimeout bounds one fetch.
const DefaultTimeout = 5 * time.Second

var (
	// ErrFetch is returned when the endpoint is unreachable or answers non-OK.
	ErrFetch = errors.New("failed to fetch")

	// ErrNotConfigured is returned by Unconfigured.
	ErrNotConfigured = errors.New("missing API configuration")
)

// HTTPFetcher reads the now-playing endpoint.
type HTTPFetcher struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher for url authenticated with apiKey.
func NewHTTPFetcher(url, apiKey string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the track, or nil when the payload is not a renderable track.
func (f *HTTPFetcher) Fetch(ctx context.Context) (*track.Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	// A {message} payload decodes to an empty type and is dropped below.
	var t track.Track
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrFetch, err)
	}

	if !t.Renderable() {
		return nil, nil
	}
	return &t, nil
}

// SampleTrack is shown when no endpoint is configured.
func SampleTrack() track.Track {
	return track.Track{
		IsPlaying: false,
		Type:      track.TypeTrack,
		Song:      "Radio Ga Ga",
		Artist:    "Queen",
		Href:      "https://open.spotify.com/search/Radio%20Ga%20Ga",
	}
}

// Sample always yields SampleTrack without touching the network.
type Sample struct{}

// Fetch implements Fetcher.
func (Sample) Fetch(context.Context) (*track.Track, error) {
	t := SampleTrack()
	return &t, nil
}

// Unconfigured always fails with ErrNotConfigured, hiding the widget.
type Unconfigured struct{}

// Fetch implements Fetcher.
func (Unconfigured) Fetch(context.Context) (*track.Track, error) {
	return nil, ErrNotConfigured
}

var (
	_ Fetcher = (*HTTPFetcher)(nil)
	_ Fetcher = Sample{}
	_ Fetcher = Unconfigured{}
)
