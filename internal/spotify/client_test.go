package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-now-playing/internal/track"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		state PlaybackState
		want  track.Track
	}{
		{
			name: "single artist",
			state: PlaybackState{
				CurrentlyPlaying: spotify.CurrentlyPlaying{
					Playing: true,
					Item: &spotify.FullTrack{
						SimpleTrack: spotify.SimpleTrack{
							Name:         "Test Song",
							Artists:      []spotify.SimpleArtist{{Name: "Artist One"}},
							ExternalURLs: map[string]string{"spotify": "https://open.spotify.com/track/123"},
						},
					},
				},
				CurrentlyPlayingType: "track",
			},
			want: track.Track{
				IsPlaying: true,
				Type:      "track",
				Song:      "Test Song",
				Artist:    "Artist One",
				Href:      "https://open.spotify.com/track/123",
			},
		},
		{
			name: "multiple artists",
			state: PlaybackState{
				CurrentlyPlaying: spotify.CurrentlyPlaying{
					Playing: true,
					Item: &spotify.FullTrack{
						SimpleTrack: spotify.SimpleTrack{
							Name: "Collab Track",
							Artists: []spotify.SimpleArtist{
								{Name: "Artist A"},
								{Name: "Artist B"},
								{Name: "Artist C"},
							},
						},
					},
				},
				CurrentlyPlayingType: "track",
			},
			want: track.Track{
				IsPlaying: true,
				Type:      "track",
				Song:      "Collab Track",
				Artist:    "Artist A, Artist B, Artist C",
			},
		},
		{
			name: "paused",
			state: PlaybackState{
				CurrentlyPlaying: spotify.CurrentlyPlaying{
					Playing: false,
					Item: &spotify.FullTrack{
						SimpleTrack: spotify.SimpleTrack{Name: "Paused Song"},
					},
				},
				CurrentlyPlayingType: "track",
			},
			want: track.Track{IsPlaying: false, Type: "track", Song: "Paused Song"},
		},
		{
			name: "ad without item",
			state: PlaybackState{
				CurrentlyPlaying:     spotify.CurrentlyPlaying{Playing: true},
				CurrentlyPlayingType: "ad",
			},
			want: track.Track{IsPlaying: true, Type: "ad"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.state); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCurrentlyPlaying(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    *track.Track
		wantErr error
	}{
		{
			name:   "playing track",
			status: http.StatusOK,
			body: `{
				"is_playing": true,
				"currently_playing_type": "track",
				"item": {
					"name": "Radio Ga Ga",
					"artists": [{"name": "Queen"}],
					"external_urls": {"spotify": "https://open.spotify.com/track/1"}
				}
			}`,
			want: &track.Track{
				IsPlaying: true,
				Type:      "track",
				Song:      "Radio Ga Ga",
				Artist:    "Queen",
				Href:      "https://open.spotify.com/track/1",
			},
		},
		{
			name:   "episode",
			status: http.StatusOK,
			body:   `{"is_playing": true, "currently_playing_type": "episode", "item": null}`,
			want:   &track.Track{IsPlaying: true, Type: "episode"},
		},
		{
			name:   "nothing playing",
			status: http.StatusNoContent,
			want:   nil,
		},
		{
			name:   "empty 200 body",
			status: http.StatusOK,
			want:   nil,
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error": {"status": 401, "message": "The access token expired"}}`,
			wantErr: ErrUpstream,
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			wantErr: ErrUpstream,
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `{"is_playing": tru`,
			wantErr: ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/me/player/currently-playing" {
					t.Errorf("path = %s, want /v1/me/player/currently-playing", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer access-123" {
					t.Errorf("Authorization = %q, want Bearer access-123", got)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Config{APIBaseURL: server.URL + "/v1", HTTPClient: server.Client()})

			got, err := client.CurrentlyPlaying(context.Background(), "access-123")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CurrentlyPlaying() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			if (got == nil) != (tt.want == nil) {
				t.Fatalf("CurrentlyPlaying() = %+v, want %+v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("CurrentlyPlaying() = %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

func TestCurrentlyPlaying_Timeout(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{
		APIBaseURL: server.URL,
		HTTPClient: server.Client(),
		Timeout:    50 * time.Millisecond,
	})

	_, err := client.CurrentlyPlaying(context.Background(), "token")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("CurrentlyPlaying() error = %v, want ErrUpstream", err)
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("requests = %d, want 1 (no retries)", n)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{})

	if client.baseURL != DefaultAPIBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultAPIBaseURL)
	}
	if client.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.timeout, DefaultTimeout)
	}
	if client.httpClient == nil {
		t.Error("httpClient is nil")
	}
}
