// Package nowplaying answers "what is playing, or was last playing" for the
// configured Spotify account.
package nowplaying

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/justestif/go-now-playing/internal/cache"
	"github.com/justestif/go-now-playing/internal/config"
	"github.com/justestif/go-now-playing/internal/spotify"
	"github.com/justestif/go-now-playing/internal/track"
)

// TokenSource mints a fresh access token per call.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Player reports the current playback. It returns (nil, nil) when nothing plays.
type Player interface {
	CurrentlyPlaying(ctx context.Context, accessToken string) (*track.Track, error)
}

// Result is either a Track or a neutral message.
type Result struct {
	Track   *track.Track
	Message string
}

// Body returns the JSON payload for the result.
func (r Result) Body() any {
	if r.Track != nil {
		return r.Track
	}
	return track.Message{Message: r.Message}
}

// Service composes the token source, the player and the cache store.
type Service struct {
	tokens TokenSource
	player Player
	store  cache.Store
	logger *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithStore sets the last-known-track store. Defaults to cache.Nop.
func WithStore(store cache.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Service.
func New(tokens TokenSource, player Player, opts ...Option) *Service {
	s := &Service{
		tokens: tokens,
		player: player,
		store:  cache.Nop{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig wires the Spotify clients from cfg. It returns
// config.ErrMissingCredentials when a secret is absent.
func NewFromConfig(cfg config.SpotifyConfig, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sc := spotify.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RefreshToken: cfg.RefreshToken,
		TokenURL:     cfg.TokenURL,
		APIBaseURL:   cfg.APIBaseURL,
		Timeout:      cfg.Timeout,
	}

	return New(spotify.NewAuthenticator(sc), spotify.NewClient(sc), opts...), nil
}

// GetNowPlaying runs one invocation: token exchange, playback fetch, then
// either a cache write (something playing) or a cache read (nothing playing).
// Cached tracks are returned with IsPlaying forced to false.
func (s *Service) GetNowPlaying(ctx context.Context) (Result, error) {
	logger := s.logger.With("invocation", uuid.NewString())

	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return Result{}, err
	}

	current, err := s.player.CurrentlyPlaying(ctx, accessToken)
	if err != nil {
		return Result{}, err
	}

	if current != nil {
		// A failed write must not hide the live track.
		if err := s.store.Put(ctx, *current); err != nil {
			logger.Warn("caching last track", "err", err)
		}
		logger.Debug("now playing", "type", current.Type, "song", current.Song)
		return Result{Track: current}, nil
	}

	cached, err := s.store.Get(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading last track: %w", err)
	}

	if cached == nil {
		logger.Debug("nothing playing, cache empty")
		return Result{Message: track.MsgNoTrackCached}, nil
	}

	last := cached.LastPlayed()
	logger.Debug("nothing playing, serving last track", "song", last.Song)
	return Result{Track: &last}, nil
}
