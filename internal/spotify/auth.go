package spotify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Authenticator exchanges the long-lived refresh token for access tokens.
// A new access token is requested on every call; none are cached.
type Authenticator struct {
	oauth        *oauth2.Config
	refreshToken string
	httpClient   *http.Client
	timeout      time.Duration
}

// NewAuthenticator creates an Authenticator from cfg.
func NewAuthenticator(cfg Config) *Authenticator {
	cfg = cfg.withDefaults()
	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL: cfg.TokenURL,
				// Spotify expects base64(id:secret) in the Authorization header.
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		refreshToken: cfg.RefreshToken,
		httpClient:   cfg.HTTPClient,
		timeout:      cfg.Timeout,
	}
}

// Token performs a grant_type=refresh_token exchange.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	token, err := a.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: a.refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return token, nil
}

// AccessToken returns just the bearer string of a fresh token.
func (a *Authenticator) AccessToken(ctx context.Context) (string, error) {
	token, err := a.Token(ctx)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}
