// Package auth performs the OAuth authorization-code exchange with a
// Mastodon instance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// redirectOOB makes the instance display the code instead of redirecting.
	redirectOOB = "urn:ietf:wg:oauth:2.0:oob"
	scopeRead   = "read"
)

// Flow holds one authorization attempt against a Mastodon instance.
type Flow struct {
	config *oauth2.Config
	state  string
}

// NewFlow prepares an authorization flow for an application registered on
// host with the given client credentials.
func NewFlow(host, clientID, clientSecret string) (*Flow, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, errors.New("host is required")
	}
	if strings.TrimSpace(clientID) == "" {
		return nil, errors.New("client key is required")
	}
	base := url.URL{Scheme: "https", Host: host}

	return &Flow{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base.JoinPath("oauth", "authorize").String(),
				TokenURL:  base.JoinPath("oauth", "token").String(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: redirectOOB,
			Scopes:      []string{scopeRead},
		},
		state: uuid.NewString(),
	}, nil
}

// LoginURL returns the page where the user authorizes the application.
func (f *Flow) LoginURL() string {
	return f.config.AuthCodeURL(f.state)
}

// Exchange trades an authorization code for an access token.
func (f *Flow) Exchange(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errors.New("authorization code is required")
	}

	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchanging authorization code: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("exchanging authorization code: empty access token")
	}
	return token.AccessToken, nil
}

// WithTokenURL points the flow at a different token endpoint.
func (f *Flow) WithTokenURL(tokenURL string) *Flow {
	cfg := *f.config
	cfg.Endpoint.TokenURL = tokenURL
	return &Flow{config: &cfg, state: f.state}
}
