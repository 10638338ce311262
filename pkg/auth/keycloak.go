package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// KeycloakConfig identifies a Keycloak realm and confidential client.
type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// TokenURL returns the realm's OpenID Connect token endpoint.
func (c KeycloakConfig) TokenURL() string {
	return strings.TrimRight(c.URL, "/") + "/realms/" + url.PathEscape(c.Realm) + "/protocol/openid-connect/token"
}

// Keycloak obtains access tokens from a Keycloak realm with the OAuth2
// client credentials grant. Tokens are cached and only re-requested when
// they are about to expire.
type Keycloak struct {
	cfg        clientcredentials.Config
	httpClient *http.Client
	now        func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
}

// NewKeycloak creates a Keycloak token provider. A nil httpClient uses
// http.DefaultClient.
func NewKeycloak(cfg KeycloakConfig, httpClient *http.Client) (*Keycloak, error) {
	if cfg.URL == "" || cfg.Realm == "" || cfg.ClientID == "" {
		return nil, errors.New("keycloak url, realm and client id are required")
	}

	return &Keycloak{
		cfg: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL(),
			Scopes:       cfg.Scopes,
		},
		httpClient: httpClient,
		now:        time.Now,
	}, nil
}

// Token returns the cached access token, or "" if none has been obtained.
func (k *Keycloak) Token() string {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.token == nil {
		return ""
	}
	return k.token.AccessToken
}

// UpdateToken requests a new token when there is none or when the cached
// one expires within minValidity.
func (k *Keycloak) UpdateToken(ctx context.Context, minValidity time.Duration) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.token != nil && k.token.AccessToken != "" {
		if k.token.Expiry.IsZero() || k.token.Expiry.Sub(k.now()) > minValidity {
			return false, nil
		}
	}

	if k.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, k.httpClient)
	}

	token, err := k.cfg.Token(ctx)
	if err != nil {
		return false, fmt.Errorf("requesting keycloak token: %w", err)
	}

	k.token = token
	return true, nil
}
