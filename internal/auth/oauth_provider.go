package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/labzang/hagueapi/internal/core"
)

// Google's OIDC userinfo endpoint.
const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// OAuthProviderConfig contains configuration for an OAuth provider
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// OAuthProvider drives the authorization-code flow against one identity
// provider: authorization URL construction, code exchange, profile fetch.
// Network I/O only; no local state.
type OAuthProvider struct {
	config      *oauth2.Config
	provider    string // "google", etc.
	userInfoURL string
	httpClient  *http.Client
}

// NewGoogleProvider creates a Google OAuth provider. The http.Client is
// used for all outbound calls so timeouts and retry policy are set by the
// caller; pass nil to use http.DefaultClient.
func NewGoogleProvider(cfg OAuthProviderConfig, httpClient *http.Client) (*OAuthProvider, error) {
	return NewProvider("google", cfg, google.Endpoint, googleUserInfoURL, httpClient)
}

// NewProvider creates a provider with explicit endpoints. Used directly by
// tests and for self-hosted providers with non-standard URLs.
func NewProvider(
	name string,
	cfg OAuthProviderConfig,
	endpoint oauth2.Endpoint,
	userInfoURL string,
	httpClient *http.Client,
) (*OAuthProvider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client id", ErrNotConfigured)
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("%w: missing redirect URL", ErrNotConfigured)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OAuthProvider{
		provider: name,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
		httpClient:  httpClient,
	}, nil
}

// Name returns the provider name
func (p *OAuthProvider) Name() string {
	return p.provider
}

// GetAuthURL returns the provider authorization URL carrying
// response_type=code, client_id, the encoded redirect_uri, the configured
// scopes, and the given anti-forgery state.
func (p *OAuthProvider) GetAuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode exchanges an authorization code for the provider's token
// set. Non-2xx responses and responses without an access token map to
// ErrUpstream; transport failures map to ErrNetwork.
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code string) (*core.ProviderTokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: token endpoint returned %s", ErrUpstream, retrieveErr.Response.Status)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		// The provider answered but the token response was unusable
		// (e.g. 2xx body without an access_token)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", ErrUpstream)
	}

	return &core.ProviderTokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken, // may be empty on repeat consent
	}, nil
}

// FetchProfile retrieves profile claims for a provider access token via a
// bearer-authenticated GET against the userinfo endpoint.
func (p *OAuthProvider) FetchProfile(ctx context.Context, accessToken string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: userinfo returned %s - %s", ErrUpstream, resp.Status, string(body))
	}

	var claims map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to decode userinfo: %v", ErrUpstream, err)
	}

	return claims, nil
}
