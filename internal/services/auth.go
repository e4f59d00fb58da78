package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/labzang/hagueapi/internal/auth"
	"github.com/labzang/hagueapi/internal/core"
	"github.com/labzang/hagueapi/internal/identity"
	"github.com/labzang/hagueapi/internal/metrics"
	"github.com/labzang/hagueapi/internal/session"
)

// LoginStart is the result of starting a login attempt.
type LoginStart struct {
	AuthURL string
	State   string
}

// LoginResult is the outcome of a completed callback: the minted session
// token pair plus the resolved subject.
type LoginResult struct {
	AccessToken  *core.TokenResult
	RefreshToken *core.TokenResult
	UserID       string
}

// AuthService orchestrates the federated login flow: state issuance,
// code exchange, profile fetch, identity normalization, token issuance.
// No intermediate state is persisted beyond the single-use login state.
type AuthService struct {
	providers map[string]*auth.OAuthProvider
	states    *session.StateStore
	tokens    core.TokenProvider
	metrics   metrics.Recorder
}

// NewAuthService creates the flow controller. providers may be empty when
// no federated login is configured; each operation then fails with
// ErrConfiguration rather than crashing.
func NewAuthService(
	providers map[string]*auth.OAuthProvider,
	states *session.StateStore,
	tokens core.TokenProvider,
	m metrics.Recorder,
) *AuthService {
	return &AuthService{
		providers: providers,
		states:    states,
		tokens:    tokens,
		metrics:   m,
	}
}

func (s *AuthService) provider(name string) (*auth.OAuthProvider, error) {
	if len(s.providers) == 0 {
		return nil, fmt.Errorf("%w: no providers registered", ErrConfiguration)
	}
	p, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// StartLogin generates a fresh anti-forgery state and the provider
// authorization URL for it.
func (s *AuthService) StartLogin(ctx context.Context, providerName string) (*LoginStart, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}

	state, err := s.states.Issue(ctx, providerName)
	if err != nil {
		return nil, fmt.Errorf("failed to issue login state: %w", err)
	}

	return &LoginStart{
		AuthURL: p.GetAuthURL(state),
		State:   state,
	}, nil
}

// HandleCallback drives the provider exchange for a returned authorization
// code and mints the session token pair. Input validation happens before
// any outbound call; any failure in the chain short-circuits with no
// partial token exposure.
func (s *AuthService) HandleCallback(
	ctx context.Context,
	providerName, code, state string,
) (*LoginResult, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}

	if code == "" {
		return nil, ErrMissingCode
	}

	ok, err := s.states.Consume(ctx, providerName, state)
	if err != nil {
		return nil, fmt.Errorf("state lookup failed: %w", err)
	}
	if !ok {
		return nil, ErrInvalidState
	}

	exchangeStart := time.Now()
	providerTokens, err := p.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	rawClaims, err := p.FetchProfile(ctx, providerTokens.AccessToken)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordExternalAPICall(providerName, time.Since(exchangeStart))

	id, err := identity.Normalize(providerName, rawClaims)
	if err != nil {
		if errors.Is(err, identity.ErrNoSubject) {
			return nil, fmt.Errorf("%w: %v", ErrIdentity, err)
		}
		return nil, err
	}

	issueStart := time.Now()
	accessToken, err := s.tokens.GenerateAccessToken(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTokenIssued("access", time.Since(issueStart))

	issueStart = time.Now()
	refreshToken, err := s.tokens.GenerateRefreshToken(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTokenIssued("refresh", time.Since(issueStart))

	log.Printf("[Auth] login completed: provider=%s subject=%s", providerName, id.ExternalID)

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       id.ExternalID,
	}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(
	ctx context.Context,
	refreshToken string,
	enableRotation bool,
) (*core.TokenRefreshResult, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh_token is required", ErrBadRequest)
	}
	return s.tokens.RefreshAccessToken(ctx, refreshToken, enableRotation)
}

// Revoke invalidates a refresh token before its natural expiry.
func (s *AuthService) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("%w: refresh_token is required", ErrBadRequest)
	}
	return s.tokens.RevokeToken(ctx, refreshToken)
}
