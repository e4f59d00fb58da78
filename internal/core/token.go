package core

import (
	"context"
	"time"
)

// TokenResult is the outcome of a token generation call.
type TokenResult struct {
	TokenString string
	TokenType   string
	TokenID     string // jti, used as the session-tracking key
	ExpiresAt   time.Time
	Claims      map[string]any
}

// TokenValidationResult is the outcome of a token validation call.
type TokenValidationResult struct {
	Valid     bool
	Subject   string
	Provider  string
	ExpiresAt time.Time
	Claims    map[string]any
}

// TokenRefreshResult is the outcome of a refresh-token exchange.
type TokenRefreshResult struct {
	AccessToken  *TokenResult // required
	RefreshToken *TokenResult // non-nil only in rotation mode
}

// TokenProvider is the interface token-issuance backends implement.
// Issuance never mutates shared state beyond the optional tracking record
// written through the session store; validation is read-only.
type TokenProvider interface {
	GenerateAccessToken(ctx context.Context, identity *Identity) (*TokenResult, error)
	GenerateRefreshToken(ctx context.Context, identity *Identity) (*TokenResult, error)
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResult, error)
	ValidateRefreshToken(ctx context.Context, tokenString string) (*TokenValidationResult, error)
	RefreshAccessToken(
		ctx context.Context,
		refreshToken string,
		enableRotation bool,
	) (*TokenRefreshResult, error)
	RevokeToken(ctx context.Context, refreshToken string) error
	Name() string
}
