package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/labzang/hagueapi/internal/config"
	"github.com/labzang/hagueapi/internal/core"
	"github.com/labzang/hagueapi/internal/session"
)

// Token type constants
const (
	TokenTypeBearer = "Bearer"

	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Claim keys owned by the issuer; identity claims may not shadow them.
var reservedClaims = map[string]struct{}{
	"sub": {}, "iss": {}, "iat": {}, "exp": {}, "jti": {},
	"type": {}, "provider": {},
}

// Compile-time interface check.
var _ core.TokenProvider = (*LocalTokenProvider)(nil)

// LocalTokenProvider mints and verifies the gateway's own HS256-signed
// session tokens. The signing secret is read once from config at startup;
// verification is stateless except for the optional revocation lookup
// through the session store (nil store = pure stateless semantics).
type LocalTokenProvider struct {
	config   *config.Config
	sessions *session.Store
}

// NewLocalTokenProvider creates a new local token provider.
func NewLocalTokenProvider(cfg *config.Config, sessions *session.Store) *LocalTokenProvider {
	return &LocalTokenProvider{config: cfg, sessions: sessions}
}

// generateJWT creates a signed JWT with the given payload and expiry.
func (p *LocalTokenProvider) generateJWT(
	subject, provider, kind string,
	identityClaims map[string]string,
	expiresAt time.Time,
) (*core.TokenResult, error) {
	tokenID := uuid.New().String()

	claims := jwt.MapClaims{
		"sub":      subject,
		"provider": provider,
		"type":     kind,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
		"iss":      p.config.BaseURL,
		"jti":      tokenID,
	}
	for key, value := range identityClaims {
		if _, reserved := reservedClaims[key]; reserved {
			continue
		}
		claims[key] = value
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(p.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &core.TokenResult{
		TokenString: tokenString,
		TokenType:   TokenTypeBearer,
		TokenID:     tokenID,
		ExpiresAt:   expiresAt,
		Claims:      claims,
	}, nil
}

// GenerateAccessToken mints a short-lived access token carrying the
// identity's claims.
func (p *LocalTokenProvider) GenerateAccessToken(
	ctx context.Context,
	identity *core.Identity,
) (*core.TokenResult, error) {
	expiresAt := time.Now().Add(p.config.AccessTokenExpiration)
	return p.generateJWT(identity.ExternalID, identity.Provider, kindAccess, identity.Claims(), expiresAt)
}

// GenerateRefreshToken mints a long-lived refresh token with a minimal
// payload (subject and provider only). When session tracking is enabled
// the token id is recorded so it can be listed and revoked later.
func (p *LocalTokenProvider) GenerateRefreshToken(
	ctx context.Context,
	identity *core.Identity,
) (*core.TokenResult, error) {
	expiresAt := time.Now().Add(p.config.RefreshTokenExpiration)

	result, err := p.generateJWT(identity.ExternalID, identity.Provider, kindRefresh, nil, expiresAt)
	if err != nil {
		return nil, err
	}

	if err := p.sessions.Put(ctx, result.TokenID, session.TokenMetadata{
		Subject:   identity.ExternalID,
		Provider:  identity.Provider,
		IssuedAt:  time.Now(),
		ExpiresAt: expiresAt,
	}, p.config.RefreshTokenExpiration); err != nil {
		return nil, fmt.Errorf("%w: failed to track token: %v", ErrTokenGeneration, err)
	}

	return result, nil
}

// parse verifies signature and expiry, mapping jwt errors onto the
// issuer's error kinds. invalidErr/expiredErr let the refresh path report
// refresh-specific sentinels without duplicating the parse logic.
func (p *LocalTokenProvider) parse(
	tokenString string,
	invalidErr, expiredErr error,
) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.config.JWTSecret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, expiredErr
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		default:
			return nil, fmt.Errorf("%w: %v", invalidErr, err)
		}
	}

	if !token.Valid {
		return nil, invalidErr
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, invalidErr
	}
	return claims, nil
}

// validate checks a parsed token's kind and revocation status and maps the
// claims into a validation result.
func (p *LocalTokenProvider) validate(
	ctx context.Context,
	claims jwt.MapClaims,
	wantKind string,
	invalidErr error,
) (*core.TokenValidationResult, error) {
	kind, _ := claims["type"].(string)
	if kind != wantKind {
		return nil, invalidErr
	}

	tokenID, _ := claims["jti"].(string)
	if tokenID != "" {
		revoked, err := p.sessions.IsRevoked(ctx, tokenID)
		if err != nil {
			// Fail closed: an unreachable revocation list must not
			// let a possibly revoked token through
			return nil, fmt.Errorf("%w: revocation check failed: %v", invalidErr, err)
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}

	subject, _ := claims["sub"].(string)
	provider, _ := claims["provider"].(string)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, invalidErr
	}

	return &core.TokenValidationResult{
		Valid:     true,
		Subject:   subject,
		Provider:  provider,
		ExpiresAt: time.Unix(int64(exp), 0),
		Claims:    claims,
	}, nil
}

// ValidateToken verifies an access token.
func (p *LocalTokenProvider) ValidateToken(
	ctx context.Context,
	tokenString string,
) (*core.TokenValidationResult, error) {
	claims, err := p.parse(tokenString, ErrInvalidToken, ErrExpiredToken)
	if err != nil {
		return nil, err
	}
	return p.validate(ctx, claims, kindAccess, ErrInvalidToken)
}

// ValidateRefreshToken verifies a refresh token.
func (p *LocalTokenProvider) ValidateRefreshToken(
	ctx context.Context,
	tokenString string,
) (*core.TokenValidationResult, error) {
	claims, err := p.parse(tokenString, ErrInvalidRefreshToken, ErrExpiredRefreshToken)
	if err != nil {
		return nil, err
	}
	return p.validate(ctx, claims, kindRefresh, ErrInvalidRefreshToken)
}

// RefreshAccessToken exchanges a valid refresh token for a new access
// token. In rotation mode a new refresh token is minted and the old one
// revoked for its remaining lifetime.
func (p *LocalTokenProvider) RefreshAccessToken(
	ctx context.Context,
	refreshToken string,
	enableRotation bool,
) (*core.TokenRefreshResult, error) {
	validation, err := p.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	identity := &core.Identity{
		ExternalID: validation.Subject,
		Provider:   validation.Provider,
	}

	accessToken, err := p.GenerateAccessToken(ctx, identity)
	if err != nil {
		return nil, err
	}

	result := &core.TokenRefreshResult{AccessToken: accessToken}

	if enableRotation {
		newRefreshToken, err := p.GenerateRefreshToken(ctx, identity)
		if err != nil {
			return nil, err
		}
		result.RefreshToken = newRefreshToken

		if oldID, _ := validation.Claims["jti"].(string); oldID != "" {
			if err := p.sessions.Revoke(ctx, oldID, validation.ExpiresAt); err != nil {
				return nil, fmt.Errorf("failed to revoke rotated token: %w", err)
			}
		}
	}

	return result, nil
}

// RevokeToken validates a refresh token and marks its id revoked for the
// remainder of its lifetime.
func (p *LocalTokenProvider) RevokeToken(ctx context.Context, refreshToken string) error {
	validation, err := p.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}

	tokenID, _ := validation.Claims["jti"].(string)
	if tokenID == "" {
		return ErrInvalidRefreshToken
	}

	return p.sessions.Revoke(ctx, tokenID, validation.ExpiresAt)
}

// Name returns provider name for logging
func (p *LocalTokenProvider) Name() string {
	return "local"
}
