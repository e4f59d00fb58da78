package session

import (
	"context"
	"errors"
	"time"

	"github.com/labzang/hagueapi/internal/cache"
	"github.com/labzang/hagueapi/internal/core"
)

// TokenMetadata is the tracking record written per issued refresh token.
type TokenMetadata struct {
	Subject   string    `json:"subject"`
	Provider  string    `json:"provider"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store tracks issued refresh tokens and their revocation markers, keyed
// by token id (jti). A nil *Store degrades to pure stateless JWT
// semantics: issuance untracked, revocation checks always pass.
type Store struct {
	tokens  core.Cache[TokenMetadata]
	revoked core.Cache[bool]
}

// NewStore creates a session store over the two backing caches.
func NewStore(tokens core.Cache[TokenMetadata], revoked core.Cache[bool]) *Store {
	return &Store{tokens: tokens, revoked: revoked}
}

// NewMemoryStore is a convenience constructor for single-instance use.
func NewMemoryStore() *Store {
	return NewStore(cache.NewMemoryCache[TokenMetadata](), cache.NewMemoryCache[bool]())
}

// Put records metadata for an issued token. Writes are idempotent per
// token id; a re-issued id simply overwrites.
func (s *Store) Put(ctx context.Context, tokenID string, meta TokenMetadata, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	return s.tokens.Set(ctx, tokenID, meta, ttl)
}

// Exists reports whether a tracking record is present for the token id.
func (s *Store) Exists(ctx context.Context, tokenID string) (bool, error) {
	if s == nil {
		return false, nil
	}
	_, err := s.tokens.Get(ctx, tokenID)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Revoke marks the token id revoked until its natural expiry and drops
// the tracking record. Revoking an unknown id is not an error.
func (s *Store) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if s == nil {
		return nil
	}

	ttl := time.Until(until)
	if ttl <= 0 {
		// Already past expiry; nothing left to deny
		return s.tokens.Delete(ctx, tokenID)
	}

	if err := s.revoked.Set(ctx, tokenID, true, ttl); err != nil {
		return err
	}
	return s.tokens.Delete(ctx, tokenID)
}

// IsRevoked reports whether the token id carries a revocation marker.
// Cache backend failures surface to the caller so verification can fail
// closed rather than accept a possibly revoked token.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s == nil {
		return false, nil
	}

	_, err := s.revoked.Get(ctx, tokenID)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
