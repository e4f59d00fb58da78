// Package session holds the gateway's shared mutable state: single-use
// login states and the refresh-token tracking/revocation records. Both sit
// on the generic cache so deployments can choose memory or Redis backing.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labzang/hagueapi/internal/cache"
	"github.com/labzang/hagueapi/internal/core"
	"github.com/labzang/hagueapi/internal/util"
)

// StateStore issues and consumes anti-forgery login states. A state is
// accepted at most once and only within the configured validity window.
// States are stored hashed; the raw value never reaches the backend.
type StateStore struct {
	cache core.Cache[StateRecord]
	ttl   time.Duration
}

// StateRecord is the cached payload for an issued login state.
type StateRecord struct {
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStateStore creates a state store with the given validity window.
func NewStateStore(c core.Cache[StateRecord], ttl time.Duration) *StateStore {
	return &StateStore{cache: c, ttl: ttl}
}

// NewMemoryStateStore is a convenience constructor for single-instance use.
func NewMemoryStateStore(ttl time.Duration) *StateStore {
	return NewStateStore(cache.NewMemoryCache[StateRecord](), ttl)
}

// Issue generates a fresh random state for the provider and records it.
func (s *StateStore) Issue(ctx context.Context, provider string) (string, error) {
	state, err := util.CryptoRandomString(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	record := StateRecord{Provider: provider, CreatedAt: time.Now()}
	if err := s.cache.Set(ctx, util.SHA256Hex(state), record, s.ttl); err != nil {
		return "", fmt.Errorf("failed to record state: %w", err)
	}

	return state, nil
}

// Consume checks that state was issued for provider and has not been used
// or expired, then invalidates it. Returns false for unknown, expired,
// already-consumed, or cross-provider states.
func (s *StateStore) Consume(ctx context.Context, provider, state string) (bool, error) {
	if state == "" {
		return false, nil
	}

	key := util.SHA256Hex(state)

	record, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}

	// Single-use: invalidate before reporting success
	if err := s.cache.Delete(ctx, key); err != nil {
		return false, err
	}

	return record.Provider == provider, nil
}
