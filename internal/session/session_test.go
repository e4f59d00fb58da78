package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_IssueAndConsume(t *testing.T) {
	s := NewMemoryStateStore(time.Minute)
	ctx := context.Background()

	state, err := s.Issue(ctx, "google")
	require.NoError(t, err)
	require.NotEmpty(t, state)

	ok, err := s.Consume(ctx, "google", state)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStateStore_SingleUse(t *testing.T) {
	s := NewMemoryStateStore(time.Minute)
	ctx := context.Background()

	state, err := s.Issue(ctx, "google")
	require.NoError(t, err)

	ok, err := s.Consume(ctx, "google", state)
	require.NoError(t, err)
	require.True(t, ok)

	// Second consumption must fail
	ok, err = s.Consume(ctx, "google", state)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateStore_UnknownState(t *testing.T) {
	s := NewMemoryStateStore(time.Minute)

	ok, err := s.Consume(context.Background(), "google", "never-issued")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateStore_EmptyState(t *testing.T) {
	s := NewMemoryStateStore(time.Minute)

	ok, err := s.Consume(context.Background(), "google", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateStore_ExpiredState(t *testing.T) {
	s := NewMemoryStateStore(-time.Second)
	ctx := context.Background()

	state, err := s.Issue(ctx, "google")
	require.NoError(t, err)

	ok, err := s.Consume(ctx, "google", state)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateStore_CrossProviderStateRejected(t *testing.T) {
	s := NewMemoryStateStore(time.Minute)
	ctx := context.Background()

	state, err := s.Issue(ctx, "google")
	require.NoError(t, err)

	ok, err := s.Consume(ctx, "github", state)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateStore_UniqueValues(t *testing.T) {
	s := NewMemoryStateStore(time.Minute)
	ctx := context.Background()

	s1, err := s.Issue(ctx, "google")
	require.NoError(t, err)
	s2, err := s.Issue(ctx, "google")
	require.NoError(t, err)

	assert.NotEqual(t, s1, s2)
}

func TestStore_PutExists(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	meta := TokenMetadata{
		Subject:   "u123",
		Provider:  "google",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	require.NoError(t, s.Put(ctx, "jti-1", meta, time.Hour))

	exists, err := s.Exists(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_PutOverwritesOnCollision(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "jti-1", TokenMetadata{Subject: "a"}, time.Hour))
	require.NoError(t, s.Put(ctx, "jti-1", TokenMetadata{Subject: "b"}, time.Hour))

	exists, err := s.Exists(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_RevokeAndIsRevoked(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "jti-1", TokenMetadata{Subject: "u123"}, time.Hour))

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Tracking record dropped on revocation
	exists, err := s.Exists(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_RevokePastExpiryIsNoop(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "jti-old", time.Now().Add(-time.Hour)))

	revoked, err := s.IsRevoked(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestStore_NilDegradesGracefully(t *testing.T) {
	var s *Store
	ctx := context.Background()

	assert.NoError(t, s.Put(ctx, "jti-1", TokenMetadata{}, time.Hour))

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	exists, err := s.Exists(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, s.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
}
