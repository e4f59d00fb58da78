package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_OIDCClaims(t *testing.T) {
	raw := map[string]any{
		"sub":     "u123",
		"email":   "a@b.com",
		"name":    "Alice",
		"picture": "https://lh3.example/p.jpg",
		"locale":  "ko",
	}

	id, err := Normalize("google", raw)
	require.NoError(t, err)

	assert.Equal(t, "u123", id.ExternalID)
	assert.Equal(t, "google", id.Provider)
	assert.Equal(t, "a@b.com", id.Email)
	assert.Equal(t, "Alice", id.Name)
	assert.Equal(t, "https://lh3.example/p.jpg", id.Picture)
	assert.Equal(t, map[string]string{"locale": "ko"}, id.Extra)
}

func TestNormalize_LegacyIDField(t *testing.T) {
	raw := map[string]any{
		"id":    float64(4242),
		"email": "a@b.com",
	}

	id, err := Normalize("google", raw)
	require.NoError(t, err)
	assert.Equal(t, "4242", id.ExternalID)
}

func TestNormalize_SubPreferredOverID(t *testing.T) {
	raw := map[string]any{
		"sub": "oidc-subject",
		"id":  "legacy-id",
	}

	id, err := Normalize("google", raw)
	require.NoError(t, err)
	assert.Equal(t, "oidc-subject", id.ExternalID)
}

func TestNormalize_NoSubject(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{name: "empty payload", raw: map[string]any{}},
		{name: "nil payload", raw: nil},
		{name: "empty sub", raw: map[string]any{"sub": ""}},
		{name: "non-scalar sub", raw: map[string]any{"sub": map[string]any{"v": 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize("google", tt.raw)
			assert.ErrorIs(t, err, ErrNoSubject)
		})
	}
}

func TestNormalize_DropsNestedExtras(t *testing.T) {
	raw := map[string]any{
		"sub":      "u123",
		"profile":  map[string]any{"deep": true},
		"verified": true,
	}

	id, err := Normalize("google", raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"verified": "true"}, id.Extra)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	raw := map[string]any{"sub": "u123", "email": "a@b.com"}

	_, err := Normalize("google", raw)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"sub": "u123", "email": "a@b.com"}, raw)
}

func TestIdentityClaims(t *testing.T) {
	raw := map[string]any{
		"sub":    "u123",
		"email":  "a@b.com",
		"name":   "Alice",
		"locale": "ko",
	}

	id, err := Normalize("google", raw)
	require.NoError(t, err)

	claims := id.Claims()
	assert.Equal(t, "a@b.com", claims["email"])
	assert.Equal(t, "Alice", claims["name"])
	assert.Equal(t, "ko", claims["locale"])
	assert.NotContains(t, claims, "picture")
}
