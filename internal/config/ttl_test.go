package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{
			name:  "integer milliseconds",
			input: "86400000",
			want:  24 * time.Hour,
		},
		{
			name:  "small integer milliseconds",
			input: "1500",
			want:  1500 * time.Millisecond,
		},
		{
			name:  "duration string hours",
			input: "24h",
			want:  24 * time.Hour,
		},
		{
			name:  "duration string minutes",
			input: "15m",
			want:  15 * time.Minute,
		},
		{
			name:  "compound duration",
			input: "1h30m",
			want:  90 * time.Minute,
		},
		{
			name:  "surrounding whitespace",
			input: "  3600000 ",
			want:  time.Hour,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "zero milliseconds",
			input:   "0",
			wantErr: true,
		},
		{
			name:    "negative milliseconds",
			input:   "-1000",
			wantErr: true,
		},
		{
			name:    "negative duration",
			input:   "-5m",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "soon",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTTL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvTTL_FallsBackWhenUnset(t *testing.T) {
	t.Setenv("TEST_TTL_UNSET", "")
	assert.Equal(t, DefaultTokenTTL, getEnvTTL("TEST_TTL_UNSET"))
}

func TestGetEnvTTL_FallsBackOnInvalid(t *testing.T) {
	t.Setenv("TEST_TTL_BAD", "not-a-duration")
	assert.Equal(t, DefaultTokenTTL, getEnvTTL("TEST_TTL_BAD"))
}

func TestGetEnvTTL_ParsesBothForms(t *testing.T) {
	t.Setenv("TEST_TTL_MS", "60000")
	assert.Equal(t, time.Minute, getEnvTTL("TEST_TTL_MS"))

	t.Setenv("TEST_TTL_DUR", "36h")
	assert.Equal(t, 36*time.Hour, getEnvTTL("TEST_TTL_DUR"))
}
