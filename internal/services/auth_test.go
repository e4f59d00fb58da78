package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/labzang/hagueapi/internal/auth"
	"github.com/labzang/hagueapi/internal/config"
	"github.com/labzang/hagueapi/internal/metrics"
	"github.com/labzang/hagueapi/internal/session"
	"github.com/labzang/hagueapi/internal/token"
)

// fakeProvider is an httptest-backed identity provider with call counters.
type fakeProvider struct {
	server       *httptest.Server
	tokenCalls   atomic.Int32
	profileCalls atomic.Int32

	tokenStatus  int
	tokenBody    string
	profileBody  string
	profileState int
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	f := &fakeProvider{
		tokenStatus:  http.StatusOK,
		tokenBody:    `{"access_token":"pt1","refresh_token":"prt1","token_type":"Bearer"}`,
		profileState: http.StatusOK,
		profileBody:  `{"sub":"u123","email":"a@b.com","name":"Alice"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		_, _ = w.Write([]byte(f.tokenBody))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		f.profileCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.profileState)
		_, _ = w.Write([]byte(f.profileBody))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeProvider) oauthProvider(t *testing.T) *auth.OAuthProvider {
	t.Helper()

	p, err := auth.NewProvider(
		"google",
		auth.OAuthProviderConfig{
			ClientID:    "abc",
			RedirectURL: "http://cb",
			Scopes:      []string{"openid", "profile", "email"},
		},
		oauth2.Endpoint{
			AuthURL:  f.server.URL + "/authorize",
			TokenURL: f.server.URL + "/token",
		},
		f.server.URL+"/userinfo",
		nil,
	)
	require.NoError(t, err)
	return p
}

func newTestService(t *testing.T, f *fakeProvider) *AuthService {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:              "test-secret-key-for-jwt-signing",
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: 720 * time.Hour,
		BaseURL:                "http://localhost:8080",
	}

	providers := map[string]*auth.OAuthProvider{}
	if f != nil {
		providers["google"] = f.oauthProvider(t)
	}

	return NewAuthService(
		providers,
		session.NewMemoryStateStore(10*time.Minute),
		token.NewLocalTokenProvider(cfg, session.NewMemoryStore()),
		metrics.NewNoopMetrics(),
	)
}

func TestStartLogin_NoProvidersConfigured(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.StartLogin(context.Background(), "google")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestStartLogin_UnknownProvider(t *testing.T) {
	svc := newTestService(t, newFakeProvider(t))

	_, err := svc.StartLogin(context.Background(), "kakao")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestStartLogin_BuildsAuthURL(t *testing.T) {
	svc := newTestService(t, newFakeProvider(t))

	start, err := svc.StartLogin(context.Background(), "google")
	require.NoError(t, err)

	assert.NotEmpty(t, start.State)
	assert.Contains(t, start.AuthURL, "client_id=abc")
	assert.Contains(t, start.AuthURL, "redirect_uri=http%3A%2F%2Fcb")
	assert.Contains(t, start.AuthURL, "state="+start.State)
	assert.Contains(t, start.AuthURL, "response_type=code")
}

func TestHandleCallback_Success(t *testing.T) {
	f := newFakeProvider(t)
	svc := newTestService(t, f)
	ctx := context.Background()

	start, err := svc.StartLogin(ctx, "google")
	require.NoError(t, err)

	result, err := svc.HandleCallback(ctx, "google", "code1", start.State)
	require.NoError(t, err)

	assert.Equal(t, "u123", result.UserID)
	assert.NotEmpty(t, result.AccessToken.TokenString)
	assert.NotEmpty(t, result.RefreshToken.TokenString)
	assert.Equal(t, int32(1), f.tokenCalls.Load())
	assert.Equal(t, int32(1), f.profileCalls.Load())
}

func TestHandleCallback_MissingCodeFailsBeforeOutboundCall(t *testing.T) {
	f := newFakeProvider(t)
	svc := newTestService(t, f)
	ctx := context.Background()

	start, err := svc.StartLogin(ctx, "google")
	require.NoError(t, err)

	_, err = svc.HandleCallback(ctx, "google", "", start.State)
	assert.ErrorIs(t, err, ErrMissingCode)
	assert.Equal(t, int32(0), f.tokenCalls.Load())
	assert.Equal(t, int32(0), f.profileCalls.Load())
}

func TestHandleCallback_InvalidStateFailsBeforeOutboundCall(t *testing.T) {
	f := newFakeProvider(t)
	svc := newTestService(t, f)

	_, err := svc.HandleCallback(context.Background(), "google", "code1", "forged-state")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, int32(0), f.tokenCalls.Load())
}

func TestHandleCallback_StateSingleUse(t *testing.T) {
	f := newFakeProvider(t)
	svc := newTestService(t, f)
	ctx := context.Background()

	start, err := svc.StartLogin(ctx, "google")
	require.NoError(t, err)

	_, err = svc.HandleCallback(ctx, "google", "code1", start.State)
	require.NoError(t, err)

	// Replay with the same state must be rejected
	_, err = svc.HandleCallback(ctx, "google", "code2", start.State)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestHandleCallback_UpstreamExchangeFailure(t *testing.T) {
	f := newFakeProvider(t)
	f.tokenStatus = http.StatusBadRequest
	f.tokenBody = `{"error":"invalid_grant"}`
	svc := newTestService(t, f)
	ctx := context.Background()

	start, err := svc.StartLogin(ctx, "google")
	require.NoError(t, err)

	_, err = svc.HandleCallback(ctx, "google", "bad-code", start.State)
	assert.ErrorIs(t, err, auth.ErrUpstream)
	assert.Equal(t, int32(0), f.profileCalls.Load())
}

func TestHandleCallback_MissingAccessTokenInExchange(t *testing.T) {
	f := newFakeProvider(t)
	f.tokenBody = `{"token_type":"Bearer"}`
	svc := newTestService(t, f)
	ctx := context.Background()

	start, err := svc.StartLogin(ctx, "google")
	require.NoError(t, err)

	_, err = svc.HandleCallback(ctx, "google", "code1", start.State)
	assert.ErrorIs(t, err, auth.ErrUpstream)
}

func TestHandleCallback_ProfileWithoutSubject(t *testing.T) {
	f := newFakeProvider(t)
	f.profileBody = `{"email":"a@b.com"}`
	svc := newTestService(t, f)
	ctx := context.Background()

	start, err := svc.StartLogin(ctx, "google")
	require.NoError(t, err)

	_, err = svc.HandleCallback(ctx, "google", "code1", start.State)
	assert.ErrorIs(t, err, ErrIdentity)
}

func TestRefresh(t *testing.T) {
	f := newFakeProvider(t)
	svc := newTestService(t, f)
	ctx := context.Background()

	start, err := svc.StartLogin(ctx, "google")
	require.NoError(t, err)
	login, err := svc.HandleCallback(ctx, "google", "code1", start.State)
	require.NoError(t, err)

	result, err := svc.Refresh(ctx, login.RefreshToken.TokenString, false)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken.TokenString)
	assert.Nil(t, result.RefreshToken)
}

func TestRefresh_EmptyToken(t *testing.T) {
	svc := newTestService(t, newFakeProvider(t))

	_, err := svc.Refresh(context.Background(), "", false)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestRevoke(t *testing.T) {
	f := newFakeProvider(t)
	svc := newTestService(t, f)
	ctx := context.Background()

	start, err := svc.StartLogin(ctx, "google")
	require.NoError(t, err)
	login, err := svc.HandleCallback(ctx, "google", "code1", start.State)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, login.RefreshToken.TokenString))

	_, err = svc.Refresh(ctx, login.RefreshToken.TokenString, false)
	assert.ErrorIs(t, err, token.ErrRevokedToken)
}

func TestRevoke_EmptyToken(t *testing.T) {
	svc := newTestService(t, newFakeProvider(t))

	err := svc.Revoke(context.Background(), "")
	assert.ErrorIs(t, err, ErrBadRequest)
}
