package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/labzang/hagueapi/internal/middleware"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestForward_RewritesPathAndQuery(t *testing.T) {
	var gotPath, gotQuery string
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler("transformer", backend.URL, nil)
	r.Any("/api/transformer/*path", h.Forward("/api/transformer"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/transformer/sentiment?lang=ko", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/sentiment", gotPath)
	assert.Equal(t, "lang=ko", gotQuery)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestForward_PassesBodyAndUserID(t *testing.T) {
	var gotBody, gotUserID string
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotUserID = r.Header.Get("X-User-ID")
		w.WriteHeader(http.StatusCreated)
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler("ml", backend.URL, nil)
	r.Any("/api/ml/*path", func(c *gin.Context) {
		c.Set(middleware.ContextKeySubject, "u123")
	}, h.Forward("/api/ml"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/api/ml/predict", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, `{"text":"hi"}`, gotBody)
	assert.Equal(t, "u123", gotUserID)
}

func TestForward_StripsAuthorizationHeader(t *testing.T) {
	var gotAuth string
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler("ml", backend.URL, nil)
	r.Any("/api/ml/*path", h.Forward("/api/ml"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/ml/models", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, gotAuth)
}

func TestForward_BackendDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler("transformer", "http://127.0.0.1:1", nil)
	r.Any("/api/transformer/*path", h.Forward("/api/transformer"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/transformer/sentiment", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "transformer service unavailable")
}

func TestForward_PropagatesBackendStatus(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"bad input"}`))
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler("ml", backend.URL, nil)
	r.Any("/api/ml/*path", h.Forward("/api/ml"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/api/ml/predict", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "bad input")
}
