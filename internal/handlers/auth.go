package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/labzang/hagueapi/internal/auth"
	"github.com/labzang/hagueapi/internal/config"
	"github.com/labzang/hagueapi/internal/metrics"
	"github.com/labzang/hagueapi/internal/services"
	"github.com/labzang/hagueapi/internal/token"
)

// AuthHandler exposes the federated-login endpoints. All failures map to
// a uniform {success:false, error} body; internals are logged server-side
// and never echoed verbatim to the client.
type AuthHandler struct {
	authService *services.AuthService
	config      *config.Config
	metrics     metrics.Recorder
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *services.AuthService,
	cfg *config.Config,
	m metrics.Recorder,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		config:      cfg,
		metrics:     m,
	}
}

// AuthURL handles POST /api/auth/:provider/auth-url. It returns the
// provider authorization URL carrying a fresh anti-forgery state, so the
// frontend never needs the client id.
func (h *AuthHandler) AuthURL(c *gin.Context) {
	provider := c.Param("provider")

	start, err := h.authService.StartLogin(c.Request.Context(), provider)
	if err != nil {
		h.metrics.RecordAuthURLGenerated(provider, false)
		h.renderError(c, provider, "failed to generate auth URL", err)
		return
	}

	h.metrics.RecordAuthURLGenerated(provider, true)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"auth_url": start.AuthURL,
	})
}

// Callback handles POST /api/auth/:provider/callback. The authorization
// code and state arrive as query parameters from the provider redirect,
// relayed by the frontend.
func (h *AuthHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")
	code := c.Query("code")
	state := c.Query("state")

	result, err := h.authService.HandleCallback(c.Request.Context(), provider, code, state)
	if err != nil {
		h.metrics.RecordOAuthCallback(provider, false)
		h.renderError(c, provider, "callback processing failed", err)
		return
	}

	h.metrics.RecordOAuthCallback(provider, true)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"access_token":  result.AccessToken.TokenString,
		"refresh_token": result.RefreshToken.TokenString,
		"user_id":       result.UserID,
	})
}

// Refresh handles POST /api/auth/refresh: exchanges a refresh token for a
// new access token (and a new refresh token in rotation mode).
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" form:"refresh_token"`
	}
	_ = c.ShouldBind(&req)

	result, err := h.authService.Refresh(
		c.Request.Context(),
		req.RefreshToken,
		h.config.EnableTokenRotation,
	)
	if err != nil {
		h.metrics.RecordTokenRefresh(false)
		h.renderError(c, "", "token refresh failed", err)
		return
	}

	h.metrics.RecordTokenRefresh(true)
	resp := gin.H{
		"success":      true,
		"access_token": result.AccessToken.TokenString,
		"expires_in":   int(time.Until(result.AccessToken.ExpiresAt).Seconds()),
	}
	if result.RefreshToken != nil {
		resp["refresh_token"] = result.RefreshToken.TokenString
	}
	c.JSON(http.StatusOK, resp)
}

// Revoke handles POST /api/auth/revoke: invalidates a refresh token
// before its natural expiry. Requires the session-tracking capability.
func (h *AuthHandler) Revoke(c *gin.Context) {
	if !h.config.EnableSessionTracking {
		c.JSON(http.StatusNotImplemented, gin.H{
			"success": false,
			"error":   "revocation is not enabled on this deployment",
		})
		return
	}

	var req struct {
		RefreshToken string `json:"refresh_token" form:"refresh_token"`
	}
	_ = c.ShouldBind(&req)

	if err := h.authService.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		h.renderError(c, "", "token revocation failed", err)
		return
	}

	h.metrics.RecordTokenRevoked()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// renderError translates the error taxonomy into a status code and a
// short client-safe message.
func (h *AuthHandler) renderError(c *gin.Context, provider, operation string, err error) {
	log.Printf("[Auth] %s: provider=%s err=%v", operation, provider, err)

	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, services.ErrMissingCode):
		status, message = http.StatusBadRequest, "authorization code is required"
	case errors.Is(err, services.ErrInvalidState):
		status, message = http.StatusBadRequest, "state validation failed"
	case errors.Is(err, services.ErrBadRequest):
		status, message = http.StatusBadRequest, "invalid request"
	case errors.Is(err, services.ErrUnknownProvider):
		status, message = http.StatusBadRequest, "unsupported provider"
	case errors.Is(err, services.ErrConfiguration):
		status, message = http.StatusInternalServerError, "authentication is not configured"
	case errors.Is(err, auth.ErrUpstream):
		status, message = http.StatusInternalServerError, "identity provider error"
	case errors.Is(err, auth.ErrNetwork):
		status, message = http.StatusInternalServerError, "identity provider unreachable"
	case errors.Is(err, services.ErrIdentity):
		status, message = http.StatusInternalServerError, "could not resolve identity"
	case errors.Is(err, token.ErrExpiredRefreshToken), errors.Is(err, token.ErrExpiredToken):
		status, message = http.StatusUnauthorized, "token expired"
	case errors.Is(err, token.ErrRevokedToken):
		status, message = http.StatusUnauthorized, "token revoked"
	case errors.Is(err, token.ErrInvalidRefreshToken),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrMalformedToken):
		status, message = http.StatusUnauthorized, "invalid token"
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}
