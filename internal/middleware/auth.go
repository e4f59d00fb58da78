package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/labzang/hagueapi/internal/core"
	"github.com/labzang/hagueapi/internal/metrics"
	"github.com/labzang/hagueapi/internal/token"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	ContextKeySubject  = "auth_subject"
	ContextKeyProvider = "auth_provider"
)

// RequireAuth verifies the Authorization bearer token and stores the
// resolved subject on the request context. Proxied backend routes sit
// behind this middleware. Validation outcome and latency are recorded
// per request.
func RequireAuth(tokens core.TokenProvider, recorder metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing bearer token",
			})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")

		start := time.Now()
		result, err := tokens.ValidateToken(c.Request.Context(), tokenString)
		recorder.RecordTokenValidation(validationResult(err), time.Since(start))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeySubject, result.Subject)
		c.Set(ContextKeyProvider, result.Provider)
		c.Next()
	}
}

// validationResult maps a validation error onto the metrics result label.
func validationResult(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, token.ErrExpiredToken):
		return "expired"
	case errors.Is(err, token.ErrRevokedToken):
		return "revoked"
	default:
		return "invalid"
	}
}
