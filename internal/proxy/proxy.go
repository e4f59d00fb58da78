// Package proxy forwards authenticated gateway traffic to the backend
// model services. The gateway owns routing and auth; the backends see a
// plain HTTP request plus the resolved user id.
package proxy

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/labzang/hagueapi/internal/middleware"
)

// Headers the gateway manages itself and never copies from the client.
var skipHeaders = map[string]struct{}{
	"Authorization": {},
	"Connection":    {},
	"Keep-Alive":    {},
	"Host":          {},
}

// Handler forwards requests to a single backend service.
type Handler struct {
	service string
	baseURL string
	client  *http.Client
}

// NewHandler creates a forwarding handler for the named backend service.
// A nil client falls back to http.DefaultClient.
func NewHandler(service, baseURL string, client *http.Client) *Handler {
	if client == nil {
		client = http.DefaultClient
	}
	return &Handler{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Forward returns a gin handler that relays the request to the backend,
// rewriting the gateway prefix to the backend's path space. The subject
// resolved by the auth middleware travels in X-User-ID.
func (h *Handler) Forward(stripPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := strings.TrimPrefix(c.Request.URL.Path, stripPrefix)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		target := h.baseURL + path
		if c.Request.URL.RawQuery != "" {
			target += "?" + c.Request.URL.RawQuery
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "failed to build upstream request",
			})
			return
		}

		for key, values := range c.Request.Header {
			if _, skip := skipHeaders[key]; skip {
				continue
			}
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
		req.Header.Set("X-User-ID", c.GetString(middleware.ContextKeySubject))

		resp, err := h.client.Do(req)
		if err != nil {
			log.Printf("[Proxy] %s unreachable: %v", h.service, err)
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   h.service + " service unavailable",
			})
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   "failed to read upstream response",
			})
			return
		}

		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/json"
		}
		c.Data(resp.StatusCode, contentType, body)
	}
}
