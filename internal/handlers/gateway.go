package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/labzang/hagueapi/internal/config"
	"github.com/labzang/hagueapi/internal/version"
)

// GatewayHandler serves the declarative gateway-catalog endpoints:
// status, the list of fronted services, and the routing table.
type GatewayHandler struct {
	config *config.Config
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(cfg *config.Config) *GatewayHandler {
	return &GatewayHandler{config: cfg}
}

// Status handles GET /api/gateway/status.
func (h *GatewayHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   "Labzang API Gateway",
		"status":    "running",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version.Version,
	})
}

// Services handles GET /api/gateway/services.
func (h *GatewayHandler) Services(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"transformer": gin.H{
			"name":        "TransformerService",
			"description": "KoELECTRA-based Korean sentiment analysis",
			"path":        "/api/transformer/*",
			"docs":        h.config.TransformerServiceURL + "/docs",
		},
		"ml": gin.H{
			"name":        "MLService",
			"description": "Machine learning and NLP service",
			"path":        "/api/ml/*",
		},
		"total_services": 2,
	})
}

// Routes handles GET /api/gateway/routes.
func (h *GatewayHandler) Routes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"transformer_route": gin.H{
			"path":        "/api/transformer/*",
			"target":      h.config.TransformerServiceURL,
			"description": "KoELECTRA sentiment analysis service",
		},
		"ml_route": gin.H{
			"path":        "/api/ml/*",
			"target":      h.config.MLServiceURL,
			"description": "Machine learning service",
		},
	})
}
