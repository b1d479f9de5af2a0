// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"strings"

	"github.com/AtRiskMedia/journeytrack-go/internal/application/services"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/journeytrack-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandlers contains the dashboard authentication HTTP handlers
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// LoginRequest is the dashboard login payload
type LoginRequest struct {
	Password string `json:"password"`
}

// PostLogin handles POST /api/v1/auth/login - exchanges the admin password for a JWT
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	projectCtx, exists := middleware.GetProjectContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project context not found"})
		return
	}

	marker := h.perfTracker.StartOperation("post_login_request", projectCtx.ProjectID)
	defer marker.Complete()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		marker.SetSuccess(false)
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}

	result := h.authService.AuthenticateAdmin(req.Password, projectCtx)
	if !result.Success {
		marker.SetSuccess(false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": result.Error})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, result)
}

// GetAuthStatus handles GET /api/v1/auth/status - reports token validity
func (h *AuthHandlers) GetAuthStatus(c *gin.Context) {
	projectCtx, exists := middleware.GetProjectContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project context not found"})
		return
	}

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	role, ok := h.authService.ValidateToken(token, projectCtx)
	c.JSON(http.StatusOK, gin.H{"authenticated": ok, "role": role})
}

// AuthMiddleware guards dashboard routes with the project's JWT.
func (h *AuthHandlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectCtx, exists := middleware.GetProjectContext(c)
		if !exists {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "project context not found"})
			c.Abort()
			return
		}

		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		role, ok := h.authService.ValidateToken(token, projectCtx)
		if !ok {
			h.logger.Auth().Debug("Rejected invalid dashboard token", "projectId", projectCtx.ProjectID)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("role", role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// Websocket upgrades cannot set headers from the browser.
	return c.Query("token")
}
