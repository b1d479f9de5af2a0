// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/project"
	"github.com/gin-gonic/gin"
)

// ProjectMiddleware creates middleware that resolves the owning project of a
// request and attaches a full project context.
func ProjectMiddleware(projectManager *project.Manager, perfTracker *performance.Tracker) gin.HandlerFunc {
	logger := projectManager.GetLogger()

	return func(c *gin.Context) {
		start := time.Now()
		marker := perfTracker.StartOperation("middleware_project_resolution", "unknown")
		defer marker.Complete()

		marker.AddMetadata("path", c.Request.URL.Path)
		marker.AddMetadata("method", c.Request.Method)

		projectCtx, err := projectManager.GetContext(c)
		if err != nil {
			logger.Project().Warn("Project resolution failed", "error", err.Error(), "path", c.Request.URL.Path)
			marker.SetError(err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown project or invalid API key"})
			c.Abort()
			return
		}
		marker.ProjectID = projectCtx.ProjectID

		if origin := c.GetHeader("Origin"); origin != "" && len(projectCtx.Config.AllowedOrigins) > 0 {
			if !projectManager.GetDetector().ValidateOrigin(projectCtx.Config, origin) {
				logger.Project().Warn("Request origin not allowed for project", "projectId", projectCtx.ProjectID, "origin", origin)
				marker.SetError(fmt.Errorf("origin %s not allowed", origin))
				c.JSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
				c.Abort()
				return
			}
		}

		logger.Project().Debug("Project context resolved",
			"projectId", projectCtx.ProjectID,
			"duration", time.Since(start),
			"database", projectCtx.GetDatabaseInfo(),
		)
		marker.SetSuccess(true)

		c.Set("project", projectCtx)

		c.Next()
	}
}

// GetProjectContext retrieves the project context from gin context
func GetProjectContext(c *gin.Context) (*project.Context, bool) {
	value, exists := c.Get("project")
	if !exists {
		return nil, false
	}

	ctx, ok := value.(*project.Context)
	return ctx, ok
}
