// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/application/services"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/journeytrack-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// VisitHandlers contains the session registration and identification handlers
type VisitHandlers struct {
	sessionService *services.SessionService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewVisitHandlers creates visit handlers with injected dependencies
func NewVisitHandlers(sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *VisitHandlers {
	return &VisitHandlers{
		sessionService: sessionService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// PostVisit handles POST /api/v1/visit - registers or refreshes a session
func (h *VisitHandlers) PostVisit(c *gin.Context) {
	projectCtx, exists := middleware.GetProjectContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("post_visit_request", projectCtx.ProjectID)
	defer marker.Complete()

	var req services.VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result := h.sessionService.ProcessVisitRequest(&req, projectCtx)
	if !result.Success {
		marker.SetSuccess(false)
		c.JSON(http.StatusBadRequest, gin.H{"error": result.Error})
		return
	}

	h.logger.Events().Debug("Visit request handled", "projectId", projectCtx.ProjectID, "sessionId", result.SessionID, "duration", time.Since(start))
	marker.SetSuccess(true)
	c.JSON(http.StatusOK, result)
}

// PostIdentify handles POST /api/v1/identify - links a session to a customer identity
func (h *VisitHandlers) PostIdentify(c *gin.Context) {
	projectCtx, exists := middleware.GetProjectContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project context not found"})
		return
	}

	marker := h.perfTracker.StartOperation("post_identify_request", projectCtx.ProjectID)
	defer marker.Complete()

	var req services.IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result := h.sessionService.ProcessIdentify(&req, projectCtx)
	if !result.Success {
		marker.SetSuccess(false)
		status := http.StatusBadRequest
		if result.Error == "unknown session" {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": result.Error})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, result)
}
