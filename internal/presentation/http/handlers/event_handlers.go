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

// EventHandlers contains the ingestion HTTP handlers
type EventHandlers struct {
	eventService *services.EventProcessingService
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
}

// NewEventHandlers creates event handlers with injected dependencies
func NewEventHandlers(eventService *services.EventProcessingService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *EventHandlers {
	return &EventHandlers{
		eventService: eventService,
		logger:       logger,
		perfTracker:  perfTracker,
	}
}

// PostEvents handles POST /api/v1/events - accepts a batch of tracking events.
// The same handler serves POST /track/batch for older clients.
func (h *EventHandlers) PostEvents(c *gin.Context) {
	projectCtx, exists := middleware.GetProjectContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("post_events_request", projectCtx.ProjectID)
	defer marker.Complete()

	var req services.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Events().Warn("Malformed event batch", "projectId", projectCtx.ProjectID, "error", err.Error())
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.eventService.ProcessBatch(projectCtx, &req)
	if err != nil {
		h.logger.Events().Error("Event batch rejected", "projectId", projectCtx.ProjectID, "error", err.Error())
		marker.SetError(err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	h.logger.Events().Debug("Event batch handled",
		"projectId", projectCtx.ProjectID,
		"accepted", result.Accepted,
		"rejected", result.Rejected,
		"duration", time.Since(start),
	)
	marker.SetSuccess(true)

	status := http.StatusAccepted
	if result.Accepted == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}
