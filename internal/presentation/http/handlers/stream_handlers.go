// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/journeytrack-go/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// StreamHandlers serves the live event websocket for the dashboard
type StreamHandlers struct {
	broadcaster *messaging.EventBroadcaster
	logger      *logging.ChanneledLogger
	upgrader    websocket.Upgrader
}

// NewStreamHandlers creates stream handlers with injected dependencies
func NewStreamHandlers(broadcaster *messaging.EventBroadcaster, logger *logging.ChanneledLogger) *StreamHandlers {
	return &StreamHandlers{
		broadcaster: broadcaster,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Origin is validated per project by the middleware chain.
				return true
			},
		},
	}
}

// GetStream handles GET /api/v1/events/stream - upgrades to a websocket that
// receives the project's events as they are accepted.
func (h *StreamHandlers) GetStream(c *gin.Context) {
	projectCtx, exists := middleware.GetProjectContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project context not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Stream().Warn("Websocket upgrade failed", "projectId", projectCtx.ProjectID, "error", err.Error())
		return
	}

	client := &messaging.StreamClient{
		Conn:      conn,
		ProjectID: projectCtx.ProjectID,
		Send:      make(chan []byte, config.StreamSendBuffer),
	}

	h.broadcaster.Register(client)

	go h.broadcaster.WritePump(client)
	go h.broadcaster.ReadPump(client)
}
