// Package messaging provides the live event stream over websockets.
package messaging

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/domain/events"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/manager"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/pkg/config"
	"github.com/gorilla/websocket"
)

// StreamClient represents a single connected dashboard client.
type StreamClient struct {
	Conn      *websocket.Conn
	ProjectID string
	Send      chan []byte
}

// streamStats is the periodic summary pushed alongside live events.
type streamStats struct {
	Kind           string `json:"kind"`
	ActiveSessions int    `json:"activeSessions"`
	Clients        int    `json:"clients"`
}

// streamEvent wraps a stored tracking event for the wire.
type streamEvent struct {
	Kind  string                `json:"kind"`
	Event *events.TrackingEvent `json:"event"`
}

type publishRequest struct {
	projectID string
	event     *events.TrackingEvent
}

// EventBroadcaster fans stored events out to every connected client of a project.
type EventBroadcaster struct {
	projectClients map[string]map[*StreamClient]bool
	register       chan *StreamClient
	unregister     chan *StreamClient
	publish        chan publishRequest
	cacheManager   *manager.Manager
	logger         *logging.ChanneledLogger
	mu             sync.RWMutex

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewEventBroadcaster creates a new broadcaster instance.
func NewEventBroadcaster(cm *manager.Manager, logger *logging.ChanneledLogger) *EventBroadcaster {
	return &EventBroadcaster{
		projectClients: make(map[string]map[*StreamClient]bool),
		register:       make(chan *StreamClient),
		unregister:     make(chan *StreamClient),
		publish:        make(chan publishRequest, config.StreamSendBuffer),
		cacheManager:   cm,
		logger:         logger,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *EventBroadcaster) Run() {
	defer close(b.doneCh)

	ticker := time.NewTicker(config.StreamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			b.closeAllClients()
			return

		case client := <-b.register:
			b.mu.Lock()
			if _, ok := b.projectClients[client.ProjectID]; !ok {
				b.projectClients[client.ProjectID] = make(map[*StreamClient]bool)
			}
			if len(b.projectClients[client.ProjectID]) >= config.MaxStreamClients {
				b.mu.Unlock()
				b.logger.Stream().Warn("Stream client rejected, project at capacity", "projectId", client.ProjectID)
				close(client.Send)
				continue
			}
			b.projectClients[client.ProjectID][client] = true
			b.mu.Unlock()
			b.logger.Stream().Info("Stream client registered", "projectId", client.ProjectID)

		case client := <-b.unregister:
			b.mu.Lock()
			if clients, ok := b.projectClients[client.ProjectID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(b.projectClients, client.ProjectID)
					}
				}
			}
			b.mu.Unlock()
			b.logger.Stream().Info("Stream client unregistered", "projectId", client.ProjectID)

		case req := <-b.publish:
			b.fanOut(req.projectID, &streamEvent{Kind: "event", Event: req.event})

		case <-ticker.C:
			b.broadcastStats()
		}
	}
}

// Stop signals the loop to exit and waits for it to finish. All connected
// client send channels are closed, which ends their write pumps.
func (b *EventBroadcaster) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
	<-b.doneCh
}

// closeAllClients drops every registered client during shutdown.
func (b *EventBroadcaster) closeAllClients() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for projectID, clients := range b.projectClients {
		for client := range clients {
			close(client.Send)
		}
		delete(b.projectClients, projectID)
	}
}

// Register queues a client for registration.
func (b *EventBroadcaster) Register(client *StreamClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *EventBroadcaster) Unregister(client *StreamClient) {
	b.unregister <- client
}

// Publish queues a stored event for fan-out to the project's clients.
// It never blocks the ingestion path; if the publish buffer is full the
// event is dropped from the stream, not from storage.
func (b *EventBroadcaster) Publish(projectID string, event *events.TrackingEvent) {
	select {
	case b.publish <- publishRequest{projectID: projectID, event: event}:
	default:
		b.logger.Stream().Warn("Stream publish buffer full, event dropped from stream", "projectId", projectID)
	}
}

// ClientCount returns the number of connected clients for a project.
func (b *EventBroadcaster) ClientCount(projectID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.projectClients[projectID])
}

func (b *EventBroadcaster) fanOut(projectID string, payload any) {
	message, err := json.Marshal(payload)
	if err != nil {
		b.logger.Stream().Error("Failed to marshal stream payload", "projectId", projectID, "error", err.Error())
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.projectClients[projectID] {
		select {
		case client.Send <- message:
		default:
			// Slow client; skipping keeps the stream moving for the rest.
			b.logger.Stream().Warn("Stream client send buffer full, message skipped", "projectId", projectID)
		}
	}
}

// broadcastStats pushes a session summary to every project with active clients.
func (b *EventBroadcaster) broadcastStats() {
	b.mu.RLock()
	projectIDs := make([]string, 0, len(b.projectClients))
	for projectID := range b.projectClients {
		projectIDs = append(projectIDs, projectID)
	}
	b.mu.RUnlock()

	for _, projectID := range projectIDs {
		b.fanOut(projectID, &streamStats{
			Kind:           "stats",
			ActiveSessions: b.cacheManager.CountSessions(projectID),
			Clients:        b.ClientCount(projectID),
		})
	}
}

// WritePump drains a client's send channel onto its websocket connection.
// It exits when the send channel closes or a write fails.
func (b *EventBroadcaster) WritePump(client *StreamClient) {
	defer client.Conn.Close()

	for message := range client.Send {
		client.Conn.SetWriteDeadline(time.Now().Add(config.StreamWriteTimeout))
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			b.logger.Stream().Debug("Stream write failed", "projectId", client.ProjectID, "error", err.Error())
			return
		}
	}
	client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump consumes and discards client messages until the connection drops,
// then unregisters the client.
func (b *EventBroadcaster) ReadPump(client *StreamClient) {
	defer func() {
		b.Unregister(client)
		client.Conn.Close()
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
