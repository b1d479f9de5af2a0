package messaging

import (
	"log/slog"
	"testing"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/manager"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
)

func newTestBroadcaster(t *testing.T) *EventBroadcaster {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{DefaultLevel: slog.LevelError})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return NewEventBroadcaster(manager.NewManager(logger), logger)
}

func TestBroadcasterStopTerminatesRunLoop(t *testing.T) {
	b := newTestBroadcaster(t)
	go b.Run()

	client := &StreamClient{ProjectID: "acme", Send: make(chan []byte, 1)}
	b.Register(client)
	if got := b.ClientCount("acme"); got != 1 {
		t.Fatalf("client count = %d, want 1", got)
	}

	done := make(chan struct{})
	go func() {
		b.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster did not stop")
	}

	select {
	case _, open := <-client.Send:
		if open {
			t.Error("expected send channel closed without a message")
		}
	case <-time.After(time.Second):
		t.Error("client send channel not closed on stop")
	}

	if got := b.ClientCount("acme"); got != 0 {
		t.Errorf("client count after stop = %d, want 0", got)
	}

	// Stop is idempotent.
	b.Stop()
}
