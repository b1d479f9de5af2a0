package journey

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func newTestServerTracker(t *testing.T, url string, maxRetries int) *ServerTracker {
	t.Helper()
	tracker, err := NewServerTracker(ServerConfig{
		APIURL:        url,
		APIKey:        "jt_server_key",
		BatchSize:     50,
		FlushInterval: time.Hour,
		MaxRetries:    maxRetries,
	})
	if err != nil {
		t.Fatalf("NewServerTracker returned error: %v", err)
	}
	// Constant short backoff keeps retry tests fast.
	tracker.newBackOff = func() backoff.BackOff {
		return backoff.NewConstantBackOff(time.Millisecond)
	}
	t.Cleanup(func() { tracker.Close(context.Background()) })
	return tracker
}

func TestServerTrackerDropsBatchAfterRetriesExhausted(t *testing.T) {
	stub, server := newCollectorStub()
	defer server.Close()
	stub.setStatus(http.StatusServiceUnavailable)

	tracker := newTestServerTracker(t, server.URL, 2)

	tracker.Track("sess_1", "purchase", map[string]any{"amount": 99})

	if err := tracker.Flush(context.Background()); err == nil {
		t.Fatal("expected flush error after retries exhausted")
	}

	// Initial attempt plus two retries, then the batch is gone for good.
	if got := stub.requestCount(); got != 3 {
		t.Errorf("expected 3 delivery attempts, got %d", got)
	}
	if got := tracker.QueueLength(); got != 0 {
		t.Errorf("dropped batch must not be re-queued, queue length %d", got)
	}

	requestsBefore := stub.requestCount()
	if err := tracker.Flush(context.Background()); err != nil {
		t.Fatalf("flush of empty queue returned error: %v", err)
	}
	if got := stub.requestCount(); got != requestsBefore {
		t.Errorf("no further attempts expected for dropped batch, got %d extra", got-requestsBefore)
	}
}

func TestServerTrackerRecoversWithinRetryBudget(t *testing.T) {
	stub, server := newCollectorStub()
	defer server.Close()
	stub.setStatus(http.StatusInternalServerError)

	tracker := newTestServerTracker(t, server.URL, 3)

	tracker.Track("sess_1", "click", nil)

	// Flip to healthy after the first failure lands.
	go func() {
		for stub.requestCount() == 0 {
			time.Sleep(time.Millisecond)
		}
		stub.setStatus(http.StatusOK)
	}()

	if err := tracker.Flush(context.Background()); err != nil {
		t.Fatalf("expected recovery within retry budget, got %v", err)
	}
	if got := tracker.QueueLength(); got != 0 {
		t.Errorf("expected empty queue after delivery, got %d", got)
	}
}

func TestServerTrackerThresholdFlush(t *testing.T) {
	stub, server := newCollectorStub()
	defer server.Close()

	tracker, err := NewServerTracker(ServerConfig{
		APIURL:        server.URL,
		APIKey:        "jt_server_key",
		BatchSize:     2,
		FlushInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewServerTracker returned error: %v", err)
	}
	defer tracker.Close(context.Background())

	tracker.Track("sess_1", "click", nil)
	if got := stub.requestCount(); got != 0 {
		t.Fatalf("flush fired before threshold: %d requests", got)
	}
	tracker.Track("sess_1", "click", nil)
	if got := stub.requestCount(); got != 1 {
		t.Errorf("expected threshold flush, got %d requests", got)
	}
}

func TestServerTrackerIgnoresAnonymousEvents(t *testing.T) {
	_, server := newCollectorStub()
	defer server.Close()

	tracker := newTestServerTracker(t, server.URL, 1)

	tracker.Track("", "click", nil)
	tracker.Track("sess_1", "", nil)

	if got := tracker.QueueLength(); got != 0 {
		t.Errorf("expected unattributed events rejected, queue length %d", got)
	}
}
