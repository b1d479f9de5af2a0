package journey

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// collectorStub records delivery attempts and serves a configurable status.
type collectorStub struct {
	mu       sync.Mutex
	status   int32
	requests int32
	batches  [][]Event
	auth     string
}

func newCollectorStub() (*collectorStub, *httptest.Server) {
	stub := &collectorStub{status: http.StatusOK}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&stub.requests, 1)

		body, _ := io.ReadAll(r.Body)
		var payload batchPayload
		json.Unmarshal(body, &payload)

		stub.mu.Lock()
		stub.batches = append(stub.batches, payload.Events)
		stub.auth = r.Header.Get("Authorization")
		stub.mu.Unlock()

		w.WriteHeader(int(atomic.LoadInt32(&stub.status)))
	}))
	return stub, server
}

func (s *collectorStub) requestCount() int {
	return int(atomic.LoadInt32(&s.requests))
}

func (s *collectorStub) setStatus(code int) {
	atomic.StoreInt32(&s.status, int32(code))
}

func (s *collectorStub) lastBatch() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batches) == 0 {
		return nil
	}
	return s.batches[len(s.batches)-1]
}

// newTestClient builds a client with the periodic timer effectively disabled
// so tests control flushing explicitly.
func newTestClient(t *testing.T, url string, cfg Config) *Client {
	t.Helper()
	cfg.APIURL = url
	if cfg.APIKey == "" {
		cfg.APIKey = "jt_test_key"
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = time.Hour
	}
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { client.Close(context.Background()) })
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{APIURL: "http://localhost"}); err == nil {
		t.Fatal("expected error for missing API key")
	}
	if _, err := New(Config{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing API URL")
	}
}

func TestTrackBelowThresholdIssuesNoRequests(t *testing.T) {
	stub, server := newCollectorStub()
	defer server.Close()

	client := newTestClient(t, server.URL, Config{BatchSize: 10})

	for i := 0; i < 5; i++ {
		client.Track("click", map[string]any{"n": i})
	}

	if got := stub.requestCount(); got != 0 {
		t.Errorf("expected no delivery before flush, got %d requests", got)
	}
	if got := client.QueueLength(); got != 5 {
		t.Errorf("expected 5 buffered events, got %d", got)
	}
}

func TestBatchSizeTriggersImmediateFlush(t *testing.T) {
	stub, server := newCollectorStub()
	defer server.Close()

	client := newTestClient(t, server.URL, Config{BatchSize: 3})

	client.Track("click", nil)
	client.Track("click", nil)
	if got := stub.requestCount(); got != 0 {
		t.Fatalf("flush fired before threshold: %d requests", got)
	}

	client.Track("click", nil)
	if got := stub.requestCount(); got != 1 {
		t.Errorf("expected exactly 1 delivery at threshold, got %d", got)
	}
	if got := client.QueueLength(); got != 0 {
		t.Errorf("expected empty queue after threshold flush, got %d", got)
	}
	if got := len(stub.lastBatch()); got != 3 {
		t.Errorf("expected 3 events in delivered batch, got %d", got)
	}
}

func TestFailedFlushRequeuesSameEvents(t *testing.T) {
	stub, server := newCollectorStub()
	defer server.Close()
	stub.setStatus(http.StatusInternalServerError)

	client := newTestClient(t, server.URL, Config{BatchSize: 50})

	client.Track("signup", map[string]any{"plan": "pro"})
	client.Track("click", nil)

	if err := client.Flush(context.Background(), false); err == nil {
		t.Fatal("expected flush error on 500 response")
	}
	if got := client.QueueLength(); got != 2 {
		t.Fatalf("expected failed batch back in queue, got length %d", got)
	}

	stub.setStatus(http.StatusOK)
	if err := client.Flush(context.Background(), false); err != nil {
		t.Fatalf("second flush failed: %v", err)
	}

	batch := stub.lastBatch()
	if len(batch) != 2 {
		t.Fatalf("expected 2 events redelivered, got %d", len(batch))
	}
	if batch[0].EventType != "signup" || batch[1].EventType != "click" {
		t.Errorf("retry lost ordering: got %q, %q", batch[0].EventType, batch[1].EventType)
	}
	if got := client.QueueLength(); got != 0 {
		t.Errorf("expected empty queue after successful retry, got %d", got)
	}
}

func TestForcedFlushNeverRequeues(t *testing.T) {
	stub, server := newCollectorStub()
	defer server.Close()
	stub.setStatus(http.StatusBadGateway)

	client := newTestClient(t, server.URL, Config{})

	client.Track("click", nil)

	if err := client.Flush(context.Background(), true); err == nil {
		t.Fatal("expected flush error on 502 response")
	}
	if got := client.QueueLength(); got != 0 {
		t.Errorf("forced flush must not re-queue, got length %d", got)
	}
}

func TestDoNotTrackNeverPopulatesQueue(t *testing.T) {
	_, server := newCollectorStub()
	defer server.Close()

	client := newTestClient(t, server.URL, Config{DoNotTrack: true})

	client.Track("click", nil)
	client.OnNavigate("/pricing")
	client.Identify("cust_1")

	if got := client.QueueLength(); got != 0 {
		t.Errorf("DNT client buffered %d events, want 0", got)
	}
	if got := client.ConsentState(); got != ConsentDisabled {
		t.Errorf("expected disabled consent under DNT, got %v", got)
	}
}

func TestRequireConsentBlocksUntilGranted(t *testing.T) {
	_, server := newCollectorStub()
	defer server.Close()

	client := newTestClient(t, server.URL, Config{RequireConsent: true})

	client.Track("click", nil)
	if got := client.QueueLength(); got != 0 {
		t.Fatalf("uninitialized gate buffered %d events, want 0", got)
	}

	client.GrantConsent()
	client.Track("click", nil)
	if got := client.QueueLength(); got != 1 {
		t.Errorf("expected 1 event after consent granted, got %d", got)
	}
}

func TestRevokeConsentDropsBufferedEvents(t *testing.T) {
	_, server := newCollectorStub()
	defer server.Close()

	client := newTestClient(t, server.URL, Config{})

	client.Track("click", nil)
	client.Track("click", nil)
	client.RevokeConsent()

	if got := client.QueueLength(); got != 0 {
		t.Errorf("expected queue dropped on revoke, got %d", got)
	}

	client.Track("click", nil)
	if got := client.QueueLength(); got != 0 {
		t.Errorf("revoked client still collecting, queue length %d", got)
	}
}

func TestPeriodicTimerFlushes(t *testing.T) {
	stub, server := newCollectorStub()
	defer server.Close()

	client := newTestClient(t, server.URL, Config{FlushInterval: 20 * time.Millisecond})

	client.Track("click", nil)

	deadline := time.Now().Add(2 * time.Second)
	for stub.requestCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if got := stub.requestCount(); got == 0 {
		t.Fatal("timer never flushed the queue")
	}
	if got := client.QueueLength(); got != 0 {
		t.Errorf("expected empty queue after timer flush, got %d", got)
	}
}

func TestEventsCarrySessionAndPageContext(t *testing.T) {
	stub, server := newCollectorStub()
	defer server.Close()

	client := newTestClient(t, server.URL, Config{JourneyID: "onboarding"})

	client.OnNavigate("https://example.com/pricing")
	client.Track("cta_click", map[string]any{"button": "start-trial"})
	if err := client.Flush(context.Background(), false); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	batch := stub.lastBatch()
	if len(batch) != 2 {
		t.Fatalf("expected page_view + cta_click, got %d events", len(batch))
	}
	if batch[0].EventType != "page_view" {
		t.Errorf("expected page_view first, got %q", batch[0].EventType)
	}
	for _, ev := range batch {
		if ev.SessionID == "" {
			t.Error("event missing session id")
		}
		if ev.PageURL != "https://example.com/pricing" {
			t.Errorf("event missing page context, got %q", ev.PageURL)
		}
		if ev.JourneyID != "onboarding" {
			t.Errorf("event missing journey id, got %q", ev.JourneyID)
		}
		if ev.Timestamp.IsZero() {
			t.Error("event missing timestamp")
		}
	}

	stub.mu.Lock()
	auth := stub.auth
	stub.mu.Unlock()
	if auth != "Bearer jt_test_key" {
		t.Errorf("expected bearer auth header, got %q", auth)
	}
}

func TestIdentifyPersistsAcrossClients(t *testing.T) {
	stub, server := newCollectorStub()
	defer server.Close()

	store := NewMemoryStore()

	first := newTestClient(t, server.URL, Config{Store: store})
	first.Identify("cust_42")
	first.Flush(context.Background(), false)

	second := newTestClient(t, server.URL, Config{Store: store})
	second.Track("return_visit", nil)
	if err := second.Flush(context.Background(), false); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	batch := stub.lastBatch()
	if len(batch) != 1 || batch[0].CustomerID != "cust_42" {
		t.Errorf("expected persisted customer id on new client, got %+v", batch)
	}
}

func TestExpiredEventsAreDiscardedNotRetried(t *testing.T) {
	stub, server := newCollectorStub()
	defer server.Close()

	client := newTestClient(t, server.URL, Config{MaxEventAge: 50 * time.Millisecond})

	client.Track("stale", nil)
	time.Sleep(80 * time.Millisecond)
	client.Track("fresh", nil)

	if err := client.Flush(context.Background(), false); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	batch := stub.lastBatch()
	if len(batch) != 1 || batch[0].EventType != "fresh" {
		t.Errorf("expected only the fresh event delivered, got %+v", batch)
	}
}
