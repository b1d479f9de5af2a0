package journey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Defaults for the server-side tracker's deliberate retry policy. Unlike the
// Client, which re-queues immediately and leans on the next timer tick, the
// server tracker retries each batch a bounded number of times with
// exponential backoff and then drops it.
const (
	DefaultMaxRetries     = 3
	DefaultRequestTimeout = 10 * time.Second
)

// ServerConfig configures a ServerTracker.
type ServerConfig struct {
	APIURL    string
	APIKey    string
	JourneyID string

	// BatchSize and FlushInterval behave as in Config.
	BatchSize     int
	FlushInterval time.Duration

	// MaxRetries bounds delivery attempts per batch beyond the first.
	// After they are exhausted the batch is dropped and the failure logged.
	MaxRetries int

	// RequestTimeout applies per delivery attempt.
	RequestTimeout time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// ServerTracker is the backend variant of the tracking client: no consent
// gate or session persistence (callers attribute events explicitly), and a
// bounded exponential-backoff retry policy in place of the browser SDK's
// re-queue-and-wait behavior.
type ServerTracker struct {
	endpoint       string
	apiKey         string
	journeyID      string
	batchSize      int
	flushInterval  time.Duration
	maxRetries     int
	requestTimeout time.Duration

	queue      *eventQueue
	httpClient *http.Client
	logger     *slog.Logger
	newBackOff func() backoff.BackOff

	flushMu   sync.Mutex
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewServerTracker constructs a ServerTracker and starts its flush loop.
func NewServerTracker(cfg ServerConfig) (*ServerTracker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("journey: API key is required")
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("journey: API URL is required")
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}

	t := &ServerTracker{
		endpoint:       strings.TrimRight(cfg.APIURL, "/") + "/api/v1/events",
		apiKey:         cfg.APIKey,
		journeyID:      cfg.JourneyID,
		batchSize:      cfg.BatchSize,
		flushInterval:  cfg.FlushInterval,
		maxRetries:     cfg.MaxRetries,
		requestTimeout: cfg.RequestTimeout,
		queue:          &eventQueue{},
		httpClient:     cfg.HTTPClient,
		logger:         cfg.Logger,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
	t.newBackOff = func() backoff.BackOff { return backoff.NewExponentialBackOff() }

	go t.flushLoop()

	return t, nil
}

// Track buffers an event attributed to the given session. Reaching the batch
// size threshold flushes immediately.
func (t *ServerTracker) Track(sessionID, eventType string, properties map[string]any) {
	if eventType == "" || sessionID == "" {
		return
	}

	ev := Event{
		EventType:  eventType,
		Properties: properties,
		Timestamp:  time.Now().UTC(),
		SessionID:  sessionID,
		JourneyID:  t.journeyID,
	}

	if t.queue.append(ev) >= t.batchSize {
		t.Flush(context.Background())
	}
}

// Flush snapshots the buffer and delivers it, retrying with exponential
// backoff up to the configured attempt budget. A batch that still fails is
// dropped: at-least-once delivery degrades to best-effort rather than letting
// the queue grow without bound.
func (t *ServerTracker) Flush(ctx context.Context) error {
	t.flushMu.Lock()
	defer t.flushMu.Unlock()

	batch := t.queue.snapshot()
	if len(batch) == 0 {
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(t.newBackOff(), uint64(t.maxRetries)),
		ctx,
	)

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		return t.deliver(ctx, batch)
	}, policy)
	if err != nil {
		t.logger.Error("Event batch dropped after retries exhausted",
			"endpoint", t.endpoint,
			"batchSize", len(batch),
			"attempts", attempts,
			"error", err.Error())
		return fmt.Errorf("failed to deliver event batch after %d attempts: %w", attempts, err)
	}

	return nil
}

// QueueLength reports the number of events awaiting delivery.
func (t *ServerTracker) QueueLength() int {
	return t.queue.len()
}

// Close stops the flush loop and attempts one final delivery.
func (t *ServerTracker) Close(ctx context.Context) error {
	t.closeOnce.Do(func() {
		close(t.stop)
	})
	<-t.done
	return t.Flush(ctx)
}

func (t *ServerTracker) flushLoop() {
	defer close(t.done)

	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if t.queue.len() > 0 {
				t.Flush(context.Background())
			}
		case <-t.stop:
			return
		}
	}
}

func (t *ServerTracker) deliver(ctx context.Context, batch []Event) error {
	body, err := json.Marshal(batchPayload{Events: batch, APIKey: t.apiKey})
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to encode event batch: %w", err))
	}

	attemptCtx, cancel := context.WithTimeout(ctx, t.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build delivery request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivery request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("delivery rejected with status %d", resp.StatusCode)
	}

	return nil
}
