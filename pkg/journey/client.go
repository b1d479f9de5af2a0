package journey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Default client tuning, matching the browser SDKs this package ports.
const (
	DefaultBatchSize     = 50
	DefaultFlushInterval = 5 * time.Second
	DefaultMaxEventAge   = 30 * time.Minute
)

// Config configures a Client. APIURL and APIKey are required; everything else
// has working defaults.
type Config struct {
	// APIURL is the base URL of the JourneyTrack collection endpoint,
	// e.g. "https://track.example.com".
	APIURL string

	// APIKey authenticates delivery requests. Missing keys are a fatal
	// configuration error at construction time.
	APIKey string

	// JourneyID optionally tags every event with a journey identifier.
	JourneyID string

	// BatchSize triggers an immediate flush once the buffer reaches this
	// many events. Defaults to DefaultBatchSize.
	BatchSize int

	// FlushInterval is the periodic flush cadence. Defaults to
	// DefaultFlushInterval.
	FlushInterval time.Duration

	// MaxEventAge discards events that have waited longer than this for
	// delivery. Defaults to DefaultMaxEventAge.
	MaxEventAge time.Duration

	// DoNotTrack disables collection entirely, mirroring the browser DNT
	// signal. Hosts should wire their environment's equivalent here.
	DoNotTrack bool

	// RequireConsent starts the consent gate uninitialized so that nothing
	// is collected until GrantConsent is called. Without it, absence of a
	// stored refusal permits collection.
	RequireConsent bool

	// Store persists session, customer, and consent state. Defaults to an
	// in-memory store.
	Store Store

	// HTTPClient performs delivery requests. Defaults to a plain client.
	HTTPClient *http.Client

	// Logger receives delivery failure logs. Defaults to a discard logger;
	// tracking failures are not a user-visible error surface.
	Logger *slog.Logger
}

// Client buffers tracked events and delivers them in batches. It is owned by
// the host's composition root and passed by reference; there is no package
// level singleton. All methods are safe for concurrent use.
type Client struct {
	endpoint      string
	apiKey        string
	journeyID     string
	batchSize     int
	flushInterval time.Duration
	maxEventAge   time.Duration

	queue      *eventQueue
	gate       *ConsentGate
	sessions   *SessionManager
	store      Store
	httpClient *http.Client
	logger     *slog.Logger

	mu         sync.Mutex
	customerID string
	currentURL string

	flushMu   sync.Mutex
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New constructs a Client and starts its periodic flush loop. It fails only
// on malformed configuration.
func New(cfg Config) (*Client, error) {
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
	if cfg.MaxEventAge <= 0 {
		cfg.MaxEventAge = DefaultMaxEventAge
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		endpoint:      strings.TrimRight(cfg.APIURL, "/") + "/api/v1/events",
		apiKey:        cfg.APIKey,
		journeyID:     cfg.JourneyID,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		maxEventAge:   cfg.MaxEventAge,
		queue:         &eventQueue{},
		gate:          NewConsentGate(cfg.Store, cfg.DoNotTrack, cfg.RequireConsent),
		sessions:      NewSessionManager(cfg.Store),
		store:         cfg.Store,
		httpClient:    cfg.HTTPClient,
		logger:        cfg.Logger,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}

	if customerID, ok := cfg.Store.Get(customerIDKey); ok {
		c.customerID = customerID
	}

	go c.flushLoop()

	return c, nil
}

// Track buffers an event enriched with the session id, timestamp, and current
// page URL. It is a no-op while the consent gate denies collection. Reaching
// the batch size threshold flushes immediately instead of waiting for the
// timer; delivery failures re-queue silently.
func (c *Client) Track(eventType string, properties map[string]any) {
	if !c.gate.Allows() {
		return
	}
	if eventType == "" {
		return
	}

	c.mu.Lock()
	customerID := c.customerID
	pageURL := c.currentURL
	c.mu.Unlock()

	ev := Event{
		EventType:  eventType,
		Properties: properties,
		Timestamp:  time.Now().UTC(),
		SessionID:  c.sessions.SessionID(),
		CustomerID: customerID,
		JourneyID:  c.journeyID,
		PageURL:    pageURL,
	}

	if c.queue.append(ev) >= c.batchSize {
		c.Flush(context.Background(), false)
	}
}

// OnNavigate is the explicit navigation hook replacing the browser SDKs'
// history patching: the host router calls it on every route change, which
// records a page_view event and updates the URL used to enrich later events.
func (c *Client) OnNavigate(url string) {
	c.mu.Lock()
	c.currentURL = url
	c.mu.Unlock()

	c.Track("page_view", map[string]any{"url": url})
}

// Identify associates subsequent events with a customer id and persists the
// association across restarts.
func (c *Client) Identify(customerID string) {
	if !c.gate.Allows() {
		return
	}

	c.mu.Lock()
	c.customerID = customerID
	c.mu.Unlock()
	c.store.Set(customerIDKey, customerID)

	c.Track("identify", map[string]any{"customerId": customerID})
}

// Flush snapshots the buffer and attempts one delivery. On failure the batch
// returns to the front of the queue for the next tick, unless force is set
// (shutdown semantics: the batch is sent once and never re-queued). Events
// older than the configured maximum age are discarded, not retried.
func (c *Client) Flush(ctx context.Context, force bool) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	batch := c.dropExpired(c.queue.snapshot())
	if len(batch) == 0 {
		return nil
	}

	if err := c.deliver(ctx, batch); err != nil {
		if !force {
			c.queue.requeue(batch)
		}
		c.logger.Warn("Event batch delivery failed",
			"endpoint", c.endpoint,
			"batchSize", len(batch),
			"requeued", !force,
			"error", err.Error())
		return err
	}

	return nil
}

// QueueLength reports the number of events awaiting delivery.
func (c *Client) QueueLength() int {
	return c.queue.len()
}

// SessionID returns the current session identifier.
func (c *Client) SessionID() string {
	return c.sessions.SessionID()
}

// ResetSession discards the current session id and accumulated per-session
// state; the next tracked event starts a fresh session.
func (c *Client) ResetSession() {
	c.sessions.Reset()
	c.mu.Lock()
	c.currentURL = ""
	c.mu.Unlock()
}

// ConsentState returns the privacy gate's current state.
func (c *Client) ConsentState() ConsentState {
	return c.gate.State()
}

// GrantConsent activates collection from this point forward. Nothing is
// captured retroactively for the period consent was withheld.
func (c *Client) GrantConsent() {
	c.gate.Grant()
}

// RevokeConsent disables collection and drops any undelivered events.
func (c *Client) RevokeConsent() {
	c.gate.Revoke()
	c.queue.clear()
}

// Close stops the flush loop and performs one forced flush of whatever is
// buffered. Delivery failure during Close is not retried.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
	return c.Flush(ctx, true)
}

func (c *Client) flushLoop() {
	defer close(c.done)

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if c.queue.len() > 0 {
				c.Flush(context.Background(), false)
			}
		case <-c.stop:
			return
		}
	}
}

func (c *Client) dropExpired(batch []Event) []Event {
	cutoff := time.Now().UTC().Add(-c.maxEventAge)
	kept := batch[:0]
	dropped := 0
	for _, ev := range batch {
		if ev.Timestamp.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, ev)
	}
	if dropped > 0 {
		c.logger.Warn("Discarded events past maximum retry age",
			"dropped", dropped,
			"maxEventAge", c.maxEventAge)
	}
	return kept
}

func (c *Client) deliver(ctx context.Context, batch []Event) error {
	body, err := json.Marshal(batchPayload{Events: batch, APIKey: c.apiKey})
	if err != nil {
		return fmt.Errorf("failed to encode event batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
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
