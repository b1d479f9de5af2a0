package services

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	domainEvents "github.com/AtRiskMedia/journeytrack-go/internal/domain/events"
	domainVisitor "github.com/AtRiskMedia/journeytrack-go/internal/domain/visitor"
	cacheManager "github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/manager"
	infraDatabase "github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/performance"
	persistenceDatabase "github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/project"
)

// newIngestionFixture builds a project context over a throwaway sqlite file so
// ProcessBatch can be exercised against real storage.
func newIngestionFixture(t *testing.T) (*project.Context, *EventProcessingService) {
	t.Helper()

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{DefaultLevel: slog.LevelError})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	conn, err := persistenceDatabase.NewConnection("sqlite3", filepath.Join(t.TempDir(), "journeytrack.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := infraDatabase.NewTableCreator().CreateSchema(conn.DB); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	cm := cacheManager.NewManager(logger)
	projectCtx := &project.Context{
		ProjectID:    "acme",
		Config:       &project.Config{ProjectID: "acme", APIKey: "jt_test_key"},
		Database:     &project.Database{Conn: conn, ProjectID: "acme"},
		CacheManager: cm,
		Logger:       logger,
	}

	svc := NewEventProcessingService(messaging.NewEventBroadcaster(cm, logger), logger, performance.NewTracker(nil))
	return projectCtx, svc
}

func countRows(t *testing.T, projectCtx *project.Context, table string) int {
	t.Helper()
	var n int
	if err := projectCtx.Database.Conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s rows: %v", table, err)
	}
	return n
}

func TestProcessBatchPersistsSessionsAndVisitors(t *testing.T) {
	projectCtx, svc := newIngestionFixture(t)
	now := time.Now().UTC()

	result, err := svc.ProcessBatch(projectCtx, &BatchRequest{Events: []domainEvents.TrackingEvent{
		{EventType: "page_view", SessionID: "sess-1", Timestamp: now},
		{EventType: "click", SessionID: "sess-1", Timestamp: now},
		{EventType: "page_view", SessionID: "sess-2", Timestamp: now},
	}})
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if result.Accepted != 3 {
		t.Fatalf("accepted = %d, want 3", result.Accepted)
	}

	if got := countRows(t, projectCtx, "events"); got != 3 {
		t.Errorf("events rows = %d, want 3", got)
	}
	if got := countRows(t, projectCtx, "sessions"); got != 2 {
		t.Errorf("sessions rows = %d, want 2", got)
	}
	if got := countRows(t, projectCtx, "visitors"); got != 2 {
		t.Errorf("visitors rows = %d, want 2", got)
	}

	var linked int
	err = projectCtx.Database.Conn.QueryRow(
		"SELECT COUNT(*) FROM sessions s JOIN visitors v ON v.id = s.visitor_id").Scan(&linked)
	if err != nil {
		t.Fatalf("failed to join sessions to visitors: %v", err)
	}
	if linked != 2 {
		t.Errorf("sessions linked to visitors = %d, want 2", linked)
	}

	if _, found := projectCtx.CacheManager.GetSession("acme", "sess-1"); !found {
		t.Error("registered session should be cached")
	}
}

func TestProcessBatchReusesExistingSession(t *testing.T) {
	projectCtx, svc := newIngestionFixture(t)
	now := time.Now().UTC()

	batch := &BatchRequest{Events: []domainEvents.TrackingEvent{
		{EventType: "page_view", SessionID: "sess-1", Timestamp: now},
	}}
	if _, err := svc.ProcessBatch(projectCtx, batch); err != nil {
		t.Fatalf("first batch failed: %v", err)
	}

	// Later batch for the same session hits the cached state.
	if _, err := svc.ProcessBatch(projectCtx, &BatchRequest{Events: []domainEvents.TrackingEvent{
		{EventType: "click", SessionID: "sess-1", Timestamp: now},
	}}); err != nil {
		t.Fatalf("second batch failed: %v", err)
	}

	if got := countRows(t, projectCtx, "events"); got != 2 {
		t.Errorf("events rows = %d, want 2", got)
	}
	if got := countRows(t, projectCtx, "sessions"); got != 1 {
		t.Errorf("sessions rows = %d, want 1", got)
	}
	if got := countRows(t, projectCtx, "visitors"); got != 1 {
		t.Errorf("visitors rows = %d, want 1", got)
	}
}

func TestProcessBatchKeepsStoredVisitorAfterCacheLoss(t *testing.T) {
	projectCtx, svc := newIngestionFixture(t)
	now := time.Now().UTC()

	if err := projectCtx.VisitorRepo().Create(&domainVisitor.Visitor{ID: "vis-known", CreatedAt: now}); err != nil {
		t.Fatalf("failed to create visitor: %v", err)
	}
	if err := projectCtx.SessionRepo().Upsert(&domainVisitor.Session{
		ID:        "sess-1",
		VisitorID: "vis-known",
		Consent:   "granted",
		StartedAt: now,
		LastSeen:  now,
	}); err != nil {
		t.Fatalf("failed to upsert session: %v", err)
	}

	// The cache has never seen this session, so ingestion must fall back to
	// the stored record instead of minting a new visitor.
	if _, err := svc.ProcessBatch(projectCtx, &BatchRequest{Events: []domainEvents.TrackingEvent{
		{EventType: "click", SessionID: "sess-1", Timestamp: now},
	}}); err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}

	if got := countRows(t, projectCtx, "visitors"); got != 1 {
		t.Errorf("visitors rows = %d, want 1", got)
	}

	stored, err := projectCtx.SessionRepo().FindByID("sess-1")
	if err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if stored.VisitorID != "vis-known" {
		t.Errorf("session visitor = %q, want %q", stored.VisitorID, "vis-known")
	}
	if stored.Consent != "granted" {
		t.Errorf("session consent = %q, want %q", stored.Consent, "granted")
	}
}

func TestProcessBatchRejectsInvalidEventsIndividually(t *testing.T) {
	projectCtx, svc := newIngestionFixture(t)
	now := time.Now().UTC()

	result, err := svc.ProcessBatch(projectCtx, &BatchRequest{Events: []domainEvents.TrackingEvent{
		{EventType: "page_view", SessionID: "sess-1", Timestamp: now},
		{EventType: "", SessionID: "sess-1", Timestamp: now},
	}})
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if result.Accepted != 1 || result.Rejected != 1 {
		t.Errorf("accepted/rejected = %d/%d, want 1/1", result.Accepted, result.Rejected)
	}
	if got := countRows(t, projectCtx, "events"); got != 1 {
		t.Errorf("events rows = %d, want 1", got)
	}
}
