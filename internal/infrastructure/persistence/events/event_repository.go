// Package events provides the concrete SQL-based implementation for tracking
// event persistence.
//
// PURPOSE: Store accepted tracking events as they arrive and answer the
// aggregate queries behind the dashboard. Hot session state is the cache
// layer's job; this is the durable record.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/domain/analytics"
	domainEvents "github.com/AtRiskMedia/journeytrack-go/internal/domain/events"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/security"
)

// sqliteTimeFormat is the timestamp layout used across the schema.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// SQLEventRepository handles tracking event persistence to the database.
type SQLEventRepository struct {
	db        *database.DB
	projectID string
	logger    *logging.ChanneledLogger
}

// NewSQLEventRepository creates a new instance of the repository.
func NewSQLEventRepository(db *database.DB, projectID string, logger *logging.ChanneledLogger) *SQLEventRepository {
	return &SQLEventRepository{
		db:        db,
		projectID: projectID,
		logger:    logger,
	}
}

// StoreBatch persists a batch of accepted events in a single transaction.
// Event ids are assigned here; client-supplied ids are not trusted.
func (r *SQLEventRepository) StoreBatch(batch []*domainEvents.TrackingEvent) error {
	if len(batch) == 0 {
		return nil
	}

	const query = `
		INSERT INTO events (id, event_type, properties, created_at, session_id, customer_id, journey_id, page_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing event batch insert",
		"batchSize", len(batch),
		"projectId", r.projectID)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin event batch transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range batch {
		var properties any
		if len(ev.Properties) > 0 {
			encoded, err := json.Marshal(ev.Properties)
			if err != nil {
				return fmt.Errorf("failed to encode event properties: %w", err)
			}
			properties = string(encoded)
		}

		ev.ID = security.GenerateULID()
		_, err = stmt.Exec(
			ev.ID,
			ev.EventType,
			properties,
			ev.Timestamp.UTC().Format(sqliteTimeFormat),
			ev.SessionID,
			nullable(ev.CustomerID),
			nullable(ev.JourneyID),
			nullable(ev.PageURL),
		)
		if err != nil {
			r.logger.Database().Error("Event insert failed",
				"error", err.Error(),
				"eventType", ev.EventType,
				"sessionId", ev.SessionID,
				"projectId", r.projectID)
			return fmt.Errorf("failed to store event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event batch: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Event batch insert completed",
		"batchSize", len(batch),
		"projectId", r.projectID,
		"duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, r.projectID)
	return nil
}

// CountEventsInRange returns the number of events within [start, end).
func (r *SQLEventRepository) CountEventsInRange(start, end time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM events WHERE created_at >= ? AND created_at < ?`

	queryStart := time.Now()
	var count int
	err := r.db.QueryRow(query, start.UTC().Format(sqliteTimeFormat), end.UTC().Format(sqliteTimeFormat)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(queryStart), r.projectID)
	return count, nil
}

// HourlyBinsInRange aggregates event volume per hour within [start, end).
func (r *SQLEventRepository) HourlyBinsInRange(start, end time.Time) ([]analytics.HourlyBin, error) {
	const query = `
		SELECT strftime('%Y-%m-%d %H:00:00', created_at) AS hour, COUNT(*)
		FROM events
		WHERE created_at >= ? AND created_at < ?
		GROUP BY hour
		ORDER BY hour`

	queryStart := time.Now()
	rows, err := r.db.Query(query, start.UTC().Format(sqliteTimeFormat), end.UTC().Format(sqliteTimeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly bins: %w", err)
	}
	defer rows.Close()

	var bins []analytics.HourlyBin
	for rows.Next() {
		var hourStr string
		var count int
		if err := rows.Scan(&hourStr, &count); err != nil {
			return nil, fmt.Errorf("failed to scan hourly bin: %w", err)
		}
		hour, err := time.Parse(sqliteTimeFormat, hourStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse bin hour %q: %w", hourStr, err)
		}
		bins = append(bins, analytics.HourlyBin{Hour: hour.UTC(), Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hourly bin iteration failed: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(queryStart), r.projectID)
	return bins, nil
}

// TopEventTypes returns the most frequent event types within [start, end).
func (r *SQLEventRepository) TopEventTypes(start, end time.Time, limit int) ([]analytics.EventTypeCount, error) {
	const query = `
		SELECT event_type, COUNT(*) AS count
		FROM events
		WHERE created_at >= ? AND created_at < ?
		GROUP BY event_type
		ORDER BY count DESC
		LIMIT ?`

	queryStart := time.Now()
	rows, err := r.db.Query(query, start.UTC().Format(sqliteTimeFormat), end.UTC().Format(sqliteTimeFormat), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top event types: %w", err)
	}
	defer rows.Close()

	var counts []analytics.EventTypeCount
	for rows.Next() {
		var c analytics.EventTypeCount
		if err := rows.Scan(&c.EventType, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan event type count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event type iteration failed: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(queryStart), r.projectID)
	return counts, nil
}

// RecentSessions summarizes the most recently active sessions.
func (r *SQLEventRepository) RecentSessions(limit int) ([]analytics.SessionSummary, error) {
	const query = `
		SELECT s.id, s.visitor_id,
			COALESCE((SELECT l.customer_id FROM leads l JOIN visitors v ON v.lead_id = l.id WHERE v.id = s.visitor_id), ''),
			COUNT(e.id),
			MIN(e.created_at), MAX(e.created_at),
			COALESCE((SELECT e2.page_url FROM events e2 WHERE e2.session_id = s.id ORDER BY e2.created_at ASC LIMIT 1), '')
		FROM sessions s
		JOIN events e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY MAX(e.created_at) DESC
		LIMIT ?`

	queryStart := time.Now()
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent sessions: %w", err)
	}
	defer rows.Close()

	var summaries []analytics.SessionSummary
	for rows.Next() {
		var s analytics.SessionSummary
		var firstSeen, lastSeen string
		if err := rows.Scan(&s.SessionID, &s.VisitorID, &s.CustomerID, &s.EventCount, &firstSeen, &lastSeen, &s.EntryURL); err != nil {
			return nil, fmt.Errorf("failed to scan session summary: %w", err)
		}
		if s.FirstSeen, err = time.Parse(sqliteTimeFormat, firstSeen); err != nil {
			return nil, fmt.Errorf("failed to parse session first seen: %w", err)
		}
		if s.LastSeen, err = time.Parse(sqliteTimeFormat, lastSeen); err != nil {
			return nil, fmt.Errorf("failed to parse session last seen: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session summary iteration failed: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(queryStart), r.projectID)
	return summaries, nil
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ analytics.EventRepository = (*SQLEventRepository)(nil)
