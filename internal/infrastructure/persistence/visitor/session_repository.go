package visitor

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/domain/visitor"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/persistence/database"
)

// SQLSessionRepository is the SQL-based implementation of the SessionRepository.
type SQLSessionRepository struct {
	db        *database.DB
	projectID string
	logger    *logging.ChanneledLogger
}

// NewSQLSessionRepository creates a new instance of the repository.
func NewSQLSessionRepository(db *database.DB, projectID string, logger *logging.ChanneledLogger) *SQLSessionRepository {
	return &SQLSessionRepository{
		db:        db,
		projectID: projectID,
		logger:    logger,
	}
}

// FindByID retrieves a Session by its identifier. Returns nil without error
// when no session matches.
func (r *SQLSessionRepository) FindByID(id string) (*visitor.Session, error) {
	const query = `
		SELECT id, visitor_id, consent, started_at, last_seen
		FROM sessions
		WHERE id = ?`

	start := time.Now()
	row := r.db.QueryRow(query, id)

	var s visitor.Session
	var startedAt, lastSeen string
	err := row.Scan(&s.ID, &s.VisitorID, &s.Consent, &startedAt, &lastSeen)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load session by ID", "error", err.Error(), "id", id)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if s.StartedAt, err = time.Parse(sqliteTimeFormat, startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse session started_at: %w", err)
	}
	if s.LastSeen, err = time.Parse(sqliteTimeFormat, lastSeen); err != nil {
		return nil, fmt.Errorf("failed to parse session last_seen: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), r.projectID)
	return &s, nil
}

// Upsert creates a session row or refreshes its consent and activity window.
func (r *SQLSessionRepository) Upsert(s *visitor.Session) error {
	const query = `
		INSERT INTO sessions (id, visitor_id, consent, started_at, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET consent = excluded.consent, last_seen = excluded.last_seen`

	start := time.Now()
	_, err := r.db.Exec(query,
		s.ID,
		s.VisitorID,
		s.Consent,
		s.StartedAt.UTC().Format(sqliteTimeFormat),
		s.LastSeen.UTC().Format(sqliteTimeFormat),
	)
	if err != nil {
		r.logger.Database().Error("Session upsert failed", "error", err.Error(), "id", s.ID, "projectId", r.projectID)
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	r.logger.Database().Debug("Session upserted", "id", s.ID, "visitorId", s.VisitorID, "duration", time.Since(start))
	return nil
}

// Touch advances a session's last_seen timestamp.
func (r *SQLSessionRepository) Touch(sessionID string, at time.Time) error {
	const query = `UPDATE sessions SET last_seen = ? WHERE id = ?`

	_, err := r.db.Exec(query, at.UTC().Format(sqliteTimeFormat), sessionID)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Count returns the total number of sessions.
func (r *SQLSessionRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

var _ visitor.SessionRepository = (*SQLSessionRepository)(nil)
