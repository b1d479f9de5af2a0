// Package visitor provides the concrete SQL-based implementations of
// the visitor domain repositories (Visitor, Session, Lead).
package visitor

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/domain/visitor"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/persistence/database"
)

const sqliteTimeFormat = "2006-01-02 15:04:05"

// SQLVisitorRepository is the SQL-based implementation of the VisitorRepository.
type SQLVisitorRepository struct {
	db        *database.DB
	projectID string
	logger    *logging.ChanneledLogger
}

// NewSQLVisitorRepository creates a new instance of the repository.
func NewSQLVisitorRepository(db *database.DB, projectID string, logger *logging.ChanneledLogger) *SQLVisitorRepository {
	return &SQLVisitorRepository{
		db:        db,
		projectID: projectID,
		logger:    logger,
	}
}

// FindByID retrieves a Visitor by its unique identifier. Returns nil without
// error when no visitor matches.
func (r *SQLVisitorRepository) FindByID(id string) (*visitor.Visitor, error) {
	const query = `
		SELECT id, lead_id, created_at
		FROM visitors
		WHERE id = ?`

	start := time.Now()
	row := r.db.QueryRow(query, id)

	var v visitor.Visitor
	var createdAt string
	err := row.Scan(&v.ID, &v.LeadID, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Database().Debug("Visitor not found by ID", "id", id, "projectId", r.projectID)
			return nil, nil
		}
		r.logger.Database().Error("Failed to load visitor by ID", "error", err.Error(), "id", id)
		return nil, fmt.Errorf("failed to load visitor: %w", err)
	}

	if v.CreatedAt, err = time.Parse(sqliteTimeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse visitor created_at: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), r.projectID)
	return &v, nil
}

// Create persists a new Visitor.
func (r *SQLVisitorRepository) Create(v *visitor.Visitor) error {
	const query = `INSERT INTO visitors (id, lead_id, created_at) VALUES (?, ?, ?)`

	start := time.Now()
	_, err := r.db.Exec(query, v.ID, v.LeadID, v.CreatedAt.UTC().Format(sqliteTimeFormat))
	if err != nil {
		r.logger.Database().Error("Visitor insert failed", "error", err.Error(), "id", v.ID, "projectId", r.projectID)
		return fmt.Errorf("failed to create visitor: %w", err)
	}

	r.logger.Database().Debug("Visitor created", "id", v.ID, "projectId", r.projectID, "duration", time.Since(start))
	return nil
}

// LinkToLead associates a visitor with an identified lead.
func (r *SQLVisitorRepository) LinkToLead(visitorID, leadID string) error {
	const query = `UPDATE visitors SET lead_id = ? WHERE id = ?`

	_, err := r.db.Exec(query, leadID, visitorID)
	if err != nil {
		r.logger.Database().Error("Visitor lead link failed", "error", err.Error(), "visitorId", visitorID, "leadId", leadID)
		return fmt.Errorf("failed to link visitor to lead: %w", err)
	}
	return nil
}

// Exists reports whether a visitor row exists.
func (r *SQLVisitorRepository) Exists(visitorID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM visitors WHERE id = ?)`

	var exists bool
	if err := r.db.QueryRow(query, visitorID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check visitor existence: %w", err)
	}
	return exists, nil
}

// Count returns the total number of visitors.
func (r *SQLVisitorRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM visitors`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count visitors: %w", err)
	}
	return count, nil
}

var _ visitor.VisitorRepository = (*SQLVisitorRepository)(nil)
