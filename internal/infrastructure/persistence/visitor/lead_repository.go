package visitor

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/domain/visitor"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/persistence/database"
)

// SQLLeadRepository is the SQL-based implementation of the LeadRepository.
type SQLLeadRepository struct {
	db        *database.DB
	projectID string
	logger    *logging.ChanneledLogger
}

// NewSQLLeadRepository creates a new instance of the repository.
func NewSQLLeadRepository(db *database.DB, projectID string, logger *logging.ChanneledLogger) *SQLLeadRepository {
	return &SQLLeadRepository{
		db:        db,
		projectID: projectID,
		logger:    logger,
	}
}

// FindByCustomerID retrieves a Lead by its reported customer id. Returns nil
// without error when no lead matches.
func (r *SQLLeadRepository) FindByCustomerID(customerID string) (*visitor.Lead, error) {
	const query = `
		SELECT id, customer_id, COALESCE(email, ''), COALESCE(first_name, ''), created_at
		FROM leads
		WHERE customer_id = ?`

	start := time.Now()
	row := r.db.QueryRow(query, customerID)

	lead, err := scanLead(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load lead by customer ID", "error", err.Error(), "customerId", customerID)
		return nil, fmt.Errorf("failed to load lead: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), r.projectID)
	return lead, nil
}

// Store persists a new Lead; storing an already-known customer id is a no-op.
func (r *SQLLeadRepository) Store(lead *visitor.Lead) error {
	const query = `
		INSERT INTO leads (id, customer_id, email, first_name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(customer_id) DO NOTHING`

	start := time.Now()
	_, err := r.db.Exec(query,
		lead.ID,
		lead.CustomerID,
		nullableString(lead.Email),
		nullableString(lead.FirstName),
		lead.CreatedAt.UTC().Format(sqliteTimeFormat),
	)
	if err != nil {
		r.logger.Database().Error("Lead insert failed", "error", err.Error(), "customerId", lead.CustomerID, "projectId", r.projectID)
		return fmt.Errorf("failed to store lead: %w", err)
	}

	r.logger.Database().Info("Lead stored", "customerId", lead.CustomerID, "projectId", r.projectID, "duration", time.Since(start))
	return nil
}

// All returns up to limit leads, newest first.
func (r *SQLLeadRepository) All(limit int) ([]*visitor.Lead, error) {
	const query = `
		SELECT id, customer_id, COALESCE(email, ''), COALESCE(first_name, ''), created_at
		FROM leads
		ORDER BY created_at DESC
		LIMIT ?`

	start := time.Now()
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []*visitor.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lead iteration failed: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), r.projectID)
	return leads, nil
}

// Count returns the total number of leads.
func (r *SQLLeadRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM leads`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*visitor.Lead, error) {
	var lead visitor.Lead
	var createdAt string
	if err := row.Scan(&lead.ID, &lead.CustomerID, &lead.Email, &lead.FirstName, &createdAt); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(sqliteTimeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lead created_at: %w", err)
	}
	lead.CreatedAt = parsed
	return &lead, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ visitor.LeadRepository = (*SQLLeadRepository)(nil)
