// Package database provides project database instantiation
package database

import (
	"database/sql"
	"fmt"
)

// TableCreator handles the creation of the database schema for a new project.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the project's database
// tables and indexes. All statements are idempotent.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS visitors (
		id TEXT PRIMARY KEY,
		lead_id TEXT,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (lead_id) REFERENCES leads(id)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		visitor_id TEXT NOT NULL,
		consent TEXT NOT NULL DEFAULT 'unknown',
		started_at TIMESTAMP NOT NULL,
		last_seen TIMESTAMP NOT NULL,
		FOREIGN KEY (visitor_id) REFERENCES visitors(id)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		properties TEXT,
		created_at TIMESTAMP NOT NULL,
		session_id TEXT NOT NULL,
		customer_id TEXT,
		journey_id TEXT,
		page_url TEXT,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL UNIQUE,
		email TEXT,
		first_name TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_visitor_id ON sessions(visitor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_last_seen ON sessions(last_seen)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_lead_id ON visitors(lead_id)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_customer_id ON leads(customer_id)`,
}
