// Package project provides database abstraction for project isolation.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/persistence/database"
)

var (
	connectionPools = make(map[string]*database.DB)
	poolMutex       = &sync.RWMutex{}
)

// Database wraps a project's pooled connection.
type Database struct {
	Conn      *database.DB
	ProjectID string
	UseTurso  bool
	isPooled  bool
}

// NewDatabase opens or reuses the pooled connection for a project. Turso is
// preferred when enabled and fully configured, otherwise a local SQLite file
// under the project's db directory is used.
func NewDatabase(cfg *Config, logger *logging.ChanneledLogger) (*Database, error) {
	poolKey := getPoolKey(cfg)

	poolMutex.Lock()
	defer poolMutex.Unlock()

	if pooledConn, exists := connectionPools[poolKey]; exists {
		if err := pooledConn.Ping(); err == nil {
			return &Database{
				Conn:      pooledConn,
				ProjectID: cfg.ProjectID,
				UseTurso:  cfg.TursoDatabase != "",
				isPooled:  true,
			}, nil
		}
		pooledConn.Close()
		delete(connectionPools, poolKey)
	}

	var conn *database.DB
	var err error
	var useTurso bool

	if cfg.TursoEnabled && cfg.TursoDatabase != "" && cfg.TursoToken != "" {
		connStr := cfg.TursoDatabase + "?authToken=" + cfg.TursoToken
		conn, err = database.NewConnectionWithLogger("libsql", connStr, logger)
		if err != nil {
			return nil, fmt.Errorf("project %s degraded: turso connection failed: %w", cfg.ProjectID, err)
		}
		useTurso = true
	} else {
		dbDir := filepath.Dir(cfg.SQLitePath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		conn, err = database.NewConnectionWithLogger("sqlite3", cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("sqlite connection failed: %w", err)
		}
	}

	connectionPools[poolKey] = conn

	return &Database{
		Conn:      conn,
		ProjectID: cfg.ProjectID,
		UseTurso:  useTurso,
		isPooled:  true,
	}, nil
}

func getPoolKey(cfg *Config) string {
	if cfg.TursoDatabase != "" {
		return fmt.Sprintf("turso:%s", cfg.ProjectID)
	}
	return fmt.Sprintf("sqlite:%s", cfg.SQLitePath)
}

// Close is a no-op for pooled connections; the pool owns their lifecycle.
func (db *Database) Close() error {
	if db.isPooled {
		return nil
	}
	if db.Conn != nil {
		return db.Conn.Close()
	}
	return nil
}

// GetConnectionInfo returns database connection information for logging.
func (db *Database) GetConnectionInfo() string {
	poolStatus := ""
	if db.isPooled {
		poolStatus = " (pooled)"
	}
	if db.UseTurso {
		return fmt.Sprintf("Turso (project: %s)%s", db.ProjectID, poolStatus)
	}
	return fmt.Sprintf("SQLite (project: %s)%s", db.ProjectID, poolStatus)
}

// GetPoolStats reports pool totals and live connection counts.
func GetPoolStats() map[string]int {
	poolMutex.RLock()
	defer poolMutex.RUnlock()

	stats := make(map[string]int)
	stats["total"] = len(connectionPools)
	active := 0
	for _, conn := range connectionPools {
		if conn.Ping() == nil {
			active++
		}
	}
	stats["active"] = active
	return stats
}

// CloseAllPools closes every pooled connection. Used during shutdown.
func CloseAllPools() {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	for key, conn := range connectionPools {
		conn.Close()
		delete(connectionPools, key)
	}
}
