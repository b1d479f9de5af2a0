// Package manager composes the cache stores behind a single facade
package manager

import (
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/types"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
)

// Manager provides unified access to all cache stores
type Manager struct {
	sessions *stores.SessionsStore
	logger   *logging.ChanneledLogger
}

// NewManager creates a cache manager with all stores initialized
func NewManager(logger *logging.ChanneledLogger) *Manager {
	return &Manager{
		sessions: stores.NewSessionsStore(logger),
		logger:   logger,
	}
}

// InitializeProject prepares cache structures for a project
func (m *Manager) InitializeProject(projectID string) {
	m.sessions.InitializeProject(projectID)
}

// InvalidateProject drops all cached state for a project
func (m *Manager) InvalidateProject(projectID string) {
	m.sessions.InvalidateProject(projectID)
}

// GetSession retrieves cached session state
func (m *Manager) GetSession(projectID, sessionID string) (*types.SessionState, bool) {
	return m.sessions.GetSession(projectID, sessionID)
}

// SetSession stores session state
func (m *Manager) SetSession(projectID string, state *types.SessionState) {
	m.sessions.SetSession(projectID, state)
}

// TouchSession extends a session's cached expiry
func (m *Manager) TouchSession(projectID, sessionID string) bool {
	return m.sessions.TouchSession(projectID, sessionID)
}

// RemoveSession evicts one session
func (m *Manager) RemoveSession(projectID, sessionID string) {
	m.sessions.RemoveSession(projectID, sessionID)
}

// IsKnownVisitor checks whether a visitor has been seen before
func (m *Manager) IsKnownVisitor(projectID, visitorID string) bool {
	return m.sessions.IsKnownVisitor(projectID, visitorID)
}

// SetKnownVisitor marks a visitor as seen
func (m *Manager) SetKnownVisitor(projectID, visitorID string) {
	m.sessions.SetKnownVisitor(projectID, visitorID)
}

// SessionsForVisitor lists cached session ids for a visitor
func (m *Manager) SessionsForVisitor(projectID, visitorID string) []string {
	return m.sessions.SessionsForVisitor(projectID, visitorID)
}

// CountSessions reports the cached session count for a project
func (m *Manager) CountSessions(projectID string) int {
	return m.sessions.CountSessions(projectID)
}

// SweepExpired removes expired sessions for a project
func (m *Manager) SweepExpired(projectID string) int {
	return m.sessions.SweepExpired(projectID)
}

// ProjectIDs lists projects with initialized caches
func (m *Manager) ProjectIDs() []string {
	return m.sessions.ProjectIDs()
}
