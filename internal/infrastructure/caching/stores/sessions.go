// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/types"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/pkg/config"
)

// SessionsStore implements session state caching operations with project isolation
type SessionsStore struct {
	projectCaches map[string]*types.ProjectSessionCache
	mu            sync.RWMutex
	logger        *logging.ChanneledLogger
}

// NewSessionsStore creates a new sessions cache store
func NewSessionsStore(logger *logging.ChanneledLogger) *SessionsStore {
	if logger != nil {
		logger.Cache().Info("Initializing sessions cache store")
	}
	return &SessionsStore{
		projectCaches: make(map[string]*types.ProjectSessionCache),
		logger:        logger,
	}
}

// InitializeProject creates cache structures for a project
func (ss *SessionsStore) InitializeProject(projectID string) {
	start := time.Now()
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.projectCaches[projectID] == nil {
		ss.projectCaches[projectID] = &types.ProjectSessionCache{
			SessionStates:     make(map[string]*types.SessionState),
			KnownVisitors:     make(map[string]bool),
			VisitorToSessions: make(map[string][]string),
			LastLoaded:        time.Now().UTC(),
		}

		if ss.logger != nil {
			ss.logger.Cache().Info("Project session cache initialized", "projectId", projectID, "duration", time.Since(start))
		}
	}
}

// GetProjectCache safely retrieves a project's session cache
func (ss *SessionsStore) GetProjectCache(projectID string) (*types.ProjectSessionCache, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	cache, exists := ss.projectCaches[projectID]
	return cache, exists
}

// GetSession retrieves cached session state, treating expired entries as misses
func (ss *SessionsStore) GetSession(projectID, sessionID string) (*types.SessionState, bool) {
	start := time.Now()
	cache, exists := ss.GetProjectCache(projectID)
	if !exists {
		if ss.logger != nil {
			ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "session", "projectId", projectID, "sessionId", sessionID, "hit", false, "reason", "project_not_initialized", "duration", time.Since(start))
		}
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	state, found := cache.SessionStates[sessionID]
	if !found {
		if ss.logger != nil {
			ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "session", "projectId", projectID, "sessionId", sessionID, "hit", false, "duration", time.Since(start))
		}
		return nil, false
	}

	if state.IsExpired() {
		if ss.logger != nil {
			ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "session", "projectId", projectID, "sessionId", sessionID, "hit", false, "reason", "expired", "duration", time.Since(start))
		}
		return nil, false
	}

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "session", "projectId", projectID, "sessionId", sessionID, "hit", true, "duration", time.Since(start))
	}
	return state, true
}

// SetSession stores session state and refreshes its expiry
func (ss *SessionsStore) SetSession(projectID string, state *types.SessionState) {
	start := time.Now()
	cache, exists := ss.GetProjectCache(projectID)
	if !exists {
		ss.InitializeProject(projectID)
		cache, _ = ss.GetProjectCache(projectID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	state.LastActivity = time.Now().UTC()
	state.ExpiresAt = state.LastActivity.Add(config.SessionTTL)
	cache.SessionStates[state.SessionID] = state

	if state.VisitorID != "" {
		sessions := cache.VisitorToSessions[state.VisitorID]
		linked := false
		for _, id := range sessions {
			if id == state.SessionID {
				linked = true
				break
			}
		}
		if !linked {
			cache.VisitorToSessions[state.VisitorID] = append(sessions, state.SessionID)
		}
	}

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "set", "type", "session", "projectId", projectID, "sessionId", state.SessionID, "duration", time.Since(start))
	}
}

// TouchSession extends a cached session's expiry without mutating its identity
func (ss *SessionsStore) TouchSession(projectID, sessionID string) bool {
	cache, exists := ss.GetProjectCache(projectID)
	if !exists {
		return false
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	state, found := cache.SessionStates[sessionID]
	if !found || state.IsExpired() {
		return false
	}

	state.LastActivity = time.Now().UTC()
	state.ExpiresAt = state.LastActivity.Add(config.SessionTTL)
	return true
}

// RemoveSession evicts one session from the cache
func (ss *SessionsStore) RemoveSession(projectID, sessionID string) {
	cache, exists := ss.GetProjectCache(projectID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	state, found := cache.SessionStates[sessionID]
	if !found {
		return
	}

	delete(cache.SessionStates, sessionID)
	if state.VisitorID != "" {
		sessions := cache.VisitorToSessions[state.VisitorID]
		for i, id := range sessions {
			if id == sessionID {
				cache.VisitorToSessions[state.VisitorID] = append(sessions[:i], sessions[i+1:]...)
				break
			}
		}
		if len(cache.VisitorToSessions[state.VisitorID]) == 0 {
			delete(cache.VisitorToSessions, state.VisitorID)
		}
	}

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "remove", "type", "session", "projectId", projectID, "sessionId", sessionID)
	}
}

// IsKnownVisitor checks if a visitor has been seen before
func (ss *SessionsStore) IsKnownVisitor(projectID, visitorID string) bool {
	cache, exists := ss.GetProjectCache(projectID)
	if !exists {
		return false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	known, found := cache.KnownVisitors[visitorID]
	return found && known
}

// SetKnownVisitor marks a visitor as seen
func (ss *SessionsStore) SetKnownVisitor(projectID, visitorID string) {
	cache, exists := ss.GetProjectCache(projectID)
	if !exists {
		ss.InitializeProject(projectID)
		cache, _ = ss.GetProjectCache(projectID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.KnownVisitors[visitorID] = true
}

// SessionsForVisitor returns the cached session ids linked to a visitor
func (ss *SessionsStore) SessionsForVisitor(projectID, visitorID string) []string {
	cache, exists := ss.GetProjectCache(projectID)
	if !exists {
		return nil
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	sessions := cache.VisitorToSessions[visitorID]
	result := make([]string, len(sessions))
	copy(result, sessions)
	return result
}

// CountSessions returns the number of cached sessions for a project
func (ss *SessionsStore) CountSessions(projectID string) int {
	cache, exists := ss.GetProjectCache(projectID)
	if !exists {
		return 0
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	return len(cache.SessionStates)
}

// SweepExpired removes expired session states for a project and returns the count removed
func (ss *SessionsStore) SweepExpired(projectID string) int {
	cache, exists := ss.GetProjectCache(projectID)
	if !exists {
		return 0
	}

	cache.Mu.Lock()
	expired := make([]string, 0)
	for id, state := range cache.SessionStates {
		if state.IsExpired() {
			expired = append(expired, id)
		}
	}
	cache.Mu.Unlock()

	for _, id := range expired {
		ss.RemoveSession(projectID, id)
	}

	if len(expired) > 0 && ss.logger != nil {
		ss.logger.Cache().Info("Swept expired sessions", "projectId", projectID, "removed", len(expired))
	}
	return len(expired)
}

// InvalidateProject drops all cached state for a project
func (ss *SessionsStore) InvalidateProject(projectID string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	delete(ss.projectCaches, projectID)
	if ss.logger != nil {
		ss.logger.Cache().Info("Project session cache invalidated", "projectId", projectID)
	}
}

// ProjectIDs returns the ids of all projects with initialized caches
func (ss *SessionsStore) ProjectIDs() []string {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	ids := make([]string, 0, len(ss.projectCaches))
	for id := range ss.projectCaches {
		ids = append(ids, id)
	}
	return ids
}
