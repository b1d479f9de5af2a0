package journey

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store keys for persisted identifiers.
const (
	sessionIDKey  = "journey-session-id"
	customerIDKey = "journey-customer-id"
)

// SessionManager generates and persists the session identifier that
// correlates events from one browsing session. Session ids are ULIDs
// (millisecond timestamp plus random suffix), so two sessions in the same
// context will not collide in practice.
type SessionManager struct {
	store Store

	mu        sync.Mutex
	cached    string
	startedAt time.Time
}

// NewSessionManager creates a session manager over the given store.
func NewSessionManager(store Store) *SessionManager {
	return &SessionManager{store: store}
}

// SessionID returns the current session id, generating and persisting a new
// one when none is cached or stored.
func (m *SessionManager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != "" {
		return m.cached
	}

	if stored, ok := m.store.Get(sessionIDKey); ok && stored != "" {
		m.cached = stored
		return m.cached
	}

	m.cached = ulid.Make().String()
	m.startedAt = time.Now().UTC()
	m.store.Set(sessionIDKey, m.cached)
	return m.cached
}

// StartedAt reports when the current session was generated by this process.
// Zero for sessions restored from the store.
func (m *SessionManager) StartedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startedAt
}

// Reset discards the cached session id and any persisted copy, forcing
// regeneration on the next SessionID call.
func (m *SessionManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = ""
	m.startedAt = time.Time{}
	m.store.Delete(sessionIDKey)
}
