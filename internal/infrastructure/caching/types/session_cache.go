// Package types defines cache data structures
package types

import (
	"sync"
	"time"
)

// SessionState holds the cached activity state of one tracked session
type SessionState struct {
	SessionID    string    `json:"sessionId"`
	VisitorID    string    `json:"visitorId"`
	CustomerID   string    `json:"customerId,omitempty"`
	Consent      string    `json:"consent"`
	LastActivity time.Time `json:"lastActivity"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// IsExpired checks if the session state has expired
func (s *SessionState) IsExpired() bool {
	return time.Now().UTC().After(s.ExpiresAt)
}

// ProjectSessionCache holds all cached session state for a project
type ProjectSessionCache struct {
	SessionStates     map[string]*SessionState
	KnownVisitors     map[string]bool
	VisitorToSessions map[string][]string
	LastLoaded        time.Time
	Mu                sync.RWMutex
}
