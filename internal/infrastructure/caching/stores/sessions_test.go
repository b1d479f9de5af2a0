package stores

import (
	"testing"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/types"
)

func TestSetAndGetSession(t *testing.T) {
	store := NewSessionsStore(nil)

	state := &types.SessionState{
		SessionID: "sess-1",
		VisitorID: "vis-1",
	}
	store.SetSession("proj-a", state)

	got, found := store.GetSession("proj-a", "sess-1")
	if !found {
		t.Fatal("expected session to be cached")
	}
	if got.VisitorID != "vis-1" {
		t.Errorf("VisitorID = %q, want %q", got.VisitorID, "vis-1")
	}
	if got.ExpiresAt.IsZero() {
		t.Error("SetSession should assign an expiry")
	}

	if _, found := store.GetSession("proj-a", "missing"); found {
		t.Error("unknown session id should be a miss")
	}
	if _, found := store.GetSession("proj-b", "sess-1"); found {
		t.Error("sessions must not leak across projects")
	}
}

func TestExpiredSessionIsMiss(t *testing.T) {
	store := NewSessionsStore(nil)
	store.SetSession("proj-a", &types.SessionState{SessionID: "sess-1"})

	cache, _ := store.GetProjectCache("proj-a")
	cache.Mu.Lock()
	cache.SessionStates["sess-1"].ExpiresAt = time.Now().UTC().Add(-time.Minute)
	cache.Mu.Unlock()

	if _, found := store.GetSession("proj-a", "sess-1"); found {
		t.Error("expired session should be treated as a miss")
	}
}

func TestTouchSessionExtendsExpiry(t *testing.T) {
	store := NewSessionsStore(nil)
	store.SetSession("proj-a", &types.SessionState{SessionID: "sess-1"})

	cache, _ := store.GetProjectCache("proj-a")
	cache.Mu.Lock()
	cache.SessionStates["sess-1"].ExpiresAt = time.Now().UTC().Add(time.Second)
	before := cache.SessionStates["sess-1"].ExpiresAt
	cache.Mu.Unlock()

	if !store.TouchSession("proj-a", "sess-1") {
		t.Fatal("TouchSession should succeed for a live session")
	}

	cache.Mu.RLock()
	after := cache.SessionStates["sess-1"].ExpiresAt
	cache.Mu.RUnlock()
	if !after.After(before) {
		t.Error("TouchSession should push the expiry forward")
	}

	if store.TouchSession("proj-a", "missing") {
		t.Error("TouchSession should fail for an unknown session")
	}
	if store.TouchSession("proj-b", "sess-1") {
		t.Error("TouchSession should fail for an uninitialized project")
	}
}

func TestRemoveSessionCleansVisitorIndex(t *testing.T) {
	store := NewSessionsStore(nil)
	store.SetSession("proj-a", &types.SessionState{SessionID: "sess-1", VisitorID: "vis-1"})
	store.SetSession("proj-a", &types.SessionState{SessionID: "sess-2", VisitorID: "vis-1"})

	if got := store.SessionsForVisitor("proj-a", "vis-1"); len(got) != 2 {
		t.Fatalf("expected 2 sessions for visitor, got %d", len(got))
	}

	store.RemoveSession("proj-a", "sess-1")
	got := store.SessionsForVisitor("proj-a", "vis-1")
	if len(got) != 1 || got[0] != "sess-2" {
		t.Errorf("expected only sess-2 to remain, got %v", got)
	}

	store.RemoveSession("proj-a", "sess-2")
	if got := store.SessionsForVisitor("proj-a", "vis-1"); len(got) != 0 {
		t.Errorf("expected visitor index to be emptied, got %v", got)
	}
}

func TestSweepExpired(t *testing.T) {
	store := NewSessionsStore(nil)
	store.SetSession("proj-a", &types.SessionState{SessionID: "live"})
	store.SetSession("proj-a", &types.SessionState{SessionID: "stale-1"})
	store.SetSession("proj-a", &types.SessionState{SessionID: "stale-2"})

	cache, _ := store.GetProjectCache("proj-a")
	cache.Mu.Lock()
	past := time.Now().UTC().Add(-time.Minute)
	cache.SessionStates["stale-1"].ExpiresAt = past
	cache.SessionStates["stale-2"].ExpiresAt = past
	cache.Mu.Unlock()

	if removed := store.SweepExpired("proj-a"); removed != 2 {
		t.Errorf("SweepExpired removed %d sessions, want 2", removed)
	}
	if count := store.CountSessions("proj-a"); count != 1 {
		t.Errorf("CountSessions = %d after sweep, want 1", count)
	}
	if _, found := store.GetSession("proj-a", "live"); !found {
		t.Error("live session should survive the sweep")
	}

	if removed := store.SweepExpired("proj-missing"); removed != 0 {
		t.Errorf("sweep of unknown project removed %d, want 0", removed)
	}
}

func TestKnownVisitors(t *testing.T) {
	store := NewSessionsStore(nil)

	if store.IsKnownVisitor("proj-a", "vis-1") {
		t.Error("fresh visitor should be unknown")
	}

	store.SetKnownVisitor("proj-a", "vis-1")
	if !store.IsKnownVisitor("proj-a", "vis-1") {
		t.Error("visitor should be known after SetKnownVisitor")
	}
	if store.IsKnownVisitor("proj-b", "vis-1") {
		t.Error("known visitors must not leak across projects")
	}
}

func TestInvalidateProject(t *testing.T) {
	store := NewSessionsStore(nil)
	store.SetSession("proj-a", &types.SessionState{SessionID: "sess-1"})
	store.SetKnownVisitor("proj-a", "vis-1")

	store.InvalidateProject("proj-a")

	if _, found := store.GetSession("proj-a", "sess-1"); found {
		t.Error("session should be gone after project invalidation")
	}
	if store.IsKnownVisitor("proj-a", "vis-1") {
		t.Error("known visitor should be gone after project invalidation")
	}
	if ids := store.ProjectIDs(); len(ids) != 0 {
		t.Errorf("expected no initialized projects, got %v", ids)
	}
}
