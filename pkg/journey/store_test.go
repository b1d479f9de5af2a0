package journey

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journey", "state.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}

	if err := store.Set(sessionIDKey, "01J0000000000000000000TEST"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := store.Set(consentKey, "true"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	// A second store over the same file sees the persisted state, the way a
	// reloaded page sees localStorage.
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	if v, ok := reopened.Get(sessionIDKey); !ok || v != "01J0000000000000000000TEST" {
		t.Errorf("expected persisted session id, got %q (ok=%v)", v, ok)
	}

	if err := reopened.Delete(sessionIDKey); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := reopened.Get(sessionIDKey); ok {
		t.Error("expected session id removed")
	}
	if v, ok := reopened.Get(consentKey); !ok || v != "true" {
		t.Errorf("delete removed unrelated key, consent=%q (ok=%v)", v, ok)
	}
}

func TestFileStoreToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("expected corrupt file tolerated, got %v", err)
	}
	if _, ok := store.Get(sessionIDKey); ok {
		t.Error("expected empty store after corrupt file")
	}
}
