package testsupport

import (
	"testing"

	"lectern/internal/config"
	"lectern/internal/queue"
	"lectern/internal/transcripts"
)

// MustOpenStore opens a queue store against the test config and registers
// cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open queue store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close queue store: %v", err)
		}
	})
	return store
}

// MustOpenTranscripts opens a transcript store against the test config and
// registers cleanup.
func MustOpenTranscripts(t testing.TB, cfg *config.Config) *transcripts.Store {
	t.Helper()
	store, err := transcripts.Open(cfg)
	if err != nil {
		t.Fatalf("open transcript store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close transcript store: %v", err)
		}
	})
	return store
}
