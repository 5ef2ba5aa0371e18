package testsupport

import (
	"testing"

	"multitrack/internal/config"
	"multitrack/internal/history"
)

// MustOpenStore opens the history store for cfg and closes it when the test ends.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
