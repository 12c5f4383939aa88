package testsupport

import (
	"testing"

	"echonexus/internal/config"
	"echonexus/internal/memory"
)

// MustOpenLog opens an event log for tests and registers cleanup.
func MustOpenLog(t testing.TB, cfg *config.Config) *memory.Log {
	t.Helper()

	log, err := memory.Open(cfg)
	if err != nil {
		t.Fatalf("memory.Open: %v", err)
	}
	t.Cleanup(func() {
		log.Close()
	})
	return log
}
