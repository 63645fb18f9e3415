package store

import (
	"path/filepath"
	"testing"
)

// createTestStore opens a file-backed store in a temp dir so WAL mode applies.
func createTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// backends returns every KV implementation, keyed by subtest name.
func backends(t *testing.T) map[string]KV {
	t.Helper()
	return map[string]KV{
		"sqlite": createTestStore(t),
		"memory": NewMemory(),
	}
}
