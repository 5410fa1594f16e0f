package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/rtmpl/internal/report"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with one clean and one problematic entry.
func createTestRun(id, collectionHash string) Run {
	return Run{
		ID:     id,
		Source: "testdata/" + id + ".yaml",
		Report: &report.Report{
			CollectionHash: collectionHash,
			MaxDepth:       9,
			Entries: []report.Entry{
				{Key: "greeting", Value: "Hello world", Unreplaced: []string{}, Impasse: []string{}},
				{Key: "loop", Value: "loop", Unreplaced: []string{}, Impasse: []string{"loop"}},
			},
		},
	}
}
