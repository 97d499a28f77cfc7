// Package testutil provides shared helpers for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/kithhq/kith/internal/index"
	"github.com/kithhq/kith/internal/storage"
)

// TestDB opens a throwaway sqlite index in a temp dir and registers cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates an empty vault in a temp dir and returns its storage
// provider along with the root path.
func TestVault(t *testing.T) (*storage.FS, string) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}
	return store, root
}
