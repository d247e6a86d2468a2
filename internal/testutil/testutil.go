// Package testutil provides shared test helpers for source trees and
// destinations.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/quire/internal/storage"
)

// TestDest creates a temporary destination directory with a storage.Provider.
func TestDest(t *testing.T) (string, storage.Provider) {
	t.Helper()
	destDir := t.TempDir()
	store, err := storage.NewFS(destDir)
	if err != nil {
		t.Fatal(err)
	}
	return destDir, store
}

// SourceTree writes files (slash-separated relative path to content) into a
// fresh temporary directory and returns its path.
func SourceTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}
