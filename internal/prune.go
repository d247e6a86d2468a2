package internal

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/storage"
)

// sqliteSidecars are the files SQLite keeps next to a WAL-mode database.
var sqliteSidecars = []string{"", "-wal", "-shm", "-journal"}

// protectedPaths returns the destination-relative paths of the given files
// that live under root. Catalog paths also cover their SQLite sidecars.
func protectedPaths(root string, files ...string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		for _, suffix := range sqliteSidecars {
			rel, err := filepath.Rel(root, abs+suffix)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				continue
			}
			out[filepath.ToSlash(rel)] = struct{}{}
		}
	}
	return out
}

// prune deletes every destination file that is neither among outputs nor in
// protected.
func prune(store storage.Provider, outputs []models.OutputMeta, protected map[string]struct{}, logger *slog.Logger) error {
	keep := make(map[string]struct{}, len(outputs)+len(protected))
	for _, o := range outputs {
		keep[o.Path] = struct{}{}
	}
	for p := range protected {
		keep[p] = struct{}{}
	}
	existing, err := store.List("")
	if err != nil {
		return err
	}
	removed := 0
	for _, f := range existing {
		if _, ok := keep[f.Path]; ok {
			continue
		}
		if err := store.Delete(f.Path); err != nil {
			return err
		}
		removed++
		logger.Debug("removed stale output", slog.String("path", f.Path))
	}
	if removed > 0 {
		logger.Info("Destination pruned", slog.Int("removed", removed))
	}
	return nil
}
