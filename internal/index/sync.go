package index

import (
	"log/slog"

	"github.com/starford/quire/internal/models"
)

// Sync brings the catalog up to date with the posts of one build:
//   - new/changed posts are upserted
//   - posts no longer produced are deleted
//
// It returns the number of posts upserted and deleted.
func Sync(db Catalog, buildID string, posts []models.PostRecord, logger *slog.Logger) (upserted, deleted int, err error) {
	checksums, err := db.AllChecksums()
	if err != nil {
		return 0, 0, err
	}

	seen := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		seen[p.URL] = struct{}{}

		if cs, ok := checksums[p.URL]; ok && cs == p.Checksum {
			continue
		}
		if err := db.UpsertPost(p, buildID); err != nil {
			return upserted, deleted, err
		}
		upserted++
		logger.Debug("sync: catalogued", slog.String("url", p.URL))
	}

	// Remove stale entries.
	for url := range checksums {
		if _, ok := seen[url]; ok {
			continue
		}
		if err := db.DeletePost(url); err != nil {
			logger.Warn("sync: delete failed", slog.String("url", url), slog.String("error", err.Error()))
			continue
		}
		deleted++
		logger.Debug("sync: removed stale", slog.String("url", url))
	}

	return upserted, deleted, nil
}
