package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/site"
	"github.com/starford/quire/internal/storage"
	"github.com/starford/quire/internal/tpl"
)

// recordBuild stores the posts, outputs and summary of a finished build in
// the catalog.
func recordBuild(cfg *Config, buildID string, s *site.Site, started, finished time.Time, logger *slog.Logger) error {
	db, err := index.Open(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	records := make([]models.PostRecord, 0, len(s.Posts))
	for _, p := range s.Posts {
		records = append(records, models.PostRecord{
			Source:     p.Source,
			URL:        p.URL(),
			Title:      p.Title,
			Date:       p.Date,
			Categories: p.Categories,
			Tags:       p.Tags,
			Body:       tpl.StripHTML(p.Content()),
			Checksum:   checksum.Sum([]byte(p.Output)),
		})
	}

	upserted, deleted, err := index.Sync(db, buildID, records, logger)
	if err != nil {
		return err
	}
	if err := db.RecordOutputs(buildID, s.Outputs); err != nil {
		return err
	}
	if err := db.RecordBuild(models.Build{
		ID:         buildID,
		Source:     s.Source(),
		StartedAt:  started,
		FinishedAt: finished,
		Posts:      s.Stats.Posts,
		Pages:      s.Stats.Pages,
		Copied:     s.Stats.Copied,
	}); err != nil {
		return err
	}

	logger.Info("Catalog updated",
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.Int("upserted", upserted),
		slog.Int("deleted", deleted),
		slog.Int("outputs", len(s.Outputs)))
	return nil
}

func openCatalog(cfg *Config) (*index.DB, error) {
	if !cfg.Catalog.Enabled() {
		return nil, fmt.Errorf("catalog is not configured (set catalog.path)")
	}
	return index.Open(cfg.Catalog.Path)
}

// ListPosts reads catalogued posts newest first, optionally restricted to tag.
func ListPosts(cfg *Config, tag string, limit int) ([]models.PostRecord, error) {
	db, err := openCatalog(cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.ListPosts(tag, limit)
}

// SearchPosts runs a full-text query against the catalogued posts.
func SearchPosts(cfg *Config, query string, limit int) ([]models.SearchHit, error) {
	db, err := openCatalog(cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Search(query, limit)
}

// TagCounts returns how many catalogued posts carry each tag.
func TagCounts(cfg *Config) (map[string]int, error) {
	db, err := openCatalog(cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.TagCounts()
}

// OutputState is the verdict on one recorded output file.
type OutputState string

const (
	OutputOK       OutputState = "ok"
	OutputModified OutputState = "modified"
	OutputMissing  OutputState = "missing"
)

// OutputStatus pairs a recorded output with its current state on disk.
type OutputStatus struct {
	models.OutputMeta
	State OutputState `json:"state"`
}

// BuildStatus is the last catalogued build and the condition of its outputs.
type BuildStatus struct {
	Build   models.Build   `json:"build"`
	Outputs []OutputStatus `json:"outputs"`
}

// Changed reports the outputs that no longer match what the build wrote.
func (b *BuildStatus) Changed() []OutputStatus {
	var out []OutputStatus
	for _, o := range b.Outputs {
		if o.State != OutputOK {
			out = append(out, o)
		}
	}
	return out
}

// Status reads the most recent build from the catalog and checks every
// output it recorded against the destination directory.
func Status(cfg *Config) (*BuildStatus, error) {
	db, err := openCatalog(cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	build, err := db.LastBuild()
	if err != nil {
		return nil, err
	}
	outputs, err := db.Outputs()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewFS(cfg.Destination)
	if err != nil {
		return nil, err
	}

	status := &BuildStatus{Build: *build, Outputs: make([]OutputStatus, 0, len(outputs))}
	for _, o := range outputs {
		st := OutputStatus{OutputMeta: o, State: OutputOK}
		data, err := store.Read(o.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			st.State = OutputMissing
		case err != nil:
			return nil, err
		case checksum.Sum(data) != o.Checksum:
			st.State = OutputModified
		}
		status.Outputs = append(status.Outputs, st)
	}
	return status, nil
}
