package index

import "github.com/starford/quire/internal/models"

// Catalog defines the build catalog operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Catalog interface {
	UpsertPost(p models.PostRecord, buildID string) error
	DeletePost(url string) error
	GetChecksum(url string) (string, error)
	AllChecksums() (map[string]string, error)
	ListPosts(tag string, limit int) ([]models.PostRecord, error)
	TagCounts() (map[string]int, error)
	Search(query string, limit int) ([]models.SearchHit, error)
	RecordOutputs(buildID string, outputs []models.OutputMeta) error
	Outputs() ([]models.OutputMeta, error)
	RecordBuild(b models.Build) error
	LastBuild() (*models.Build, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
