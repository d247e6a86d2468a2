package internal

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/storage"
	"github.com/starford/quire/internal/testutil"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	src := testutil.SourceTree(t, map[string]string{
		"_layouts/default.html":       "<html>{{ .content }}</html>",
		"_posts/2024-01-02-hello.md":  "---\nlayout: default\ntags: [go]\n---\nHello **greeting** world.\n",
		"_posts/2024-03-04-second.md": "---\nlayout: default\n---\nSecond post.\n",
		"index.html":                  "---\nlayout: default\n---\n{{ len .site.posts }} posts",
		"css/site.css":                "body {}",
	})
	cfg := NewDefaultConfig()
	cfg.Source = src
	cfg.Destination = filepath.Join(t.TempDir(), "_site")
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "catalog.db")
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "quire.prom")
	return cfg
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRun_BuildsSiteAndCatalog(t *testing.T) {
	cfg := testConfig(t)
	err := Run(context.Background(),
		WithConfig(cfg),
		WithLogOutput(io.Discard),
		WithBuildID("build-1"),
	)
	if err != nil {
		t.Fatal(err)
	}

	index, err := os.ReadFile(filepath.Join(cfg.Destination, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(index) != "<html>2 posts</html>" {
		t.Errorf("index.html = %q", index)
	}
	if _, err := os.Stat(filepath.Join(cfg.Destination, "2024", "01", "02", "hello.html")); err != nil {
		t.Errorf("post not written: %v", err)
	}

	posts, err := ListPosts(cfg, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 {
		t.Fatalf("len(posts) = %d, want 2", len(posts))
	}
	if posts[0].URL != "/2024/03/04/second.html" || posts[1].Title != "Hello" {
		t.Errorf("posts = %+v", posts)
	}

	tagged, err := ListPosts(cfg, "go", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(tagged) != 1 || tagged[0].URL != "/2024/01/02/hello.html" {
		t.Errorf("tagged = %+v", tagged)
	}

	hits, err := SearchPosts(cfg, "greeting", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].URL != "/2024/01/02/hello.html" {
		t.Errorf("hits = %+v", hits)
	}

	counts, err := TagCounts(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 1 || counts["go"] != 1 {
		t.Errorf("tag counts = %v", counts)
	}

	status, err := Status(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if b := status.Build; b.ID != "build-1" || b.Posts != 2 || b.Pages != 1 || b.Copied != 1 {
		t.Errorf("build = %+v", b)
	}
	if len(status.Outputs) != 4 || len(status.Changed()) != 0 {
		t.Errorf("outputs = %+v", status.Outputs)
	}

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(prom), `quire_documents_rendered_total{kind="post"} 2`) {
		t.Errorf("metrics textfile missing post counter:\n%s", prom)
	}
}

func TestRun_FailedBuildReturnsError(t *testing.T) {
	cfg := testConfig(t)
	bad := filepath.Join(cfg.Source, "broken.html")
	if err := os.WriteFile(bad, []byte("---\nlayout: default\n---\n{{ .page.title "), 0o644); err != nil {
		t.Fatal(err)
	}
	err := Run(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard))
	if err == nil {
		t.Fatal("expected template error")
	}
	if !strings.Contains(err.Error(), "broken.html") {
		t.Errorf("error should name the file: %v", err)
	}
	if _, err := os.Stat(cfg.Metrics.Textfile); err != nil {
		t.Errorf("metrics should be written for failed builds: %v", err)
	}
}

func TestListPosts_CatalogDisabled(t *testing.T) {
	cfg := NewDefaultConfig()
	if _, err := ListPosts(cfg, "", 0); err == nil {
		t.Fatal("expected error when catalog is not configured")
	}
}

func TestRun_CleanRemovesStaleOutputs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Clean = true
	stale := filepath.Join(cfg.Destination, "old", "gone.html")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Run(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale output should be removed, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Destination, "css", "site.css")); err != nil {
		t.Errorf("copied file should survive: %v", err)
	}
}

func TestStatus_ReportsChangedOutputs(t *testing.T) {
	cfg := testConfig(t)
	if err := Run(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Destination, "index.html"), []byte("edited"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(cfg.Destination, "css", "site.css")); err != nil {
		t.Fatal(err)
	}

	status, err := Status(cfg)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]OutputState{}
	for _, o := range status.Changed() {
		got[o.Path] = o.State
	}
	want := map[string]OutputState{
		"index.html":   OutputModified,
		"css/site.css": OutputMissing,
	}
	if len(got) != len(want) {
		t.Fatalf("changed = %v, want %v", got, want)
	}
	for path, state := range want {
		if got[path] != state {
			t.Errorf("%s = %q, want %q", path, got[path], state)
		}
	}
}

func TestRun_DestinationEqualToSourceRejected(t *testing.T) {
	cfg := testConfig(t)
	cfg.Destination = cfg.Source
	cfg.Clean = true

	err := Run(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard))
	if err == nil || !strings.Contains(err.Error(), "must not be or contain the source") {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Source, "_posts", "2024-01-02-hello.md")); err != nil {
		t.Errorf("source post should survive: %v", err)
	}
}

func TestRun_CleanKeepsMetricsInDestination(t *testing.T) {
	cfg := testConfig(t)
	cfg.Clean = true
	cfg.Metrics.Textfile = filepath.Join(cfg.Destination, "quire.prom")

	for range 2 {
		if err := Run(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(cfg.Metrics.Textfile); err != nil {
		t.Errorf("metrics textfile should survive pruning: %v", err)
	}
}

func TestProtectedPaths(t *testing.T) {
	root := t.TempDir()
	got := protectedPaths(root,
		filepath.Join(root, "db", "catalog.db"),
		filepath.Join(root, "quire.prom"),
		filepath.Join(t.TempDir(), "outside.json"),
		"",
	)
	for _, want := range []string{"db/catalog.db", "db/catalog.db-wal", "db/catalog.db-shm", "quire.prom"} {
		if _, ok := got[want]; !ok {
			t.Errorf("%s not protected: %v", want, got)
		}
	}
	for p := range got {
		if strings.HasPrefix(p, "..") {
			t.Errorf("path outside root protected: %s", p)
		}
	}
}

func TestPrune_SkipsProtected(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"keep.html", "catalog.db", "stale.html"} {
		if _, err := store.Write(p, []byte(p)); err != nil {
			t.Fatal(err)
		}
	}
	keep := protectedPaths(store.Root(), filepath.Join(store.Root(), "catalog.db"))
	outputs := []models.OutputMeta{{Path: "keep.html"}}
	if err := prune(store, outputs, keep, newLogger(io.Discard, 0)); err != nil {
		t.Fatal(err)
	}

	left, err := store.List("")
	if err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, f := range left {
		paths = append(paths, f.Path)
	}
	if strings.Join(paths, ",") != "catalog.db,keep.html" {
		t.Errorf("left = %v", paths)
	}
}

func TestRun_TracingWritesSpans(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tracing = TracingConfig{Enabled: true, File: filepath.Join(t.TempDir(), "spans.json")}

	if err := Run(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(cfg.Tracing.File)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{`"site.process"`, `"site.posts"`, `"site.archives"`} {
		if !strings.Contains(string(data), name) {
			t.Errorf("span %s not exported:\n%s", name, data)
		}
	}
}
