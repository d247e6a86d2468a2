package index

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "quire-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func post(url, title, checksum string, date time.Time, tags ...string) models.PostRecord {
	return models.PostRecord{
		Source:   "_posts/" + title + ".md",
		URL:      url,
		Title:    title,
		Date:     date,
		Tags:     tags,
		Body:     title + " body text",
		Checksum: checksum,
	}
}

var (
	jan = time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)
	feb = time.Date(2008, 2, 2, 0, 0, 0, 0, time.UTC)
)

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"posts", "post_tags", "outputs", "builds"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPost(post("/2008/01/01/hello.html", "hello", "abc123", jan, "go"), "b1"); err != nil {
		t.Fatalf("UpsertPost: %v", err)
	}
	cs, err := db.GetChecksum("/2008/01/01/hello.html")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestListPosts(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(post("/a.html", "a", "1", jan, "code"), "b1")
	_ = db.UpsertPost(post("/b.html", "b", "2", feb, "code", "food"), "b1")

	all, err := db.ListPosts("", 0)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(all) != 2 || all[0].URL != "/b.html" {
		t.Fatalf("posts = %+v, want newest first", all)
	}
	if !all[0].Date.Equal(feb) {
		t.Errorf("date = %v, want %v", all[0].Date, feb)
	}
	if len(all[0].Tags) != 2 {
		t.Errorf("tags = %v", all[0].Tags)
	}

	food, err := db.ListPosts("food", 10)
	if err != nil {
		t.Fatalf("ListPosts(food): %v", err)
	}
	if len(food) != 1 || food[0].URL != "/b.html" {
		t.Errorf("food posts = %+v", food)
	}
}

func TestTagCounts(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(post("/a.html", "a", "1", jan, "code"), "b1")
	_ = db.UpsertPost(post("/b.html", "b", "2", feb, "code", "food"), "b1")

	counts, err := db.TagCounts()
	if err != nil {
		t.Fatalf("TagCounts: %v", err)
	}
	if counts["code"] != 2 || counts["food"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestDeletePost(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(post("/del.html", "del", "x", jan, "gone"), "b1")

	if err := db.DeletePost("/del.html"); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	cs, _ := db.GetChecksum("/del.html")
	if cs != "" {
		t.Errorf("deleted post still has checksum %q", cs)
	}
	counts, _ := db.TagCounts()
	if len(counts) != 0 {
		t.Errorf("expected no tags after delete, got %v", counts)
	}
}

func TestWritesReportStatementFailures(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPost(post("/x.html", "x", "1", jan, "go"), "b1"); err != nil {
		t.Fatalf("UpsertPost: %v", err)
	}
	if _, err := db.conn.Exec(`DROP TABLE post_tags`); err != nil {
		t.Fatal(err)
	}

	if err := db.DeletePost("/x.html"); err == nil {
		t.Error("DeletePost should fail when tags cannot be removed")
	}
	if cs, _ := db.GetChecksum("/x.html"); cs != "1" {
		t.Errorf("post should survive a failed delete, checksum = %q", cs)
	}
	if err := db.UpsertPost(post("/y.html", "y", "2", jan), "b1"); err == nil {
		t.Error("UpsertPost should fail when tags cannot be cleared")
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(post("/up.html", "old", "1", jan, "x"), "b1")
	_ = db.UpsertPost(post("/up.html", "new", "2", jan, "y"), "b2")

	cs, _ := db.GetChecksum("/up.html")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	counts, _ := db.TagCounts()
	if counts["x"] != 0 {
		t.Error("old tag should be removed on upsert")
	}
	if counts["y"] != 1 {
		t.Error("new tag should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("/nonexistent.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	p := post("/s.html", "Search Me", "1", jan)
	p.Body = "uniqueword appears here"
	_ = db.UpsertPost(p, "b1")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].URL != "/s.html" {
		t.Fatalf("search results = %+v, want 1 hit for /s.html", results)
	}
	if !results[0].Date.Equal(jan) {
		t.Errorf("date = %v, want %v", results[0].Date, jan)
	}
}

func TestSearch_AllTermsMustMatch(t *testing.T) {
	db := testDB(t)
	a := post("/a.html", "A", "1", jan)
	a.Body = "alpha beta"
	b := post("/b.html", "B", "2", feb)
	b.Body = "alpha gamma"
	_ = db.UpsertPost(a, "b1")
	_ = db.UpsertPost(b, "b1")

	results, err := db.Search("alpha gamma", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].URL != "/b.html" {
		t.Errorf("search results = %+v, want only /b.html", results)
	}

	results, err = db.Search("   ", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("blank query returned %d hits", len(results))
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("x", 200) + " needle " + strings.Repeat("y", 200)
	got := excerpt(long, "NEEDLE")
	if !strings.Contains(got, "needle") {
		t.Errorf("excerpt %q does not contain the term", got)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt %q should be elided on both sides", got)
	}
	if got := excerpt("short body", "missing"); got != "short body" {
		t.Errorf("excerpt = %q", got)
	}
}

func TestOutputs(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	first := []models.OutputMeta{
		{Path: "index.html", Checksum: "a", Size: 10, UpdatedAt: now},
		{Path: "old.html", Checksum: "b", Size: 3, UpdatedAt: now},
	}
	if err := db.RecordOutputs("b1", first); err != nil {
		t.Fatalf("RecordOutputs: %v", err)
	}
	if err := db.RecordOutputs("b2", first[:1]); err != nil {
		t.Fatalf("RecordOutputs: %v", err)
	}
	got, err := db.Outputs()
	if err != nil {
		t.Fatalf("Outputs: %v", err)
	}
	if len(got) != 1 || got[0].Path != "index.html" || got[0].Size != 10 {
		t.Errorf("outputs = %+v", got)
	}
}

func TestBuilds(t *testing.T) {
	db := testDB(t)
	if _, err := db.LastBuild(); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("LastBuild on empty catalog: err = %v, want ErrNotFound", err)
	}
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	_ = db.RecordBuild(models.Build{ID: "b1", StartedAt: start, FinishedAt: start.Add(time.Second), Posts: 1})
	_ = db.RecordBuild(models.Build{ID: "b2", StartedAt: start.Add(time.Hour), FinishedAt: start.Add(time.Hour + time.Second), Posts: 2})

	b, err := db.LastBuild()
	if err != nil {
		t.Fatalf("LastBuild: %v", err)
	}
	if b.ID != "b2" || b.Posts != 2 {
		t.Errorf("last build = %+v", b)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	posts := []models.PostRecord{
		post("/a.html", "a", "1", jan),
		post("/b.html", "b", "2", feb),
	}
	up, del, err := Sync(db, "b1", posts, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if up != 2 || del != 0 {
		t.Errorf("first sync = %d upserted, %d deleted", up, del)
	}

	// a unchanged, b dropped, c new.
	posts = []models.PostRecord{
		post("/a.html", "a", "1", jan),
		post("/c.html", "c", "3", feb),
	}
	up, del, err = Sync(db, "b2", posts, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if up != 1 || del != 1 {
		t.Errorf("second sync = %d upserted, %d deleted, want 1, 1", up, del)
	}
	sums, _ := db.AllChecksums()
	if _, ok := sums["/b.html"]; ok {
		t.Error("stale post not removed")
	}
	if len(sums) != 2 {
		t.Errorf("checksums = %v", sums)
	}
}
