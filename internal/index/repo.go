package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

const defaultLimit = 20

// UpsertPost inserts or replaces a post, its FTS entry, and its tags within a transaction.
func (db *DB) UpsertPost(p models.PostRecord, buildID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	catsJSON, _ := json.Marshal(nonNil(p.Categories))
	tagsJSON, _ := json.Marshal(nonNil(p.Tags))

	// Upsert posts table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO posts (url, source, title, date, categories, tags, checksum, body, build_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			source     = excluded.source,
			title      = excluded.title,
			date       = excluded.date,
			categories = excluded.categories,
			tags       = excluded.tags,
			checksum   = excluded.checksum,
			body       = excluded.body,
			build_id   = excluded.build_id
	`, p.URL, p.Source, p.Title, p.Date.UTC(), string(catsJSON), string(tagsJSON), p.Checksum, p.Body, buildID)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, p.URL, p.Title, p.Body, p.Tags); err != nil {
		return err
	}

	// Replace tags: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM post_tags WHERE url = ?`, p.URL); err != nil {
		return fmt.Errorf("index: clear tags: %w", err)
	}
	if len(p.Tags) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO post_tags (url, tag) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare tag insert: %w", err)
		}
		defer stmt.Close()
		for _, tag := range p.Tags {
			if _, err := stmt.Exec(p.URL, tag); err != nil {
				return fmt.Errorf("index: insert tag: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeletePost removes a post, its FTS entry, and its tags.
func (db *DB) DeletePost(url string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, url); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM post_tags WHERE url = ?`, url); err != nil {
		return fmt.Errorf("index: delete tags: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM posts WHERE url = ?`, url); err != nil {
		return fmt.Errorf("index: delete post: %w", err)
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a post, or empty string if not found.
func (db *DB) GetChecksum(url string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE url = ?`, url).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil // not found is fine
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns url -> checksum for every catalogued post.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT url, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var url, cs string
		if err := rows.Scan(&url, &cs); err != nil {
			return nil, err
		}
		out[url] = cs
	}
	return out, rows.Err()
}

// ListPosts returns posts newest first, optionally restricted to one tag.
func (db *DB) ListPosts(tag string, limit int) ([]models.PostRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	query := `SELECT url, source, title, date, categories, tags, checksum FROM posts`
	args := []any{}
	if tag != "" {
		query += ` WHERE url IN (SELECT url FROM post_tags WHERE tag = ?)`
		args = append(args, tag)
	}
	query += ` ORDER BY date DESC, url LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	var out []models.PostRecord
	for rows.Next() {
		var (
			p          models.PostRecord
			cats, tags string
		)
		if err := rows.Scan(&p.URL, &p.Source, &p.Title, &p.Date, &cats, &tags, &p.Checksum); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(cats), &p.Categories)
		_ = json.Unmarshal([]byte(tags), &p.Tags)
		out = append(out, p)
	}
	return out, rows.Err()
}

// TagCounts returns the number of posts carrying each tag.
func (db *DB) TagCounts() (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT tag, count(*) FROM post_tags GROUP BY tag`)
	if err != nil {
		return nil, fmt.Errorf("index: tag counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			tag string
			n   int
		)
		if err := rows.Scan(&tag, &n); err != nil {
			return nil, err
		}
		out[tag] = n
	}
	return out, rows.Err()
}

// RecordOutputs replaces the output listing with the files of one build.
func (db *DB) RecordOutputs(buildID string, outputs []models.OutputMeta) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM outputs`); err != nil {
		return fmt.Errorf("index: clear outputs: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO outputs (path, checksum, size, build_id, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare output insert: %w", err)
	}
	defer stmt.Close()
	for _, o := range outputs {
		if _, err := stmt.Exec(o.Path, o.Checksum, o.Size, buildID, o.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("index: insert output: %w", err)
		}
	}
	return tx.Commit()
}

// Outputs returns the files written by the last recorded build.
func (db *DB) Outputs() ([]models.OutputMeta, error) {
	rows, err := db.conn.Query(`SELECT path, checksum, size, updated_at FROM outputs ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: outputs: %w", err)
	}
	defer rows.Close()

	var out []models.OutputMeta
	for rows.Next() {
		var o models.OutputMeta
		if err := rows.Scan(&o.Path, &o.Checksum, &o.Size, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// RecordBuild stores a build summary.
func (db *DB) RecordBuild(b models.Build) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO builds (id, source, started_at, finished_at, posts, pages, copied)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Source, b.StartedAt.UTC(), b.FinishedAt.UTC(), b.Posts, b.Pages, b.Copied)
	if err != nil {
		return fmt.Errorf("index: record build: %w", err)
	}
	return nil
}

// LastBuild returns the most recently finished build.
func (db *DB) LastBuild() (*models.Build, error) {
	var b models.Build
	err := db.conn.QueryRow(`
		SELECT id, source, started_at, finished_at, posts, pages, copied
		FROM builds ORDER BY finished_at DESC LIMIT 1
	`).Scan(&b.ID, &b.Source, &b.StartedAt, &b.FinishedAt, &b.Posts, &b.Pages, &b.Copied)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: last build: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: last build: %w", err)
	}
	return &b, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
