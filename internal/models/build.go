// Package models defines the records kept in the build catalog.
package models

import "time"

// OutputMeta describes one file in the destination tree.
type OutputMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostRecord is the catalog view of a published post.
type PostRecord struct {
	Source     string    `json:"source"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Date       time.Time `json:"date"`
	Categories []string  `json:"categories,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Body       string    `json:"-"`
	Checksum   string    `json:"checksum"`
}

// Build summarises one run of the generator.
type Build struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Posts      int       `json:"posts"`
	Pages      int       `json:"pages"`
	Copied     int       `json:"copied"`
}

// SearchHit is a post matched by a full-text query.
type SearchHit struct {
	URL     string    `json:"url"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Snippet string    `json:"snippet"`
}
