// Package pager splits the post list into pages for a paginated index.
package pager

import (
	"errors"
	"fmt"
)

// IndexFile is the only file name that is paginated.
const IndexFile = "index.html"

// ErrPageRange is returned for a page number outside 1..TotalPages.
var ErrPageRange = errors.New("page out of range")

// Enabled reports whether a file should be rendered as a paginated index.
func Enabled(perPage int, name string) bool {
	return perPage > 0 && name == IndexFile
}

// TotalPages returns ceil(totalPosts / perPage).
func TotalPages(totalPosts, perPage int) int {
	if perPage <= 0 || totalPosts <= 0 {
		return 0
	}
	return (totalPosts + perPage - 1) / perPage
}

// Pager describes one page of a paginated listing. PreviousPage and NextPage
// are zero at the boundaries.
type Pager[T any] struct {
	Page         int
	PerPage      int
	Posts        []T
	TotalPosts   int
	TotalPages   int
	PreviousPage int
	NextPage     int
}

// New returns page number page of all. Page 1 of an empty list is valid and
// holds no posts.
func New[T any](all []T, perPage, page int) (*Pager[T], error) {
	if perPage <= 0 {
		return nil, fmt.Errorf("pager: per page must be positive, got %d", perPage)
	}
	total := TotalPages(len(all), perPage)
	if page < 1 || page > max(total, 1) {
		return nil, fmt.Errorf("pager: %w: %d of %d", ErrPageRange, page, total)
	}

	start := min((page-1)*perPage, len(all))
	end := min(start+perPage, len(all))
	p := &Pager[T]{
		Page:       page,
		PerPage:    perPage,
		Posts:      all[start:end],
		TotalPosts: len(all),
		TotalPages: total,
	}
	if page > 1 {
		p.PreviousPage = page - 1
	}
	if page < total {
		p.NextPage = page + 1
	}
	return p, nil
}

// Payload returns the `paginator` template data. drop converts each post and
// pathOf maps a page number to its URL.
func (p *Pager[T]) Payload(drop func(T) map[string]any, pathOf func(int) string) map[string]any {
	posts := make([]map[string]any, len(p.Posts))
	for i, post := range p.Posts {
		posts[i] = drop(post)
	}
	out := map[string]any{
		"page":               p.Page,
		"per_page":           p.PerPage,
		"posts":              posts,
		"total_posts":        p.TotalPosts,
		"total_pages":        p.TotalPages,
		"previous_page":      nil,
		"next_page":          nil,
		"previous_page_path": nil,
		"next_page_path":     nil,
	}
	if p.PreviousPage > 0 {
		out["previous_page"] = p.PreviousPage
		out["previous_page_path"] = pathOf(p.PreviousPage)
	}
	if p.NextPage > 0 {
		out["next_page"] = p.NextPage
		out["next_page_path"] = pathOf(p.NextPage)
	}
	return out
}
