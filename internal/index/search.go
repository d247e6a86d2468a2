package index

import (
	"database/sql"
	"strings"
	"unicode/utf8"

	"github.com/starford/quire/internal/models"
)

const snippetRunes = 160

// searchTerms splits a free-text query into its words. Every term must match
// for a post to be a hit.
func searchTerms(query string) []string {
	return strings.Fields(query)
}

func scanHits(rows *sql.Rows) ([]models.SearchHit, error) {
	defer rows.Close()
	var out []models.SearchHit
	for rows.Next() {
		var h models.SearchHit
		if err := rows.Scan(&h.URL, &h.Title, &h.Date, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// excerpt returns up to snippetRunes runes of body centred on the first
// case-insensitive occurrence of term.
func excerpt(body, term string) string {
	at := strings.Index(strings.ToLower(body), strings.ToLower(term))
	if at < 0 {
		at = 0
	}
	start := max(0, at-snippetRunes/2)
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	rest := body[start:]
	if utf8.RuneCountInString(rest) <= snippetRunes {
		return prefix(start) + rest
	}
	return prefix(start) + string([]rune(rest)[:snippetRunes]) + "..."
}

func prefix(start int) string {
	if start > 0 {
		return "..."
	}
	return ""
}
