package content

import (
	"cmp"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/tpl"
)

var postFilename = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)(\.[^./]+)$`)

// dateLayouts are the formats accepted for a front-matter date override.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// IsValidFilename reports whether name looks like YYYY-MM-DD-slug.ext with
// a real calendar date.
func IsValidFilename(name string) bool {
	_, _, err := parsePostFilename(name)
	return err == nil
}

func parsePostFilename(name string) (time.Time, string, error) {
	m := postFilename.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, "", fmt.Errorf("%w: %s", apperr.ErrInvalidFilename, name)
	}
	date, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %s: %v", apperr.ErrInvalidFilename, name, err)
	}
	return date, m[4], nil
}

// Post is a dated entry read from a _posts directory.
type Post struct {
	Document

	Date       time.Time
	Slug       string
	Title      string
	Categories []string
	Tags       []string
	Published  bool

	permalink string
}

// PostOptions carries what NewPost needs beyond the file itself.
type PostOptions struct {
	// Categories derived from the directories around _posts.
	Categories []string
	// Permalink is a style name or a custom pattern.
	Permalink string
}

// NewPost reads the post at file. source is the path used in errors and
// logs; its base name must be a valid post filename.
func NewPost(file, source string, opts PostOptions) (*Post, error) {
	name := filepath.Base(file)
	date, slug, err := parsePostFilename(name)
	if err != nil {
		return nil, apperr.Wrap(apperr.PhaseRead, source, err)
	}

	p := &Post{
		Document:  newDocument(source, "", name),
		Date:      date,
		Slug:      slug,
		permalink: opts.Permalink,
	}
	if err := p.ReadFile(file, true); err != nil {
		return nil, err
	}

	fm := p.FrontMatter
	if raw, ok := fm["date"]; ok && raw != nil {
		d, err := frontMatterDate(raw)
		if err != nil {
			return nil, apperr.Wrap(apperr.PhaseFrontMatter, source, err)
		}
		p.Date = d
	}
	p.Published = fm.Bool("published", true)
	p.Title = fm.String("title")
	if p.Title == "" {
		p.Title = tpl.TitleCase(strings.ReplaceAll(slug, "-", " "))
	}

	cats := append([]string(nil), opts.Categories...)
	cats = append(cats, fm.Strings("categories")...)
	if c := fm.String("category"); c != "" {
		cats = append(cats, c)
	}
	p.Categories = dedupe(cats)
	p.Tags = dedupe(fm.Strings("tags"))
	for _, label := range slices.Concat(p.Categories, p.Tags) {
		if !validLabel(label) {
			return nil, apperr.Wrap(apperr.PhaseFrontMatter, source, fmt.Errorf("%w: %q", apperr.ErrInvalidLabel, label))
		}
	}
	return p, nil
}

// validLabel reports whether a tag or category can name a single output
// directory segment.
func validLabel(label string) bool {
	switch strings.TrimSpace(label) {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(label, `/\`)
}

func frontMatterDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(d)); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("content: unparseable date %v", v)
}

// Compare orders posts by date, then by slug.
func (p *Post) Compare(o *Post) int {
	if c := p.Date.Compare(o.Date); c != 0 {
		return c
	}
	return cmp.Compare(p.Slug, o.Slug)
}

// SortPosts sorts posts oldest first.
func SortPosts(posts []*Post) {
	slices.SortStableFunc(posts, (*Post).Compare)
}

// ID identifies a post independently of its permalink style.
func (p *Post) ID() string {
	return ExpandPermalink("/:categories/:year/:month/:day/:title", p.Date, p.Slug, p.Categories)
}

// URL returns the front-matter permalink when set, otherwise the expansion
// of the configured style.
func (p *Post) URL() string {
	if link := p.FrontMatter.String("permalink"); link != "" {
		return cleanURL(link)
	}
	return ExpandPermalink(PermalinkPattern(p.permalink), p.Date, p.Slug, p.Categories)
}

func (p *Post) Doc() *Document { return &p.Document }

// EvaluatesBody is false: a post body is never a template.
func (p *Post) EvaluatesBody() bool { return false }

// Payload exposes the post as `page`.
func (p *Post) Payload() map[string]any {
	return map[string]any{"page": p.Drop()}
}

// Drop returns the template view of the post.
func (p *Post) Drop() map[string]any {
	return merge(p.FrontMatter, map[string]any{
		"title":      p.Title,
		"url":        p.URL(),
		"id":         p.ID(),
		"date":       p.Date,
		"slug":       p.Slug,
		"categories": p.Categories,
		"tags":       p.Tags,
		"published":  p.Published,
		"content":    p.Body,
		"extended":   p.Extended,
	})
}
