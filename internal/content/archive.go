package content

import (
	"fmt"
	"path"
)

// Layout names that turn on generated listings.
const (
	LayoutArchiveYearly  = "archive_yearly"
	LayoutArchiveMonthly = "archive_monthly"
	LayoutArchiveDaily   = "archive_daily"
	LayoutTagIndex       = "tag_index"
)

// listing is a generated document whose body and front matter come from a
// layout and whose payload carries a bucket of posts.
type listing struct {
	Document
	Posts []*Post
}

func newListing(layout *Layout, dir string) listing {
	d := newDocument(layout.Path, dir, "index.html")
	d.FrontMatter = layout.FrontMatter.Clone()
	d.Body = layout.Content
	return listing{Document: d}
}

func (l *listing) Doc() *Document { return &l.Document }

func (l *listing) EvaluatesBody() bool { return true }

func (l *listing) URL() string { return joinURL(l.Dir + "/") }

func (l *listing) Payload() map[string]any {
	drops := make([]map[string]any, len(l.Posts))
	for i, p := range l.Posts {
		drops[i] = p.Drop()
	}
	return map[string]any{"page": merge(l.FrontMatter, map[string]any{
		"url":   l.URL(),
		"posts": drops,
	})}
}

// Archive lists the posts of one year, month or day at /YYYY/, /YYYY/MM/ or
// /YYYY/MM/DD/.
type Archive struct {
	listing
	Year, Month, Day int
}

// NewArchive builds an archive from the matching archive layout. Month and
// day are zero for coarser tiers.
func NewArchive(layout *Layout, year, month, day int, posts []*Post) *Archive {
	dir := fmt.Sprintf("%04d", year)
	if month > 0 {
		dir = path.Join(dir, fmt.Sprintf("%02d", month))
	}
	if day > 0 {
		dir = path.Join(dir, fmt.Sprintf("%02d", day))
	}
	a := &Archive{listing: newListing(layout, dir), Year: year, Month: month, Day: day}
	a.Posts = posts
	a.FrontMatter["year"] = year
	if month > 0 {
		a.FrontMatter["month"] = month
	}
	if day > 0 {
		a.FrontMatter["day"] = day
	}
	return a
}

// TagIndex lists the posts carrying one tag at /tags/<tag>/.
type TagIndex struct {
	listing
	Tag string
}

func NewTagIndex(layout *Layout, tag string, posts []*Post) *TagIndex {
	t := &TagIndex{listing: newListing(layout, path.Join("tags", tag)), Tag: tag}
	t.Posts = posts
	t.FrontMatter["tag"] = tag
	return t
}
