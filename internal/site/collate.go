package site

import (
	"maps"
	"slices"

	"github.com/starford/quire/internal/content"
)

// Collation indexes posts by year, month and day. Each day holds its posts
// newest first.
type Collation map[int]map[int]map[int][]*content.Post

func (c Collation) add(p *content.Post) {
	y, m, d := p.Date.Year(), int(p.Date.Month()), p.Date.Day()
	if c[y] == nil {
		c[y] = map[int]map[int][]*content.Post{}
	}
	if c[y][m] == nil {
		c[y][m] = map[int][]*content.Post{}
	}
	c[y][m][d] = append(c[y][m][d], p)
}

// Years returns the collated years in ascending order.
func (c Collation) Years() []int {
	return slices.Sorted(maps.Keys(c))
}

// Months returns the months of year that have posts.
func (c Collation) Months(year int) []int {
	return slices.Sorted(maps.Keys(c[year]))
}

// Days returns the days of year/month that have posts.
func (c Collation) Days(year, month int) []int {
	return slices.Sorted(maps.Keys(c[year][month]))
}

// Bucket returns the posts of a year, a month (day 0) or a day, newest
// first. A zero month selects the whole year.
func (c Collation) Bucket(year, month, day int) []*content.Post {
	var out []*content.Post
	for _, m := range c.Months(year) {
		if month != 0 && m != month {
			continue
		}
		for _, d := range c.Days(year, m) {
			if day != 0 && d != day {
				continue
			}
			out = append(out, c[year][m][d]...)
		}
	}
	content.SortPosts(out)
	slices.Reverse(out)
	return out
}

// byAttr groups posts under each value returned by attr, newest first
// within each group.
func byAttr(posts []*content.Post, attr func(*content.Post) []string) map[string][]*content.Post {
	out := map[string][]*content.Post{}
	for _, p := range posts {
		for _, key := range attr(p) {
			out[key] = append(out[key], p)
		}
	}
	for _, group := range out {
		content.SortPosts(group)
		slices.Reverse(group)
	}
	return out
}

func categoriesOf(p *content.Post) []string { return p.Categories }

func tagsOf(p *content.Post) []string { return p.Tags }

func descending(posts []*content.Post) []*content.Post {
	out := slices.Clone(posts)
	slices.Reverse(out)
	return out
}
