package site

import (
	"github.com/starford/quire/internal/content"
)

// Payload builds the site-wide template data, fresh on every call:
//
//	site.time            build timestamp
//	site.posts           published posts, newest first
//	site.collated_posts  year -> month -> day -> posts
//	site.categories      category -> posts, newest first
//	site.tags            tag -> posts, newest first
//
// plus every extra configuration key.
func (s *Site) Payload() map[string]any {
	drops := make(map[*content.Post]map[string]any, len(s.Posts))
	for _, p := range s.Posts {
		drops[p] = p.Drop()
	}
	list := func(posts []*content.Post) []map[string]any {
		out := make([]map[string]any, len(posts))
		for i, p := range posts {
			out[i] = drops[p]
		}
		return out
	}
	group := func(by map[string][]*content.Post) map[string][]map[string]any {
		out := make(map[string][]map[string]any, len(by))
		for key, posts := range by {
			out[key] = list(posts)
		}
		return out
	}

	collated := make(map[int]map[int]map[int][]map[string]any, len(s.Collated))
	for y, months := range s.Collated {
		collated[y] = make(map[int]map[int][]map[string]any, len(months))
		for m, days := range months {
			collated[y][m] = make(map[int][]map[string]any, len(days))
			for d, posts := range days {
				collated[y][m][d] = list(posts)
			}
		}
	}

	site := make(map[string]any, len(s.opts.Config)+5)
	for k, v := range s.opts.Config {
		site[k] = v
	}
	site["time"] = s.Time
	site["posts"] = list(descending(s.Posts))
	site["collated_posts"] = collated
	site["categories"] = group(byAttr(s.Posts, categoriesOf))
	site["tags"] = group(byAttr(s.Posts, tagsOf))
	return map[string]any{"site": site}
}
