package content

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Built-in permalink styles.
const (
	StyleDate   = "date"
	StylePretty = "pretty"
	StyleNone   = "none"
)

// PermalinkPattern returns the URL pattern for a style name. Anything that is
// not a built-in style is taken as a custom pattern.
func PermalinkPattern(style string) string {
	switch style {
	case "", StyleDate:
		return "/:categories/:year/:month/:day/:title.html"
	case StylePretty:
		return "/:categories/:year/:month/:day/:title/"
	case StyleNone:
		return "/:categories/:title.html"
	default:
		return style
	}
}

// ExpandPermalink substitutes the placeholders in pattern. Empty segments
// collapse, and a trailing slash survives.
func ExpandPermalink(pattern string, date time.Time, slug string, categories []string) string {
	r := strings.NewReplacer(
		":categories", strings.Join(categories, "/"),
		":short_year", date.Format("06"),
		":year", fmt.Sprintf("%04d", date.Year()),
		":i_month", fmt.Sprint(int(date.Month())),
		":month", fmt.Sprintf("%02d", int(date.Month())),
		":i_day", fmt.Sprint(date.Day()),
		":day", fmt.Sprintf("%02d", date.Day()),
		":title", slug,
	)
	return cleanURL(r.Replace(pattern))
}

func cleanURL(u string) string {
	trailing := strings.HasSuffix(u, "/")
	u = path.Clean("/" + u)
	if trailing && u != "/" {
		u += "/"
	}
	return u
}
