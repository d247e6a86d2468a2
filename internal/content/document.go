// Package content models the renderable documents of a site: pages, posts,
// archives and tag indexes, plus the layouts that wrap them.
package content

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/markup"
	"github.com/starford/quire/internal/parser"
)

// Document holds the state every renderable variant shares.
type Document struct {
	// Source is the path reported in errors and logs.
	Source string
	// Dir is the slash-separated output directory relative to the
	// destination root; "" is the root itself.
	Dir string
	// Name is the source file name.
	Name string
	// SourceExt is the extension of Name; Ext is the virtual extension and
	// becomes ".html" once the body is converted.
	SourceExt string
	Ext       string

	FrontMatter FrontMatter
	Body        string
	Extended    string
	HasExtended bool

	// Output holds the final rendered text.
	Output string
}

func newDocument(source, dir, name string) Document {
	ext := filepath.Ext(name)
	return Document{
		Source:      source,
		Dir:         strings.Trim(filepath.ToSlash(dir), "/"),
		Name:        name,
		SourceExt:   ext,
		Ext:         ext,
		FrontMatter: FrontMatter{},
	}
}

// Basename returns Name without its extension.
func (d *Document) Basename() string {
	return strings.TrimSuffix(d.Name, d.SourceExt)
}

// ReadFile loads the front matter and body from file. When splitExtended is
// set and the front matter names an `extended` marker, the body is split at
// the first line equal to it.
func (d *Document) ReadFile(file string, splitExtended bool) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return apperr.Wrap(apperr.PhaseRead, d.Source, err)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return apperr.Wrap(apperr.PhaseFrontMatter, d.Source, err)
	}
	d.FrontMatter = res.FrontMatter
	d.Body = res.Body
	d.Extended, d.HasExtended = "", false

	if !splitExtended {
		return nil
	}
	if marker := d.FrontMatter.String("extended"); marker != "" {
		if teaser, rest, ok := parser.SplitExtended(d.Body, marker); ok {
			d.Body, d.Extended, d.HasExtended = teaser, rest, true
		}
	}
	return nil
}

// Convert runs the body, and the extended body when present, through the
// converter registered for the source extension. Unknown extensions leave the
// document untouched.
func (d *Document) Convert(reg *markup.Registry) error {
	conv, ok := reg.Lookup(d.SourceExt)
	if !ok {
		return nil
	}
	body, err := conv.Convert([]byte(d.Body))
	if err != nil {
		return apperr.Wrap(apperr.PhaseMarkup, d.Source, err)
	}
	d.Body = string(body)
	if d.HasExtended {
		ext, err := conv.Convert([]byte(d.Extended))
		if err != nil {
			return apperr.Wrap(apperr.PhaseMarkup, d.Source, err)
		}
		d.Extended = string(ext)
	}
	d.Ext = ".html"
	return nil
}

// Content returns the body followed by the extended body.
func (d *Document) Content() string {
	return d.Body + d.Extended
}

// Renderable is implemented by every document variant the site writes.
type Renderable interface {
	Doc() *Document
	// URL is the output path, slash-separated with a leading slash. A
	// trailing slash stands for the directory's index.html.
	URL() string
	// Payload returns the document-specific template data.
	Payload() map[string]any
	// EvaluatesBody reports whether the body itself is a template.
	EvaluatesBody() bool
}

// OutputPath maps a document's URL to a slash-separated path relative to the
// destination root.
func OutputPath(r Renderable) string {
	u := r.URL()
	if u == "" || strings.HasSuffix(u, "/") {
		u += "index.html"
	}
	return strings.TrimPrefix(path.Clean("/"+u), "/")
}

func joinURL(parts ...string) string {
	u := path.Join(append([]string{"/"}, parts...)...)
	last := parts[len(parts)-1]
	if strings.HasSuffix(last, "/") && u != "/" {
		u += "/"
	}
	return u
}

func merge(maps ...map[string]any) map[string]any {
	size := 0
	for _, m := range maps {
		size += len(m)
	}
	out := make(map[string]any, size)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
