package content

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/quire/internal/markup"
)

// Page is a non-post file with front matter.
type Page struct {
	Document

	outExt string
	pretty bool
	suffix string
}

// PageOptions controls how a page's URL is derived.
type PageOptions struct {
	Markup *markup.Registry
	// Pretty maps foo.html to foo/index.html, except for index pages.
	Pretty bool
}

// NewPage reads the page at file. dir is its directory relative to the source
// root and doubles as the output directory.
func NewPage(file, source, dir string, opts PageOptions) (*Page, error) {
	p := &Page{
		Document: newDocument(source, dir, filepath.Base(file)),
		pretty:   opts.Pretty,
	}
	p.outExt = opts.Markup.OutputExt(p.SourceExt)
	if err := p.ReadFile(file, false); err != nil {
		return nil, err
	}
	return p, nil
}

// IsIndex reports whether the page is its directory's index.
func (p *Page) IsIndex() bool {
	return p.Basename() == "index"
}

// SetPageNumber makes this page render as page n of a paginated series.
// Page 1 keeps the original name; later pages append "pageN" to the stem.
func (p *Page) SetPageNumber(n int) {
	if n <= 1 {
		p.suffix = ""
		return
	}
	p.suffix = fmt.Sprintf("page%d", n)
}

// URL honours a front-matter permalink, then the pretty style, then the
// plain source-relative path with the output extension. Pages 2 and later
// of a series sit next to page 1 with "pageN" appended to its file stem.
func (p *Page) URL() string {
	first := p.firstURL()
	if p.suffix == "" {
		return first
	}
	if strings.HasSuffix(first, "/") {
		first += "index" + p.outExt
	}
	dir, file := path.Split(first)
	ext := path.Ext(file)
	return dir + strings.TrimSuffix(file, ext) + p.suffix + ext
}

func (p *Page) firstURL() string {
	if link := p.FrontMatter.String("permalink"); link != "" {
		return cleanURL(link)
	}
	stem := p.Basename()
	if p.pretty && p.outExt == ".html" && !p.IsIndex() {
		return joinURL(p.Dir, stem+"/")
	}
	return joinURL(p.Dir, stem+p.outExt)
}

func (p *Page) Doc() *Document { return &p.Document }

// EvaluatesBody is true: page bodies are templates.
func (p *Page) EvaluatesBody() bool { return true }

// Payload exposes the front matter plus the page URL as `page`.
func (p *Page) Payload() map[string]any {
	return map[string]any{"page": merge(p.FrontMatter, map[string]any{"url": p.URL()})}
}

// Copy returns an independent page with the same source, used to render
// further pages of a paginated series.
func (p *Page) Copy() *Page {
	c := *p
	c.FrontMatter = p.FrontMatter.Clone()
	c.Output = ""
	return &c
}
