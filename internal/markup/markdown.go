package markup

import (
	"bytes"
	"fmt"

	gomd "github.com/gomarkdown/markdown"
	gomdhtml "github.com/gomarkdown/markdown/html"
	gomdparser "github.com/gomarkdown/markdown/parser"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Goldmark renders CommonMark with GitHub extensions. Raw HTML in the source
// is passed through, as site authors routinely embed it in posts.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark returns a ready Goldmark converter. It is safe for concurrent
// use.
func NewGoldmark() *Goldmark {
	return &Goldmark{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// Convert renders src to HTML.
func (g *Goldmark) Convert(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("markup: goldmark: %w", err)
	}
	return buf.Bytes(), nil
}

// GoMarkdown renders markdown with gomarkdown's common extensions.
type GoMarkdown struct {
	extensions gomdparser.Extensions
	flags      gomdhtml.Flags
}

// NewGoMarkdown returns a GoMarkdown converter.
func NewGoMarkdown() *GoMarkdown {
	return &GoMarkdown{
		extensions: gomdparser.CommonExtensions | gomdparser.AutoHeadingIDs | gomdparser.NoEmptyLineBeforeBlock,
		flags:      gomdhtml.CommonFlags,
	}
}

// Convert renders src to HTML. gomarkdown parsers keep state, so each call
// builds its own parser and renderer.
func (g *GoMarkdown) Convert(src []byte) ([]byte, error) {
	p := gomdparser.NewWithExtensions(g.extensions)
	doc := p.Parse(src)
	renderer := gomdhtml.NewRenderer(gomdhtml.RendererOptions{Flags: g.flags})
	return gomd.Render(doc, renderer), nil
}
