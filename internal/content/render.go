package content

import (
	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/markup"
	"github.com/starford/quire/internal/tpl"
)

// Renderer turns a document into its final output: template evaluation of
// the body, markup conversion, then the layout chain from innermost to
// outermost.
type Renderer struct {
	Markup  *markup.Registry
	Engine  tpl.Engine
	Layouts map[string]*Layout
}

// Render fills r.Doc().Output. payload is the document's own data (normally
// r.Payload() plus anything the caller injects, such as a paginator); site is
// merged over it. Each layout sees the output produced so far as `content`.
func (rd *Renderer) Render(r Renderable, payload, site map[string]any) error {
	doc := r.Doc()
	ctx := merge(payload, site)

	if r.EvaluatesBody() {
		body, err := rd.Engine.Render(doc.Source, doc.Body, ctx)
		if err != nil {
			return apperr.Wrap(apperr.PhaseTemplate, doc.Source, err)
		}
		doc.Body = body
	}
	if err := doc.Convert(rd.Markup); err != nil {
		return err
	}

	output := doc.Content()
	chain, err := Chain(doc.FrontMatter.String("layout"), rd.Layouts)
	if err != nil {
		return apperr.Wrap(apperr.PhaseLayout, doc.Source, err)
	}
	for _, layout := range chain {
		ctx = merge(ctx, map[string]any{"content": output})
		output, err = rd.Engine.Render(layout.Name, layout.Content, ctx)
		if err != nil {
			return apperr.Wrap(apperr.PhaseLayout, doc.Source, err)
		}
	}
	doc.Output = output
	return nil
}
