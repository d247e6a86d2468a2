package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/parser"
)

// Layout is a named template that wraps rendered content. A layout names its
// parent through its own `layout` front-matter field.
type Layout struct {
	Name        string
	Path        string
	Content     string
	FrontMatter FrontMatter
}

// Parent returns the name of the layout this one is wrapped in.
func (l *Layout) Parent() string {
	return l.FrontMatter.String("layout")
}

// LayoutName strips the final extension: "post.html" becomes "post".
func LayoutName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// ReadLayout loads a layout file. Layouts without a front-matter header are
// accepted; their whole text is the template.
func ReadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.PhaseRead, path, err)
	}
	l := &Layout{
		Name:        LayoutName(filepath.Base(path)),
		Path:        path,
		Content:     string(data),
		FrontMatter: FrontMatter{},
	}
	if !parser.HasFrontMatter(data) {
		return l, nil
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, apperr.Wrap(apperr.PhaseFrontMatter, path, err)
	}
	l.Content = res.Body
	l.FrontMatter = res.FrontMatter
	return l, nil
}

// Chain returns the layouts that wrap a document whose front matter names
// start, innermost first. It stops at the first name that resolves to
// nothing and fails with apperr.ErrLayoutCycle when a name repeats.
func Chain(start string, layouts map[string]*Layout) ([]*Layout, error) {
	var chain []*Layout
	seen := map[string]bool{}
	for name := start; name != ""; {
		l, ok := layouts[name]
		if !ok {
			break
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", apperr.ErrLayoutCycle, chainNames(chain, name))
		}
		seen[name] = true
		chain = append(chain, l)
		name = l.Parent()
	}
	return chain, nil
}

func chainNames(chain []*Layout, last string) string {
	names := make([]string, 0, len(chain)+1)
	for _, l := range chain {
		names = append(names, l.Name)
	}
	return strings.Join(append(names, last), " -> ")
}
