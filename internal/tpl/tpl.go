// Package tpl evaluates document and layout templates.
//
// Templates use text/template syntax against a map payload: `{{ .content }}`,
// `{{ .page.title }}`, `{{ range .site.posts }}...{{ end }}`. Every template
// can pull in a partial from the includes directory with
// `{{ include "footer.html" . }}`; partials are evaluated recursively with the
// same function set.
package tpl

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"text/template/parse"

	"github.com/starford/quire/internal/apperr"
)

// MaxIncludeDepth bounds recursive include evaluation.
const MaxIncludeDepth = 16

// blankFunc is appended to every printing action so a missing or nil value
// prints as "" rather than text/template's "<no value>".
const blankFunc = "_blank"

// Engine evaluates a named template source against data.
type Engine interface {
	Render(name, src string, data map[string]any) (string, error)
}

// TextEngine implements Engine on text/template. Output is not HTML-escaped:
// payload values such as rendered content are already HTML.
type TextEngine struct {
	includesDir string

	includeCache   map[string]string
	includeCacheMu sync.RWMutex
}

var _ Engine = (*TextEngine)(nil)

// New returns a TextEngine that resolves includes under includesDir.
func New(includesDir string) *TextEngine {
	return &TextEngine{
		includesDir:  includesDir,
		includeCache: map[string]string{},
	}
}

// Render parses src and executes it against data. It is safe for concurrent
// use.
func (e *TextEngine) Render(name, src string, data map[string]any) (string, error) {
	return e.render(name, src, data, 0)
}

func (e *TextEngine) render(name, src string, data any, depth int) (string, error) {
	funcs := Funcs()
	funcs["include"] = func(partial string, ctx any) (string, error) {
		return e.include(partial, ctx, depth+1)
	}
	funcs[blankFunc] = blank

	tmpl, err := template.New(name).Funcs(funcs).Parse(src)
	if err != nil {
		return "", fmt.Errorf("tpl: parse %s: %w", name, err)
	}
	for _, t := range tmpl.Templates() {
		if t.Tree != nil {
			blankNil(t.Tree, t.Tree.Root)
		}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("tpl: execute %s: %w", name, err)
	}
	return buf.String(), nil
}

func blank(v any) any {
	if v == nil {
		return ""
	}
	return v
}

// blankNil pipes every printing action under node through blankFunc.
// Actions that declare or assign variables print nothing and are left alone.
func blankNil(tree *parse.Tree, node parse.Node) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			blankNil(tree, child)
		}
	case *parse.ActionNode:
		if len(n.Pipe.Decl) > 0 {
			return
		}
		id := parse.NewIdentifier(blankFunc).SetTree(tree).SetPos(n.Pos)
		n.Pipe.Cmds = append(n.Pipe.Cmds, &parse.CommandNode{
			NodeType: parse.NodeCommand,
			Pos:      n.Pos,
			Args:     []parse.Node{id},
		})
	case *parse.IfNode:
		blankNil(tree, n.List)
		blankNil(tree, n.ElseList)
	case *parse.RangeNode:
		blankNil(tree, n.List)
		blankNil(tree, n.ElseList)
	case *parse.WithNode:
		blankNil(tree, n.List)
		blankNil(tree, n.ElseList)
	}
}

func (e *TextEngine) include(name string, data any, depth int) (string, error) {
	if depth > MaxIncludeDepth {
		return "", fmt.Errorf("tpl: include %s: %w", name, apperr.ErrIncludeDepth)
	}
	src, err := e.loadInclude(name)
	if err != nil {
		return "", err
	}
	return e.render(name, src, data, depth)
}

func (e *TextEngine) loadInclude(name string) (string, error) {
	e.includeCacheMu.RLock()
	src, ok := e.includeCache[name]
	e.includeCacheMu.RUnlock()
	if ok {
		return src, nil
	}

	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("tpl: include %s: path escapes includes directory", name)
	}
	data, err := os.ReadFile(filepath.Join(e.includesDir, cleaned))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("tpl: include %s: %w", name, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("tpl: include %s: %w", name, err)
	}

	e.includeCacheMu.Lock()
	e.includeCache[name] = string(data)
	e.includeCacheMu.Unlock()
	return string(data), nil
}
