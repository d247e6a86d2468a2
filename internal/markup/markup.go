// Package markup converts lightweight markup source into HTML.
//
// A Converter is selected once at startup and injected into the renderer;
// the Registry maps source extensions onto converters.
package markup

import (
	"fmt"
	"strings"

	"github.com/starford/quire/internal/apperr"
)

// Processor names accepted in configuration.
const (
	ProcessorGoldmark   = "goldmark"
	ProcessorGoMarkdown = "gomarkdown"
)

// Processors lists every markdown processor that NewMarkdown accepts.
var Processors = []string{ProcessorGoldmark, ProcessorGoMarkdown}

// Converter turns markup source into HTML.
type Converter interface {
	Convert(src []byte) ([]byte, error)
}

// ConverterFunc adapts a plain function to Converter.
type ConverterFunc func(src []byte) ([]byte, error)

// Convert calls f(src).
func (f ConverterFunc) Convert(src []byte) ([]byte, error) {
	return f(src)
}

// NewMarkdown returns the markdown converter registered under name.
func NewMarkdown(name string) (Converter, error) {
	switch name {
	case "", ProcessorGoldmark:
		return NewGoldmark(), nil
	case ProcessorGoMarkdown:
		return NewGoMarkdown(), nil
	default:
		return nil, fmt.Errorf("markup: %w: %q (want one of %s)", apperr.ErrUnknownMarkup, name, strings.Join(Processors, ", "))
	}
}

// Registry resolves a source extension to its converter. Extensions are
// stored with their leading dot and compared case-insensitively.
type Registry struct {
	byExt map[string]Converter
}

// NewRegistry registers markdown for every extension in markdownExts and the
// textile converter for ".textile".
func NewRegistry(markdown Converter, markdownExts []string) *Registry {
	r := &Registry{byExt: make(map[string]Converter)}
	for _, ext := range markdownExts {
		r.Register(ext, markdown)
	}
	r.Register(".textile", NewTextile())
	return r
}

// Register binds ext to c, replacing any earlier binding.
func (r *Registry) Register(ext string, c Converter) {
	r.byExt[normalizeExt(ext)] = c
}

// Lookup returns the converter for ext.
func (r *Registry) Lookup(ext string) (Converter, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.byExt[normalizeExt(ext)]
	return c, ok
}

// OutputExt returns ".html" for convertible extensions and ext unchanged
// otherwise.
func (r *Registry) OutputExt(ext string) string {
	if _, ok := r.Lookup(ext); ok {
		return ".html"
	}
	return ext
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
