// Package parser splits YAML front matter from document bodies.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/quire/internal/apperr"
)

const delim = "---"

// Result holds the output of parsing a source document.
type Result struct {
	FrontMatter map[string]any
	Body        string
}

// HasFrontMatter reports whether data opens with the front-matter delimiter.
// It only inspects the first three bytes; Parse decides whether the header
// is actually well formed.
func HasFrontMatter(data []byte) bool {
	return bytes.HasPrefix(data, []byte(delim))
}

// Parse separates the YAML block between the leading `---` lines from the
// remaining body. A document that does not open with a `---` line, has no
// closing `---` line, or carries YAML that is not a mapping fails with
// apperr.ErrMalformedFrontMatter.
func Parse(data []byte) (*Result, error) {
	first, rest, _ := cutLine(data)
	if !isDelim(first) {
		return nil, fmt.Errorf("%w: missing opening delimiter", apperr.ErrMalformedFrontMatter)
	}

	var yamlBlock []byte
	remaining := rest
	for {
		if len(remaining) == 0 {
			return nil, fmt.Errorf("%w: missing closing delimiter", apperr.ErrMalformedFrontMatter)
		}
		line, next, _ := cutLine(remaining)
		if isDelim(line) {
			yamlBlock = rest[:len(rest)-len(remaining)]
			remaining = next
			break
		}
		remaining = next
	}

	fm, err := parseYAML(yamlBlock)
	if err != nil {
		return nil, err
	}
	return &Result{FrontMatter: fm, Body: string(remaining)}, nil
}

func parseYAML(block []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(block)) == 0 {
		return map[string]any{}, nil
	}
	var fm map[string]any
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedFrontMatter, err)
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, nil
}

// SplitExtended cuts body at the first line that equals marker exactly. The
// text before the marker line is the teaser; the text after it is the
// extended body. When the marker never appears ok is false and teaser is
// the whole body.
func SplitExtended(body, marker string) (teaser, extended string, ok bool) {
	if marker == "" {
		return body, "", false
	}
	offset := 0
	for offset <= len(body) {
		end := strings.IndexByte(body[offset:], '\n')
		var line string
		next := len(body) + 1
		if end < 0 {
			line = body[offset:]
		} else {
			line = body[offset : offset+end]
			next = offset + end + 1
		}
		if strings.TrimSuffix(line, "\r") == marker {
			if next > len(body) {
				return body[:offset], "", true
			}
			return body[:offset], body[next:], true
		}
		if end < 0 {
			break
		}
		offset = next
	}
	return body, "", false
}

// cutLine returns the first line of data without its terminator and the
// bytes following it. ok is false when data has no newline.
func cutLine(data []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return data, nil, false
	}
	return data[:i], data[i+1:], true
}

func isDelim(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == delim
}
