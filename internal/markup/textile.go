package markup

import (
	"html"
	"regexp"
	"strings"
)

// Textile converts the commonly used subset of Textile: block signatures
// (h1.-h6., p., bq., bc.), bulleted and numbered lists, and the inline
// phrase modifiers for strong, emphasis, code, links and images. HTML in
// the source is passed through untouched.
type Textile struct{}

// NewTextile returns a Textile converter.
func NewTextile() Textile {
	return Textile{}
}

var (
	textileHeading = regexp.MustCompile(`^h([1-6])\.\s+`)
	textileImage   = regexp.MustCompile(`!([^\s!]+)!`)
	textileLink    = regexp.MustCompile(`"([^"]+)":([^\s<]+[^\s<.,;:!?)])`)
	textileStrong  = regexp.MustCompile(`(^|[\s(>])\*([^\s*](?:[^*]*[^\s*])?)\*`)
	textileEm      = regexp.MustCompile(`(^|[\s(>])_([^\s_](?:[^_]*[^\s_])?)_`)
	textileCode    = regexp.MustCompile(`@([^@\n]+)@`)
)

// Convert renders src to HTML.
func (Textile) Convert(src []byte) ([]byte, error) {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	blocks := splitBlocks(text)

	var out strings.Builder
	for i, block := range blocks {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(textileBlock(block))
	}
	if len(blocks) > 0 {
		out.WriteString("\n")
	}
	return []byte(out.String()), nil
}

func splitBlocks(text string) []string {
	var blocks []string
	for _, raw := range strings.Split(text, "\n\n") {
		block := strings.Trim(raw, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func textileBlock(block string) string {
	switch {
	case textileHeading.MatchString(block):
		m := textileHeading.FindStringSubmatch(block)
		body := block[len(m[0]):]
		return "<h" + m[1] + ">" + textileInline(body) + "</h" + m[1] + ">"
	case strings.HasPrefix(block, "bq. "):
		return "<blockquote>\n<p>" + textileLines(block[4:]) + "</p>\n</blockquote>"
	case strings.HasPrefix(block, "bc. "):
		return "<pre><code>" + html.EscapeString(block[4:]) + "</code></pre>"
	case strings.HasPrefix(block, "p. "):
		return "<p>" + textileLines(block[3:]) + "</p>"
	case isList(block, "* "):
		return textileList("ul", block, "* ")
	case isList(block, "# "):
		return textileList("ol", block, "# ")
	case strings.HasPrefix(strings.TrimSpace(block), "<"):
		return block
	default:
		return "<p>" + textileLines(block) + "</p>"
	}
}

func isList(block, bullet string) bool {
	for _, line := range strings.Split(block, "\n") {
		if !strings.HasPrefix(line, bullet) {
			return false
		}
	}
	return true
}

func textileList(tag, block, bullet string) string {
	var b strings.Builder
	b.WriteString("<" + tag + ">\n")
	for _, line := range strings.Split(block, "\n") {
		b.WriteString("\t<li>" + textileInline(strings.TrimPrefix(line, bullet)) + "</li>\n")
	}
	b.WriteString("</" + tag + ">")
	return b.String()
}

// textileLines converts inline markup and turns single newlines into <br />.
func textileLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = textileInline(line)
	}
	return strings.Join(lines, "<br />\n")
}

func textileInline(text string) string {
	text = textileImage.ReplaceAllString(text, `<img src="$1" alt="" />`)
	text = textileLink.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = textileStrong.ReplaceAllString(text, `$1<strong>$2</strong>`)
	text = textileEm.ReplaceAllString(text, `$1<em>$2</em>`)
	text = textileCode.ReplaceAllStringFunc(text, func(m string) string {
		return "<code>" + html.EscapeString(m[1:len(m)-1]) + "</code>"
	})
	return text
}
