package markup

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/quire/internal/apperr"
)

func TestNewMarkdown_Known(t *testing.T) {
	for _, name := range append([]string{""}, Processors...) {
		c, err := NewMarkdown(name)
		if err != nil {
			t.Fatalf("NewMarkdown(%q): %v", name, err)
		}
		out, err := c.Convert([]byte("# Title\n\nSome *text*.\n"))
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		html := string(out)
		if !strings.Contains(html, "Title</h1>") || !strings.Contains(html, "<em>text</em>") {
			t.Errorf("%s output = %q", name, html)
		}
	}
}

func TestNewMarkdown_Unknown(t *testing.T) {
	_, err := NewMarkdown("bluecloth")
	if !errors.Is(err, apperr.ErrUnknownMarkup) {
		t.Errorf("err = %v, want ErrUnknownMarkup", err)
	}
}

func TestGoldmark_PassesRawHTML(t *testing.T) {
	out, err := NewGoldmark().Convert([]byte("<div class=\"x\">raw</div>\n"))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(string(out), `<div class="x">raw</div>`) {
		t.Errorf("output = %q", out)
	}
}

func TestRegistry(t *testing.T) {
	md := ConverterFunc(func(src []byte) ([]byte, error) { return append([]byte("md:"), src...), nil })
	r := NewRegistry(md, []string{"markdown", ".md"})

	for _, ext := range []string{".markdown", ".md", ".MD", ".textile"} {
		if _, ok := r.Lookup(ext); !ok {
			t.Errorf("Lookup(%q) missing", ext)
		}
		if got := r.OutputExt(ext); got != ".html" {
			t.Errorf("OutputExt(%q) = %q, want .html", ext, got)
		}
	}
	if _, ok := r.Lookup(".html"); ok {
		t.Error(".html should not be convertible")
	}
	if got := r.OutputExt(".xml"); got != ".xml" {
		t.Errorf("OutputExt(.xml) = %q", got)
	}
}

func TestTextile_Blocks(t *testing.T) {
	src := "h2. Heading\n\nA *bold* and _em_ line\nwith a break.\n\n* one\n* two\n\nbq. quoted\n\nbc. <b>code</b>"
	out, err := NewTextile().Convert([]byte(src))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		"<h2>Heading</h2>",
		"<p>A <strong>bold</strong> and <em>em</em> line<br />\nwith a break.</p>",
		"<ul>\n\t<li>one</li>\n\t<li>two</li>\n</ul>",
		"<blockquote>\n<p>quoted</p>\n</blockquote>",
		"<pre><code>&lt;b&gt;code&lt;/b&gt;</code></pre>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q:\n%s", want, html)
		}
	}
}

func TestTextile_Inline(t *testing.T) {
	out, _ := NewTextile().Convert([]byte(`See "the site":http://example.com/ and @x < y@ !/img/a.png!`))
	html := string(out)
	for _, want := range []string{
		`<a href="http://example.com/">the site</a>`,
		`<code>x &lt; y</code>`,
		`<img src="/img/a.png" alt="" />`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q: %s", want, html)
		}
	}
}

func TestTextile_NumberedList(t *testing.T) {
	out, _ := NewTextile().Convert([]byte("# first\n# second"))
	if !strings.Contains(string(out), "<ol>\n\t<li>first</li>\n\t<li>second</li>\n</ol>") {
		t.Errorf("output = %q", out)
	}
}
