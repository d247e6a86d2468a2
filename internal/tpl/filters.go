package tpl

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultTruncateWords is the word count html_truncatewords keeps when no
// count is given.
const DefaultTruncateWords = 15

// Funcs returns the filter functions available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"date_to_string":     DateToString,
		"date_to_xmlschema":  DateToXMLSchema,
		"date_to_utc":        DateToUTC,
		"xml_escape":         XMLEscape,
		"number_of_words":    NumberOfWords,
		"html_truncatewords": HTMLTruncateWords,
		"strip_html":         StripHTML,
		"to_month":           ToMonth,
		"to_month_abbr":      ToMonthAbbr,
		"titlecase":          TitleCase,
		"slugify":            Slugify,
		"join":               Join,
		"size":               Size,
	}
}

// DateToString formats a date as "02 Jan 2006".
func DateToString(v any) (string, error) {
	t, err := toTime(v)
	if err != nil {
		return "", err
	}
	return t.Format("02 Jan 2006"), nil
}

// DateToXMLSchema formats a date as RFC 3339.
func DateToXMLSchema(v any) (string, error) {
	t, err := toTime(v)
	if err != nil {
		return "", err
	}
	return t.Format(time.RFC3339), nil
}

// DateToUTC converts a date to UTC.
func DateToUTC(v any) (time.Time, error) {
	t, err := toTime(v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// XMLEscape escapes angle brackets.
func XMLEscape(s string) string {
	return strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(s)
}

// NumberOfWords counts whitespace-separated words.
func NumberOfWords(s string) int {
	return len(strings.Fields(s))
}

// HTMLTruncateWords keeps the first words of the text content of an HTML
// fragment, dropping all markup, and appends "...". The optional argument
// overrides DefaultTruncateWords.
func HTMLTruncateWords(input string, words ...int) string {
	n := DefaultTruncateWords
	if len(words) > 0 {
		n = words[0]
	}
	var fields []string
	for _, text := range textNodes(input) {
		fields = append(fields, strings.Fields(text)...)
	}
	if n < len(fields) {
		fields = fields[:n]
	}
	return strings.Join(fields, " ") + "..."
}

// StripHTML removes all markup from an HTML fragment.
func StripHTML(input string) string {
	return strings.Join(textNodes(input), "")
}

func textNodes(input string) []string {
	z := html.NewTokenizer(strings.NewReader(input))
	var out []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.TextToken:
			out = append(out, string(z.Text()))
		}
	}
}

// ToMonth returns the full English month name for a month number.
func ToMonth(v any) (string, error) {
	m, err := toMonth(v)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

// ToMonthAbbr returns the three-letter month abbreviation.
func ToMonthAbbr(v any) (string, error) {
	m, err := toMonth(v)
	if err != nil {
		return "", err
	}
	return m.String()[:3], nil
}

// TitleCase upper-cases the first letter of every word.
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Slugify lower-cases s, strips diacritics and joins the remaining letters
// and digits with hyphens.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// Join joins the string forms of list's elements with sep.
func Join(sep string, list any) string {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Sprint(list)
	}
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = fmt.Sprint(rv.Index(i).Interface())
	}
	return strings.Join(parts, sep)
}

// Size returns the length of a string, slice or map, and 0 otherwise.
func Size(v any) int {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	default:
		return 0
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t != nil {
			return *t, nil
		}
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("tpl: not a date: %v", v)
}

func toMonth(v any) (time.Month, error) {
	var n int
	switch m := v.(type) {
	case int:
		n = m
	case int64:
		n = int(m)
	case time.Month:
		n = int(m)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(m))
		if err != nil {
			return 0, fmt.Errorf("tpl: not a month: %q", m)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("tpl: not a month: %v", v)
	}
	if n < 1 || n > 12 {
		return 0, fmt.Errorf("tpl: month out of range: %d", n)
	}
	return time.Month(n), nil
}
