package content

import (
	"fmt"
	"strings"
)

// FrontMatter is the parsed header of a source document.
type FrontMatter map[string]any

// String returns the value at key as a string, or "" when absent or nil.
func (fm FrontMatter) String(key string) string {
	v, ok := fm[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the value at key as a bool, or def when absent. The strings
// "false", "no" and "off" count as false.
func (fm FrontMatter) Bool(key string, def bool) bool {
	v, ok := fm[key]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "false", "no", "off":
			return false
		case "true", "yes", "on":
			return true
		}
	}
	return def
}

// Strings returns the value at key as a list. A sequence yields its
// elements; a scalar string is split on whitespace.
func (fm FrontMatter) Strings(key string) []string {
	v, ok := fm[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(list)
	default:
		return []string{fmt.Sprint(list)}
	}
}

// Clone returns a shallow copy of fm; a nil receiver yields an empty map.
func (fm FrontMatter) Clone() FrontMatter {
	out := make(FrontMatter, len(fm))
	for k, v := range fm {
		out[k] = v
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
