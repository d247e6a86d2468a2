package site

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// alwaysKept names survive filtering even though they look hidden.
var alwaysKept = map[string]bool{
	PostsDir:    true,
	".htaccess": true,
}

// keep drops hidden, backup and site-internal names from the entries of dir
// (relative to the source root): anything starting with ".", "_" or "#",
// ending in "~", or matching an exclude pattern. PostsDir and .htaccess are
// never dropped.
func (s *Site) keep(dir, name string) bool {
	if alwaysKept[name] {
		return true
	}
	if name == "" {
		return false
	}
	switch name[0] {
	case '.', '_', '#':
		return false
	}
	if strings.HasSuffix(name, "~") {
		return false
	}
	return !s.excluded(path.Join(filepath.ToSlash(dir), name), name)
}

// excluded matches the exclude list against both the bare name and the
// source-relative path, so "drafts" and "notes/**/*.txt" both work.
func (s *Site) excluded(rel, name string) bool {
	for _, pattern := range s.opts.Exclude {
		if pattern == name || pattern == rel {
			return true
		}
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
