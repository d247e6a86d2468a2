package site

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/content"
	"github.com/starford/quire/internal/metrics"
)

func (s *Site) readLayouts(context.Context) error {
	base := filepath.Join(s.source, LayoutsDir)
	entries, err := os.ReadDir(base)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("no layouts directory", slog.String("path", base))
		return nil
	}
	if err != nil {
		return apperr.Wrap(apperr.PhaseRead, base, err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || !s.keep(LayoutsDir, e.Name()) {
			continue
		}
		l, err := content.ReadLayout(filepath.Join(base, e.Name()))
		if err != nil {
			return err
		}
		s.Layouts[l.Name] = l
	}
	s.log.Info("layouts read", slog.Int("count", len(s.Layouts)))
	return nil
}

// readPosts loads every _posts directory in the tree plus the content root,
// keeps the published posts, sorts them and collates them.
func (s *Site) readPosts(ctx context.Context) error {
	dirs, err := s.findPostDirs("")
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.readPostDir(filepath.Join(s.source, dir, PostsDir), categoriesFromDir(dir)); err != nil {
			return err
		}
	}
	if root := s.opts.ContentRoot; root != "" {
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("content root missing", slog.String("path", root))
		} else if err := s.readPostDir(root, nil); err != nil {
			return err
		}
	}
	if len(dirs) == 0 && s.opts.ContentRoot == "" {
		s.log.Warn("no posts directory", slog.String("source", s.source))
	}

	content.SortPosts(s.Posts)
	for _, p := range descending(s.Posts) {
		s.Collated.add(p)
	}
	s.log.Info("posts read", slog.Int("count", len(s.Posts)))
	return nil
}

// findPostDirs returns the source-relative directories that contain a
// _posts directory, honouring the entry filter.
func (s *Site) findPostDirs(dir string) ([]string, error) {
	base := filepath.Join(s.source, dir)
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, apperr.Wrap(apperr.PhaseRead, base, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || !s.keep(dir, name) {
			continue
		}
		if name == PostsDir {
			out = append(out, dir)
			continue
		}
		if filepath.Join(base, name) == s.dest {
			continue
		}
		sub, err := s.findPostDirs(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func categoriesFromDir(dir string) []string {
	if dir == "" {
		return nil
	}
	return strings.Split(filepath.ToSlash(dir), "/")
}

// readPostDir reads the posts under root, recursing into subdirectories.
// Files whose names are not valid post filenames are skipped silently.
func (s *Site) readPostDir(root string, categories []string) error {
	return filepath.WalkDir(root, func(file string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return apperr.Wrap(apperr.PhaseRead, file, walkErr)
		}
		if file == root {
			return nil
		}
		rel, _ := filepath.Rel(root, file)
		if !s.keep(filepath.Dir(rel), d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !content.IsValidFilename(d.Name()) {
			s.log.Debug("skipping non-post file", slog.String("path", file))
			return nil
		}

		p, err := content.NewPost(file, s.sourceRel(file), content.PostOptions{
			Categories: categories,
			Permalink:  s.opts.Permalink,
		})
		if err != nil {
			return err
		}
		if !p.Published {
			s.log.Debug("skipping unpublished post", slog.String("path", p.Source))
			return nil
		}
		s.Posts = append(s.Posts, p)
		return nil
	})
}

// writePosts renders posts concurrently against one payload snapshot, then
// writes them in order so collisions resolve the same way on every run.
func (s *Site) writePosts(ctx context.Context) error {
	payload := s.Payload()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, p := range s.Posts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return s.renderer.Render(p, p.Payload(), payload)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, p := range s.Posts {
		if err := s.write(p, metrics.KindPost); err != nil {
			return err
		}
	}
	return nil
}

// sourceRel returns file relative to the source root when it lies inside it.
func (s *Site) sourceRel(file string) string {
	rel, err := filepath.Rel(s.source, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return file
	}
	return filepath.ToSlash(rel)
}
