package site

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/content"
	"github.com/starford/quire/internal/metrics"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/pager"
	"github.com/starford/quire/internal/parser"
)

// transformPages walks dir depth-first, directories before files. Files with
// a front-matter header are rendered as pages; everything else is copied
// byte for byte. _posts directories were handled by readPosts and are
// skipped, as is the destination when it lives inside the source.
func (s *Site) transformPages(ctx context.Context, dir string) error {
	base := filepath.Join(s.source, dir)
	entries, err := os.ReadDir(base)
	if err != nil {
		return apperr.Wrap(apperr.PhaseRead, base, err)
	}

	var dirs, files []string
	for _, e := range entries {
		name := e.Name()
		if !s.keep(dir, name) {
			continue
		}
		switch {
		case e.IsDir():
			if name == PostsDir || filepath.Join(base, name) == s.dest {
				continue
			}
			dirs = append(dirs, name)
		case e.Type().IsRegular():
			files = append(files, name)
		default:
			s.log.Debug("skipping non-regular file", slog.String("path", filepath.Join(dir, name)))
		}
	}

	for _, name := range dirs {
		if err := s.transformPages(ctx, filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.transformFile(dir, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Site) transformFile(dir, name string) error {
	file := filepath.Join(s.source, dir, name)
	rel := path.Join(filepath.ToSlash(dir), name)

	head, err := readHead(file, 3)
	if err != nil {
		return apperr.Wrap(apperr.PhaseRead, rel, err)
	}
	if !parser.HasFrontMatter(head) {
		return s.copyFile(rel, file)
	}

	page, err := content.NewPage(file, rel, dir, content.PageOptions{
		Markup: s.opts.Markup,
		Pretty: s.opts.Permalink == content.StylePretty,
	})
	if errors.Is(err, apperr.ErrMalformedFrontMatter) {
		s.log.Warn("malformed front matter, copying verbatim", slog.String("path", rel), slog.Any("error", err))
		return s.copyFile(rel, file)
	}
	if err != nil {
		return err
	}

	if pager.Enabled(s.opts.Paginate, name) {
		return s.paginate(page)
	}
	if err := s.renderer.Render(page, page.Payload(), s.Payload()); err != nil {
		return err
	}
	return s.write(page, metrics.KindPage)
}

// paginate renders page once per page of posts. Page 1 keeps the page's
// own path; page N is written next to it with "pageN" appended to the stem.
func (s *Site) paginate(page *content.Page) error {
	all := descending(s.Posts)
	perPage := s.opts.Paginate
	pages := max(pager.TotalPages(len(all), perPage), 1)
	pathOf := func(n int) string {
		c := page.Copy()
		c.SetPageNumber(n)
		return c.URL()
	}

	for n := 1; n <= pages; n++ {
		pg, err := pager.New(all, perPage, n)
		if err != nil {
			return apperr.Wrap(apperr.PhaseTemplate, page.Source, err)
		}
		doc := page.Copy()
		doc.SetPageNumber(n)
		payload := doc.Payload()
		payload["paginator"] = pg.Payload((*content.Post).Drop, pathOf)
		if err := s.renderer.Render(doc, payload, s.Payload()); err != nil {
			return err
		}
		if err := s.write(doc, metrics.KindPage); err != nil {
			return err
		}
	}
	s.log.Debug("paginated", slog.String("path", page.Source), slog.Int("pages", pages))
	return nil
}

func (s *Site) copyFile(rel, file string) error {
	sum, err := s.opts.Store.Copy(rel, file)
	if err != nil {
		return apperr.Wrap(apperr.PhaseWrite, rel, err)
	}
	info, err := os.Stat(file)
	if err != nil {
		return apperr.Wrap(apperr.PhaseRead, rel, err)
	}
	s.record(rel, sum, info.Size())
	s.Stats.Copied++
	s.recorder.IncCopied()
	s.log.Debug("copied", slog.String("path", rel))
	return nil
}

// write stores a rendered document at its output path.
func (s *Site) write(r content.Renderable, kind string) error {
	doc := r.Doc()
	rel := content.OutputPath(r)
	sum, err := s.opts.Store.Write(rel, []byte(doc.Output))
	if err != nil {
		return apperr.Wrap(apperr.PhaseWrite, doc.Source, err)
	}
	s.record(rel, sum, int64(len(doc.Output)))
	switch kind {
	case metrics.KindPost:
		s.Stats.Posts++
	case metrics.KindPage:
		s.Stats.Pages++
	case metrics.KindArchive:
		s.Stats.Archives++
	case metrics.KindTagIndex:
		s.Stats.TagIndexes++
	}
	s.recorder.IncRendered(kind)
	s.log.Debug("wrote", slog.String("path", rel), slog.String("kind", kind), slog.String("source", doc.Source))
	return nil
}

// record notes an output file. A later write to the same path replaces the
// earlier entry.
func (s *Site) record(rel, sum string, size int64) {
	meta := models.OutputMeta{Path: rel, Checksum: sum, Size: size, UpdatedAt: time.Now()}
	if i, ok := s.outputIdx[rel]; ok {
		s.Outputs[i] = meta
		return
	}
	s.outputIdx[rel] = len(s.Outputs)
	s.Outputs = append(s.Outputs, meta)
}

func readHead(file string, n int) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}
