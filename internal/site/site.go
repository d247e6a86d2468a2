// Package site orchestrates a build: it reads layouts and posts, collates
// the posts, renders every document through its layout chain and writes the
// result into the destination tree.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/starford/quire/internal/content"
	"github.com/starford/quire/internal/markup"
	"github.com/starford/quire/internal/metrics"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/storage"
	"github.com/starford/quire/internal/tpl"
)

// TracerName is the instrumentation scope of the build spans.
const TracerName = "github.com/starford/quire/internal/site"

// Reserved directory names under the source root.
const (
	LayoutsDir  = "_layouts"
	PostsDir    = "_posts"
	IncludesDir = "_includes"
)

// Options configures a Site. Markup, Engine and Store are required.
type Options struct {
	Source      string
	Destination string
	// ContentRoot is an extra directory whose files are all read as posts.
	ContentRoot string
	Permalink   string
	Paginate    int
	Exclude     []string
	Workers     int
	// Config is exposed to templates under `site`.
	Config map[string]any

	Markup   *markup.Registry
	Engine   tpl.Engine
	Store    storage.Provider
	Recorder metrics.Recorder
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Now      func() time.Time
}

// Stats counts what a build produced.
type Stats struct {
	Posts      int
	Pages      int
	Archives   int
	TagIndexes int
	Copied     int
}

// Site holds the state of one build.
type Site struct {
	source string
	dest   string
	opts   Options

	log      *slog.Logger
	tracer   trace.Tracer
	recorder metrics.Recorder
	renderer *content.Renderer

	outputIdx map[string]int

	Layouts  map[string]*content.Layout
	Posts    []*content.Post
	Collated Collation
	Outputs  []models.OutputMeta
	Stats    Stats
	Time     time.Time
}

// New validates opts and returns a Site ready to Process.
func New(opts Options) (*Site, error) {
	if opts.Markup == nil || opts.Engine == nil || opts.Store == nil {
		return nil, fmt.Errorf("site: markup, engine and store are required")
	}
	source, err := filepath.Abs(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("site: resolve source: %w", err)
	}
	if info, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("site: stat source: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("site: source is not a directory: %s", source)
	}
	dest, err := filepath.Abs(opts.Destination)
	if err != nil {
		return nil, fmt.Errorf("site: resolve destination: %w", err)
	}
	if within(source, dest) {
		return nil, fmt.Errorf("site: destination %s must not be or contain the source %s", dest, source)
	}
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("site: invalid exclude pattern %q", pattern)
		}
	}
	if opts.ContentRoot != "" && !filepath.IsAbs(opts.ContentRoot) {
		opts.ContentRoot = filepath.Join(source, opts.ContentRoot)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Site{
		source:   source,
		dest:     dest,
		opts:     opts,
		log:      opts.Logger,
		tracer:   opts.Tracer,
		recorder: opts.Recorder,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(TracerName)
	}
	if s.recorder == nil {
		s.recorder = metrics.NoopRecorder{}
	}
	s.Reset()
	return s, nil
}

// Reset clears every collection so Process can run again.
func (s *Site) Reset() {
	s.Layouts = map[string]*content.Layout{}
	s.Posts = nil
	s.Collated = Collation{}
	s.Outputs = nil
	s.outputIdx = map[string]int{}
	s.Stats = Stats{}
	s.Time = s.opts.Now()
	s.renderer = &content.Renderer{
		Markup:  s.opts.Markup,
		Engine:  s.opts.Engine,
		Layouts: s.Layouts,
	}
}

// Process runs a full build: layouts, posts, the rest of the source tree,
// tag indexes and archives, in that order.
func (s *Site) Process(ctx context.Context) (err error) {
	ctx, span := s.tracer.Start(ctx, "site.process")
	start := time.Now()
	defer func() {
		s.recorder.ObserveBuildDuration(time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		} else {
			s.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
		}
		span.End()
	}()

	s.Reset()
	phases := []struct {
		name string
		run  func(context.Context) error
	}{
		{"layouts", s.readLayouts},
		{"posts", s.readPosts},
		{"write_posts", s.writePosts},
		{"pages", func(ctx context.Context) error { return s.transformPages(ctx, "") }},
		{"tag_indexes", s.writeTagIndexes},
		{"archives", s.writeArchives},
	}
	for _, ph := range phases {
		if err := s.phase(ctx, ph.name, ph.run); err != nil {
			return err
		}
	}

	span.SetAttributes(
		attribute.Int("site.posts", s.Stats.Posts),
		attribute.Int("site.pages", s.Stats.Pages),
		attribute.Int("site.copied", s.Stats.Copied),
	)
	s.log.Info("build complete",
		slog.String("source", s.source),
		slog.String("destination", s.dest),
		slog.Int("posts", s.Stats.Posts),
		slog.Int("pages", s.Stats.Pages),
		slog.Int("archives", s.Stats.Archives),
		slog.Int("tag_indexes", s.Stats.TagIndexes),
		slog.Int("copied", s.Stats.Copied),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (s *Site) phase(ctx context.Context, name string, run func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "site."+name)
	defer span.End()

	start := time.Now()
	err := run(ctx)
	s.recorder.ObservePhaseDuration(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	s.log.Debug("phase done", slog.String("phase", name), slog.Duration("elapsed", time.Since(start)))
	return nil
}

// within reports whether path is dir itself or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Source returns the absolute source root.
func (s *Site) Source() string { return s.source }

// Destination returns the absolute destination root.
func (s *Site) Destination() string { return s.dest }
