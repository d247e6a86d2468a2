// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/starford/quire/internal/markup"
	"github.com/starford/quire/internal/metrics"
	"github.com/starford/quire/internal/site"
	"github.com/starford/quire/internal/storage"
	"github.com/starford/quire/internal/tpl"
)

// Run builds the site described by the configuration.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	buildID := app.buildID
	if buildID == "" {
		buildID = uuid.NewString()
	}
	logger := newLogger(app.logOutput, cfg.App.LogLevel).With(slog.String("build_id", buildID))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("source", cfg.Source),
		slog.String("destination", cfg.Destination),
		slog.String("markdown", cfg.Markdown),
		slog.String("permalink", cfg.Permalink),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	md, err := markup.NewMarkdown(cfg.Markdown)
	if err != nil {
		return fmt.Errorf("init markup: %w", err)
	}

	store, err := storage.NewFS(cfg.Destination)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	tp, shutdownTracing, err := newTracerProvider(cfg.Tracing, buildID)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		prom     *metrics.PrometheusRecorder
	)
	if cfg.Metrics.Enabled() {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	s, err := site.New(site.Options{
		Source:      cfg.Source,
		Destination: cfg.Destination,
		ContentRoot: cfg.ContentRoot,
		Permalink:   cfg.Permalink,
		Paginate:    cfg.Paginate,
		Exclude:     cfg.Exclude,
		Workers:     cfg.Workers,
		Config:      cfg.SiteVars(),
		Markup:      markup.NewRegistry(md, cfg.MarkdownExts()),
		Engine:      tpl.New(filepath.Join(cfg.Source, site.IncludesDir)),
		Store:       store,
		Recorder:    recorder,
		Logger:      logger,
		Tracer:      tp.Tracer(site.TracerName),
	})
	if err != nil {
		return fmt.Errorf("init site: %w", err)
	}

	started := time.Now()
	buildErr := s.Process(ctx)
	finished := time.Now()

	if prom != nil {
		if err := prom.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("metrics textfile not written", slog.String("error", err.Error()))
		}
	}
	if buildErr != nil {
		logger.Error("Build failed", slog.String("error", buildErr.Error()))
		return buildErr
	}

	if cfg.Clean {
		keep := protectedPaths(store.Root(), cfg.Catalog.Path, cfg.Metrics.Textfile, cfg.Tracing.File)
		if err := prune(store, s.Outputs, keep, logger); err != nil {
			return fmt.Errorf("prune destination: %w", err)
		}
	}

	if cfg.Catalog.Enabled() {
		if err := recordBuild(cfg, buildID, s, started, finished, logger); err != nil {
			return fmt.Errorf("record catalog: %w", err)
		}
	}

	logger.Info("Build finished successfully",
		slog.Int("posts", s.Stats.Posts),
		slog.Int("pages", s.Stats.Pages),
		slog.Int("archives", s.Stats.Archives),
		slog.Int("tag_indexes", s.Stats.TagIndexes),
		slog.Int("copied", s.Stats.Copied),
		slog.Duration("elapsed", finished.Sub(started)))
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
