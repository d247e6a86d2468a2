package internal

import (
	"log/slog"
	"maps"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/quire/internal/markup"
)

// ConfigFile is the configuration file looked up at the source root.
const ConfigFile = "_config.yml"

// Config represents the site configuration. Keys not mapped to a field are
// kept in Extra and exposed to templates under `site`.
type Config struct {
	Source      string   `yaml:"source"`
	Destination string   `yaml:"destination"`
	ContentRoot string   `yaml:"content_root"`
	Permalink   string   `yaml:"permalink"`
	Paginate    int      `yaml:"paginate"`
	Markdown    string   `yaml:"markdown"`
	MarkdownExt string   `yaml:"markdown_ext"`
	Exclude     []string `yaml:"exclude"`
	Workers     int      `yaml:"workers"`
	// Clean removes destination files the build did not produce.
	Clean bool `yaml:"clean"`

	App     ApplicationConfig `yaml:"app"`
	Catalog CatalogConfig     `yaml:"catalog"`
	Metrics MetricsConfig     `yaml:"metrics"`
	Tracing TracingConfig     `yaml:"tracing"`

	Extra map[string]any `yaml:",inline"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.Required),
		validation.Field(&c.Destination, validation.Required),
		validation.Field(&c.Permalink, validation.Required),
		validation.Field(&c.Paginate, validation.Min(0)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.Markdown, validation.Required, validation.In(toAny(markup.Processors)...)),
	)
}

// MarkdownExts returns the comma-separated markdown_ext list, trimmed.
func (c *Config) MarkdownExts() []string {
	var out []string
	for _, ext := range strings.Split(c.MarkdownExt, ",") {
		if ext = strings.TrimSpace(ext); ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// SiteVars returns the values templates see under `site`.
func (c *Config) SiteVars() map[string]any {
	out := make(map[string]any, len(c.Extra)+5)
	maps.Copy(out, c.Extra)
	out["source"] = c.Source
	out["destination"] = c.Destination
	out["permalink"] = c.Permalink
	out["paginate"] = c.Paginate
	out["markdown"] = c.Markdown
	return out
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// CatalogConfig holds the SQLite build catalog location. An empty path
// disables the catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether a catalog path is configured.
func (c *CatalogConfig) Enabled() bool {
	return c.Path != ""
}

// MetricsConfig holds the Prometheus textfile output. An empty path disables
// metrics.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Enabled reports whether a textfile path is configured.
func (c *MetricsConfig) Enabled() bool {
	return c.Textfile != ""
}

// TracingConfig turns on OpenTelemetry spans around the build phases. Spans
// are exported as JSON to File, or to stderr when File is empty.
type TracingConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Source:      ".",
		Destination: "_site",
		Permalink:   "date",
		Markdown:    markup.ProcessorGoldmark,
		MarkdownExt: "markdown, md",
		Workers:     4,
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
	}
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
