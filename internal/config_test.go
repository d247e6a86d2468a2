package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgconfig "github.com/starford/quire/pkg/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if got := cfg.MarkdownExts(); len(got) != 2 || got[0] != "markdown" || got[1] != "md" {
		t.Errorf("MarkdownExts = %v", got)
	}
	if cfg.Catalog.Enabled() || cfg.Metrics.Enabled() {
		t.Error("catalog and metrics should be off by default")
	}
}

func TestConfig_UnknownMarkdown(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Markdown = "rdiscount"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("unknown markdown processor should fail validation")
	}
	if !strings.Contains(err.Error(), "markdown") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfig_Bounds(t *testing.T) {
	cases := map[string]func(*Config){
		"negative paginate": func(c *Config) { c.Paginate = -1 },
		"zero workers":      func(c *Config) { c.Workers = 0 },
		"too many workers":  func(c *Config) { c.Workers = 65 },
		"empty permalink":   func(c *Config) { c.Permalink = "" },
		"empty destination": func(c *Config) { c.Destination = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConfig_LoadKeepsExtraKeys(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ConfigFile)
	body := "permalink: pretty\npaginate: 5\ntitle: My Blog\napp:\n  log_level: debug\ncatalog:\n  path: build.db\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(p, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected config file to be found")
	}
	if cfg.Permalink != "pretty" || cfg.Paginate != 5 {
		t.Errorf("permalink=%q paginate=%d", cfg.Permalink, cfg.Paginate)
	}
	if cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
	if !cfg.Catalog.Enabled() {
		t.Error("catalog should be enabled")
	}
	if cfg.Workers != 4 {
		t.Errorf("default workers lost: %d", cfg.Workers)
	}

	vars := cfg.SiteVars()
	if vars["title"] != "My Blog" {
		t.Errorf("site.title = %v", vars["title"])
	}
	if vars["permalink"] != "pretty" {
		t.Errorf("site.permalink = %v", vars["permalink"])
	}
}
