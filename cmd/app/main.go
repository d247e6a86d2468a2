package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/quire/internal"
	pkgconfig "github.com/starford/quire/pkg/config"
)

// loadConfig reads the configuration file and applies the command-line
// overrides. Without --config the file is looked up at the source root and
// may be absent.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if src := cmd.String("source"); src != "" {
		cfg.Source = src
	}

	if cmd.IsSet("config") {
		if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else {
		path := filepath.Join(cfg.Source, internal.ConfigFile)
		if _, err := pkgconfig.LoadOptional(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if cmd.IsSet("source") {
		cfg.Source = cmd.String("source")
	}
	if cmd.IsSet("destination") {
		cfg.Destination = cmd.String("destination")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func listPosts(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("tags") {
		return printTagCounts(cfg)
	}
	posts, err := internal.ListPosts(cfg, cmd.String("tag"), int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, p := range posts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Date.Format("2006-01-02"), p.URL, p.Title, strings.Join(p.Tags, ","))
	}
	return w.Flush()
}

func printTagCounts(cfg *internal.Config) error {
	counts, err := internal.TagCounts(cfg)
	if err != nil {
		return err
	}
	tags := slices.Sorted(maps.Keys(counts))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, tag := range tags {
		fmt.Fprintf(w, "%s\t%d\n", tag, counts[tag])
	}
	return w.Flush()
}

func status(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := internal.Status(cfg)
	if err != nil {
		return err
	}
	b := st.Build
	fmt.Printf("build %s finished %s in %s\n", b.ID, b.FinishedAt.Format(time.RFC3339), b.FinishedAt.Sub(b.StartedAt).Round(time.Millisecond))
	fmt.Printf("posts %d, pages %d, copied %d, outputs %d\n", b.Posts, b.Pages, b.Copied, len(st.Outputs))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	outputs := st.Outputs
	if !cmd.Bool("all") {
		outputs = st.Changed()
	}
	for _, o := range outputs {
		fmt.Fprintf(w, "%s\t%s\t%d\n", o.State, o.Path, o.Size)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if n := len(st.Changed()); n > 0 {
		return fmt.Errorf("%d outputs changed since the last build", n)
	}
	return nil
}

func search(_ context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if query == "" {
		return errors.New("search: a query is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	hits, err := internal.SearchPosts(cfg, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Printf("%s  %s\n    %s\n", h.URL, h.Title, h.Snippet)
	}
	return nil
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of results",
		Value: 20,
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "quire",
		Usage:  "Static site generator for blogs: posts, layouts, archives and tag pages",
		Action: build,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "<source>/" + internal.ConfigFile,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Source directory",
				Sources: cli.EnvVars("QUIRE_SOURCE"),
			},
			&cli.StringFlag{
				Name:    "destination",
				Aliases: []string{"d"},
				Usage:   "Destination directory",
				Sources: cli.EnvVars("QUIRE_DESTINATION"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Generate the site into the destination directory",
				Action: build,
			},
			{
				Name:  "posts",
				Usage: "List posts recorded in the build catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tag", Usage: "Only posts carrying this tag"},
					&cli.BoolFlag{Name: "tags", Usage: "Print each tag with its post count instead"},
					limitFlag(),
				},
				Action: listPosts,
			},
			{
				Name:  "status",
				Usage: "Show the last catalogued build and check its outputs on disk",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "List unchanged outputs too"},
				},
				Action: status,
			},
			{
				Name:      "search",
				Usage:     "Full-text search over catalogued posts",
				ArgsUsage: "<query>",
				Flags:     []cli.Flag{limitFlag()},
				Action:    search,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
