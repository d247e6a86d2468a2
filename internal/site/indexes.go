package site

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/starford/quire/internal/content"
	"github.com/starford/quire/internal/metrics"
)

// writeTagIndexes renders one page per tag under /tags/<tag>/ when a
// tag_index layout exists.
func (s *Site) writeTagIndexes(ctx context.Context) error {
	layout, ok := s.Layouts[content.LayoutTagIndex]
	if !ok {
		s.log.Debug("no tag index layout, skipping tag pages")
		return nil
	}
	byTag := byAttr(s.Posts, tagsOf)
	for _, tag := range slices.Sorted(maps.Keys(byTag)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		ti := content.NewTagIndex(layout, tag, byTag[tag])
		if err := s.renderer.Render(ti, ti.Payload(), s.Payload()); err != nil {
			return err
		}
		if err := s.write(ti, metrics.KindTagIndex); err != nil {
			return err
		}
	}
	s.log.Info("tag indexes written", slog.Int("count", len(byTag)))
	return nil
}

// writeArchives renders the yearly, monthly and daily archives. Each tier is
// produced only when its own layout exists.
func (s *Site) writeArchives(ctx context.Context) error {
	tiers := []struct {
		layout  string
		buckets func() [][3]int
	}{
		{content.LayoutArchiveYearly, s.yearBuckets},
		{content.LayoutArchiveMonthly, s.monthBuckets},
		{content.LayoutArchiveDaily, s.dayBuckets},
	}
	for _, tier := range tiers {
		layout, ok := s.Layouts[tier.layout]
		if !ok {
			continue
		}
		buckets := tier.buckets()
		for _, b := range buckets {
			if err := ctx.Err(); err != nil {
				return err
			}
			a := content.NewArchive(layout, b[0], b[1], b[2], s.Collated.Bucket(b[0], b[1], b[2]))
			if err := s.renderer.Render(a, a.Payload(), s.Payload()); err != nil {
				return err
			}
			if err := s.write(a, metrics.KindArchive); err != nil {
				return err
			}
		}
		s.log.Info("archives written", slog.String("layout", tier.layout), slog.Int("count", len(buckets)))
	}
	return nil
}

func (s *Site) yearBuckets() [][3]int {
	var out [][3]int
	for _, y := range s.Collated.Years() {
		out = append(out, [3]int{y, 0, 0})
	}
	return out
}

func (s *Site) monthBuckets() [][3]int {
	var out [][3]int
	for _, y := range s.Collated.Years() {
		for _, m := range s.Collated.Months(y) {
			out = append(out, [3]int{y, m, 0})
		}
	}
	return out
}

func (s *Site) dayBuckets() [][3]int {
	var out [][3]int
	for _, y := range s.Collated.Years() {
		for _, m := range s.Collated.Months(y) {
			for _, d := range s.Collated.Days(y, m) {
				out = append(out, [3]int{y, m, d})
			}
		}
	}
	return out
}
