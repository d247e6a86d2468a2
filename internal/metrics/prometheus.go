package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "quire"

// PrometheusRecorder implements Recorder with Prometheus collectors on a
// private registry, flushed to a node-exporter textfile after the build.
type PrometheusRecorder struct {
	reg           *prom.Registry
	phaseDuration *prom.HistogramVec
	buildDuration prom.Histogram
	rendered      *prom.CounterVec
	copied        prom.Counter
	buildOutcome  *prom.CounterVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder registers the build collectors on reg, or on a fresh
// registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		phaseDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of individual build phases",
			Buckets:   prom.DefBuckets,
		}, []string{"phase"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		rendered: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "documents_rendered_total",
			Help:      "Rendered documents by kind",
		}, []string{"kind"}),
		copied: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_copied_total",
			Help:      "Plain files copied without rendering",
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.phaseDuration, pr.buildDuration, pr.rendered, pr.copied, pr.buildOutcome)
	return pr
}

func (p *PrometheusRecorder) ObservePhaseDuration(phase string, d time.Duration) {
	if p == nil {
		return
	}
	p.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRendered(kind string) {
	if p == nil {
		return
	}
	p.rendered.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncCopied() {
	if p == nil {
		return
	}
	p.copied.Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes every collected metric to path in the text exposition
// format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
