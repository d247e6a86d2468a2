// Package metrics records build observations. The site calls a Recorder at
// each phase boundary; NoopRecorder is used when metrics are not configured.
package metrics

import "time"

// Document kinds counted by IncRendered.
const (
	KindPost     = "post"
	KindPage     = "page"
	KindArchive  = "archive"
	KindTagIndex = "tag_index"
)

// Build outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Recorder defines observability hooks for a build.
type Recorder interface {
	ObservePhaseDuration(phase string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncRendered(kind string)
	IncCopied()
	IncBuildOutcome(outcome string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObservePhaseDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncRendered(string)                         {}
func (NoopRecorder) IncCopied()                                 {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
