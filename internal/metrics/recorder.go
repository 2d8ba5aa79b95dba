package metrics

import "time"

// EntityStatus labels per-entity outcomes.
type EntityStatus string

const (
	EntitySucceeded  EntityStatus = "succeeded"
	EntityFailed     EntityStatus = "failed"
	EntityIncomplete EntityStatus = "incomplete"
	EntitySkipped    EntityStatus = "skipped"
)

// ImageStatus labels per-image outcomes.
type ImageStatus string

const (
	ImageConverted ImageStatus = "converted"
	ImageFallback  ImageStatus = "fallback"
	ImageFailed    ImageStatus = "failed"
	ImageReused    ImageStatus = "reused"
)

// Recorder defines observability hooks for a build. Implementations must be
// safe for concurrent use.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string) // success|warning|failed|partial
	IncEntityResult(kind string, status EntityStatus)
	IncImageResult(status ImageStatus)
	IncFetchResult(reason string) // "ok" or a failure reason
	ObserveConversionDuration(strategy string, d time.Duration)
	SetWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration)              {}
func (NoopRecorder) IncBuildOutcome(string)                          {}
func (NoopRecorder) IncEntityResult(string, EntityStatus)            {}
func (NoopRecorder) IncImageResult(ImageStatus)                      {}
func (NoopRecorder) IncFetchResult(string)                           {}
func (NoopRecorder) ObserveConversionDuration(string, time.Duration) {}
func (NoopRecorder) SetWorkers(int)                                  {}
