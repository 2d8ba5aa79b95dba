package stattic

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alnah/go-stattic/internal/content"
	"github.com/alnah/go-stattic/internal/site"
)

// Status is the outcome of one entity.
type Status string

const (
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusIncomplete Status = "incomplete"
	StatusSkipped    Status = "skipped" // draft
)

// ImageStatus is the outcome of one image reference.
type ImageStatus string

const (
	ImageConverted ImageStatus = "converted"
	ImageFallback  ImageStatus = "fallback" // converted after a lossy fallback
	ImageFailed    ImageStatus = "failed"   // original reference kept
	ImageSkipped   ImageStatus = "skipped"  // not localized by design (absolute local path)
)

// ImageRecord describes one image reference of an entity.
type ImageRecord struct {
	Ref      string // as written in the content
	Local    string // output-root-relative file, empty unless localized
	Status   ImageStatus
	Reason   Reason
	Strategy string
	Note     string
	Reused   bool // served from a conversion done for another reference
	Err      error
}

// EntityRecord describes one entity of the build.
type EntityRecord struct {
	ID         string
	Kind       content.Kind
	Status     Status
	Reason     Reason
	Err        error
	OutputPath string
	Images     []ImageRecord
	Duration   time.Duration
	Worker     int

	// Post feeds site assembly; nil unless the entity succeeded.
	Post *site.Post
}

// Threshold decides when failures fail the build.
type Threshold struct {
	MaxFailures int     // -1 with MaxRatio 0 means any failure fails
	MaxRatio    float64 // fraction of entities, 0 means unset
}

// Report is the aggregate result of a build. Only the orchestrator
// goroutine writes it.
type Report struct {
	BuildID  string
	Started  time.Time
	Elapsed  time.Duration
	Workers  int
	Entities []EntityRecord // sorted by ID
	Partial  bool           // stopped by cancellation or the global timeout
	SiteErr  error          // site assembly failure, if any
}

func (r *Report) add(rec EntityRecord) {
	r.Entities = append(r.Entities, rec)
}

func (r *Report) sort() {
	sort.Slice(r.Entities, func(i, j int) bool { return r.Entities[i].ID < r.Entities[j].ID })
}

// IDs returns the ids of entities with the given status, sorted.
func (r *Report) IDs(status Status) []string {
	var ids []string
	for _, e := range r.Entities {
		if e.Status == status {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Count returns the number of entities with the given status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, e := range r.Entities {
		if e.Status == status {
			n++
		}
	}
	return n
}

// Failures returns failed and incomplete entities.
func (r *Report) Failures() []EntityRecord {
	var out []EntityRecord
	for _, e := range r.Entities {
		if e.Status == StatusFailed || e.Status == StatusIncomplete {
			out = append(out, e)
		}
	}
	return out
}

// ImageFailures returns every image reference left unlocalized by an
// error, paired with its entity id.
func (r *Report) ImageFailures() map[string][]ImageRecord {
	out := make(map[string][]ImageRecord)
	for _, e := range r.Entities {
		for _, img := range e.Images {
			if img.Status == ImageFailed {
				out[e.ID] = append(out[e.ID], img)
			}
		}
	}
	return out
}

// Posts returns the assembly records of succeeded entities of kind.
func (r *Report) Posts(kind content.Kind) []site.Post {
	var out []site.Post
	for _, e := range r.Entities {
		if e.Status == StatusSucceeded && e.Kind == kind && e.Post != nil {
			out = append(out, *e.Post)
		}
	}
	return out
}

// ExceedsThreshold reports whether failed and incomplete entities exceed t.
// Skipped drafts do not count.
func (r *Report) ExceedsThreshold(t Threshold) bool {
	failures := len(r.Failures())
	if failures == 0 {
		return false
	}

	counted := len(r.Entities) - r.Count(StatusSkipped)
	if t.MaxRatio > 0 && counted > 0 && float64(failures)/float64(counted) > t.MaxRatio {
		return true
	}
	if t.MaxFailures >= 0 {
		return failures > t.MaxFailures
	}
	// No count limit: the ratio alone decides when set, otherwise any failure.
	return t.MaxRatio <= 0
}

// Err returns nil when the build is acceptable under t. Site assembly
// failures are always errors.
func (r *Report) Err(t Threshold) error {
	var errs []error
	if r.ExceedsThreshold(t) {
		errs = append(errs, fmt.Errorf("%w: %d of %d entities failed", ErrThresholdExceeded, len(r.Failures()), len(r.Entities)))
	}
	if r.SiteErr != nil {
		errs = append(errs, r.SiteErr)
	}
	return errors.Join(errs...)
}

// Outcome summarizes the build as success, warning, failed or partial.
func (r *Report) Outcome(t Threshold) string {
	switch {
	case r.Partial:
		return "partial"
	case r.Err(t) != nil:
		return "failed"
	case len(r.Failures()) > 0 || len(r.ImageFailures()) > 0:
		return "warning"
	default:
		return "success"
	}
}

// Summary returns a one-line description of the build.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d succeeded, %d failed, %d incomplete, %d skipped in %s",
		r.Count(StatusSucceeded), r.Count(StatusFailed), r.Count(StatusIncomplete),
		r.Count(StatusSkipped), r.Elapsed.Round(time.Millisecond))
}
