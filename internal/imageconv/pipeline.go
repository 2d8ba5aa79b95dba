// Package imageconv converts downloaded images to the site's target format.
//
// Conversion is an ordered list of strategies. The pipeline asks each
// strategy in turn whether it accepts the job and stops at the first one
// that succeeds. With the default order, GIF sources bound for WebP go to
// the external gif2webp tool first, which keeps animation; when that fails
// the in-process strategy converts the first frame and the output is marked
// as a fallback.
package imageconv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxInputBytes bounds the input accepted by Convert when the job
// sets no limit.
const DefaultMaxInputBytes = 10 << 20

// Sentinel errors. ErrUnsupportedFormat and ErrTooLarge are decode failures.
var (
	ErrDecode            = errors.New("image decode failed")
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format", ErrDecode)
	ErrTooLarge          = fmt.Errorf("%w: image exceeds limits", ErrDecode)
	ErrEncode            = errors.New("image encode failed")
	ErrNoStrategy        = errors.New("no conversion strategy accepts job")
)

// Job is one conversion request.
type Job struct {
	Data     []byte
	Source   Format // detected from Data when unknown
	Target   Format // FormatWebP when unknown
	MaxBytes int64  // input ceiling; DefaultMaxInputBytes when zero
	MaxWidth int    // downscale wider images; 0 keeps the original size
}

// Output is a converted image.
type Output struct {
	Data     []byte
	Format   Format
	Width    int
	Height   int
	Strategy string // name of the strategy that produced Data
	Fallback bool   // an earlier strategy failed
	Note     string // why the fallback happened
}

// Strategy converts images for the jobs it accepts.
type Strategy interface {
	Name() string
	Accepts(job Job) bool
	Convert(ctx context.Context, job Job) (*Output, error)
}

// Pipeline runs strategies in order. It is safe for concurrent use when
// its strategies are.
type Pipeline struct {
	strategies []Strategy
}

// New returns a pipeline trying strategies in the given order.
func New(strategies ...Strategy) *Pipeline {
	return &Pipeline{strategies: strategies}
}

// Default returns the standard pipeline: gif2webp through runner, then the
// in-process converter. A nil runner leaves only the in-process path.
func Default(runner Runner) *Pipeline {
	if runner == nil {
		return New(&Native{})
	}
	return New(&Gif2WebP{Runner: runner}, &Native{})
}

// Strategies returns the strategy names in order.
func (p *Pipeline) Strategies() []string {
	names := make([]string, 0, len(p.strategies))
	for _, s := range p.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Convert runs job through the first accepting strategy that succeeds.
// When every accepting strategy fails, the returned error joins their errors.
func (p *Pipeline) Convert(ctx context.Context, job Job) (*Output, error) {
	job, err := prepare(job)
	if err != nil {
		return nil, err
	}

	var (
		errs   []error
		failed []string
	)
	for _, s := range p.strategies {
		if !s.Accepts(job) {
			continue
		}
		out, err := s.Convert(ctx, job)
		if err == nil {
			out.Strategy = s.Name()
			if len(failed) > 0 {
				out.Fallback = true
				out.Note = fmt.Sprintf("%s failed, converted with %s: %s", strings.Join(failed, ", "), s.Name(), errs[len(errs)-1])
			}
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		failed = append(failed, s.Name())
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoStrategy, job.Source, job.Target)
	}
	return nil, errors.Join(errs...)
}

func prepare(job Job) (Job, error) {
	if len(job.Data) == 0 {
		return job, fmt.Errorf("%w: empty input", ErrDecode)
	}
	limit := job.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxInputBytes
	}
	if int64(len(job.Data)) > limit {
		return job, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(job.Data), limit)
	}
	if job.Source == FormatUnknown {
		job.Source = DetectFormat(job.Data)
		if job.Source == FormatUnknown {
			return job, ErrUnsupportedFormat
		}
	}
	if job.Target == FormatUnknown {
		job.Target = FormatWebP
	}
	return job, nil
}
