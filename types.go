package stattic

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alnah/go-stattic/internal/fetch"
	"github.com/alnah/go-stattic/internal/fonts"
	"github.com/alnah/go-stattic/internal/imageconv"
	"github.com/alnah/go-stattic/internal/metrics"
	"github.com/alnah/go-stattic/internal/render"
)

// Fetcher downloads one remote resource. *fetch.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// FetcherFactory creates the private Fetcher of one worker.
type FetcherFactory func() Fetcher

// Converter converts image bytes. *imageconv.Pipeline satisfies it.
type Converter interface {
	Convert(ctx context.Context, job imageconv.Job) (*imageconv.Output, error)
}

// Renderer renders a named template. *render.Renderer satisfies it.
type Renderer interface {
	Render(name string, data *render.Data) (string, error)
}

// Settings are the immutable values every worker reads.
type Settings struct {
	ContentDir  string
	OutputDir   string
	BlogSlug    string
	DateFormat  string
	Drafts      bool
	ImageFormat imageconv.Format
	MaxWidth    int
	MaxBytes    int64 // local image ceiling; remote downloads use the fetch policy
	Site        render.Site
}

// Option configures a Builder or Generate.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	metrics    metrics.Recorder
	workers    int
	timeout    time.Duration
	newFetcher FetcherFactory
	converter  Converter
	renderer   Renderer
	fontGetter fonts.Getter
	now        time.Time
}

func defaultOptions() options {
	return options{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: metrics.NoopRecorder{},
	}
}

// WithLogger sets the logger. Library callers get silence by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.metrics = r
		}
	}
}

// WithWorkers sets the worker count. Zero or less sizes the pool from
// available parallelism.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithTimeout sets the global build timeout. Entities still running when
// it expires are reported as incomplete.
// Panics if d < 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d < 0 {
		panic("stattic: WithTimeout duration must not be negative")
	}
	return func(o *options) {
		o.timeout = d
	}
}

// WithFetcherFactory replaces how workers create their Fetcher.
func WithFetcherFactory(f FetcherFactory) Option {
	return func(o *options) {
		if f != nil {
			o.newFetcher = f
		}
	}
}

// WithConverter replaces the image conversion pipeline.
func WithConverter(c Converter) Option {
	return func(o *options) {
		if c != nil {
			o.converter = c
		}
	}
}

// WithRenderer replaces the template renderer.
func WithRenderer(r Renderer) Option {
	return func(o *options) {
		if r != nil {
			o.renderer = r
		}
	}
}

// WithFontGetter replaces the fetcher used for Google Fonts.
func WithFontGetter(g fonts.Getter) Option {
	return func(o *options) {
		if g != nil {
			o.fontGetter = g
		}
	}
}

// WithNow fixes the clock used for the footer year, sitemap and feed.
func WithNow(t time.Time) Option {
	return func(o *options) {
		o.now = t
	}
}
