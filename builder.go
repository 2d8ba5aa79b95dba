package stattic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-stattic/internal/assets"
	"github.com/alnah/go-stattic/internal/content"
	"github.com/alnah/go-stattic/internal/fetch"
	"github.com/alnah/go-stattic/internal/imageconv"
	"github.com/alnah/go-stattic/internal/logfields"
	"github.com/alnah/go-stattic/internal/metrics"
	"github.com/alnah/go-stattic/internal/pathsafe"
	"github.com/alnah/go-stattic/internal/pipeline"
	"github.com/alnah/go-stattic/internal/render"
)

// Builder runs the concurrent entity build.
type Builder struct {
	settings Settings
	opts     options
}

// NewBuilder creates a Builder. Unset collaborators get defaults: a
// fetcher with the default policy per worker, the in-process image
// pipeline, and the embedded templates.
func NewBuilder(settings Settings, opts ...Option) (*Builder, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	for _, dir := range []*string{&settings.OutputDir, &settings.ContentDir} {
		abs, err := pathsafe.AbsRoot(*dir)
		if err != nil {
			return nil, err
		}
		*dir = abs
	}
	if settings.BlogSlug == "" {
		settings.BlogSlug = "blog"
	}
	if settings.ImageFormat == "" {
		settings.ImageFormat = imageconv.FormatWebP
	}
	if settings.MaxBytes <= 0 {
		settings.MaxBytes = fetch.DefaultMaxBytes
	}

	if o.newFetcher == nil {
		o.newFetcher = func() Fetcher { return fetch.New(fetch.DefaultPolicy()) }
	}
	if o.converter == nil {
		o.converter = imageconv.Default(nil)
	}
	if o.renderer == nil {
		resolver, err := assets.NewAssetResolver("")
		if err != nil {
			return nil, err
		}
		o.renderer = render.New(resolver)
	}
	return &Builder{settings: settings, opts: o}, nil
}

type job struct {
	src content.Source
}

// Build processes sources on a bounded pool of workers and returns the
// merged report. Workers pull from a shared queue, so no entity is
// claimed twice. Every record is merged here, on the calling goroutine.
// The returned error is reserved for a nil shared argument; entity
// failures live in the report.
func (b *Builder) Build(ctx context.Context, sources []content.Source, shared *content.Shared) (*Report, error) {
	if shared == nil {
		return nil, errors.New("building: nil shared data")
	}

	n := ResolvePoolSize(b.opts.workers)
	if n > len(sources) && len(sources) > 0 {
		n = len(sources)
	}
	report := &Report{BuildID: uuid.NewString(), Started: time.Now(), Workers: n}
	logger := b.opts.logger.With(logfields.BuildID(report.BuildID))
	b.opts.metrics.SetWorkers(n)

	if b.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.timeout)
		defer cancel()
	}

	images := newImageStore(b.settings, b.opts.converter, logger, b.opts.metrics)
	jobs := make(chan job)
	results := make(chan EntityRecord)

	done := make(chan struct{})
	for i := range n {
		w := &worker{
			id:       i + 1,
			settings: b.settings,
			shared:   shared,
			fetcher:  b.opts.newFetcher(),
			markdown: pipeline.NewGoldmarkConverter(),
			renderer: b.opts.renderer,
			images:   images,
			logger:   logger,
		}
		go func() {
			defer func() { done <- struct{}{} }()
			defer w.close()
			for j := range jobs {
				results <- w.process(ctx, j.src)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, src := range sources {
			select {
			case jobs <- job{src: src}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		for range n {
			<-done
		}
		close(results)
	}()

	logger.Info("build started", logfields.Workers(n), logfields.Count(len(sources)))

	seen := make(map[string]bool, len(sources))
	outputs := make(map[string]string)
	for rec := range results {
		seen[rec.ID] = true
		if rec.Status == StatusSucceeded {
			if other, dup := outputs[rec.OutputPath]; dup {
				logger.Warn("entities share an output path", logfields.Entity(rec.ID),
					logfields.Path(rec.OutputPath), logfields.Reason("also written by "+other))
			}
			outputs[rec.OutputPath] = rec.ID
		}
		b.opts.metrics.IncEntityResult(string(rec.Kind), entityStatus(rec.Status))
		report.add(rec)
	}

	for _, src := range sources {
		if seen[src.ID] {
			continue
		}
		rec := incomplete(EntityRecord{ID: src.ID, Kind: src.Kind}, ctx.Err())
		b.opts.metrics.IncEntityResult(string(rec.Kind), metrics.EntityIncomplete)
		report.add(rec)
	}

	report.sort()
	report.Partial = ctx.Err() != nil && report.Count(StatusIncomplete) > 0
	report.Elapsed = time.Since(report.Started)

	if report.Partial {
		logger.Warn("build stopped early", logfields.Count(report.Count(StatusIncomplete)), logfields.Error(ctx.Err()))
	}
	return report, nil
}

func entityStatus(s Status) metrics.EntityStatus {
	switch s {
	case StatusFailed:
		return metrics.EntityFailed
	case StatusIncomplete:
		return metrics.EntityIncomplete
	case StatusSkipped:
		return metrics.EntitySkipped
	default:
		return metrics.EntitySucceeded
	}
}
