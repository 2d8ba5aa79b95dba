package stattic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alnah/go-stattic/internal/assets"
	"github.com/alnah/go-stattic/internal/config"
	"github.com/alnah/go-stattic/internal/content"
	"github.com/alnah/go-stattic/internal/dateutil"
	"github.com/alnah/go-stattic/internal/fetch"
	"github.com/alnah/go-stattic/internal/fileutil"
	"github.com/alnah/go-stattic/internal/fonts"
	"github.com/alnah/go-stattic/internal/hints"
	"github.com/alnah/go-stattic/internal/imageconv"
	"github.com/alnah/go-stattic/internal/logfields"
	"github.com/alnah/go-stattic/internal/process"
	"github.com/alnah/go-stattic/internal/render"
	"github.com/alnah/go-stattic/internal/site"
)

// ImagePolicy returns the remote image policy described by cfg.
func ImagePolicy(cfg *config.Config) fetch.Policy {
	p := fetch.DefaultPolicy()
	p.MaxBytes = cfg.Security.MaxDownloadBytes
	p.Timeout = cfg.Security.RequestTimeout
	p.MaxRedirects = cfg.Security.MaxRedirects
	if len(cfg.Security.AllowedMIMETypes) > 0 {
		p.AllowedMIMETypes = cfg.Security.AllowedMIMETypes
	}
	return p
}

// ImagePipeline returns the conversion pipeline described by cfg: the
// allow-listed external tools first, then the in-process converter.
func ImagePipeline(cfg *config.Config, runner *process.Runner) *imageconv.Pipeline {
	if runner == nil || !runner.Allowed(imageconv.Gif2WebPBinary) {
		return imageconv.Default(nil)
	}
	return imageconv.New(
		&imageconv.Gif2WebP{Runner: runner, Timeout: cfg.Security.ConverterTimeout},
		&imageconv.Native{},
	)
}

// Generate builds the whole site described by cfg, relative to the
// working directory: assets, fonts, every entity, then the site-wide
// pages. The report is returned whenever the entity build ran, even when
// site assembly failed.
func Generate(ctx context.Context, cfg *config.Config, opts ...Option) (*Report, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers == 0 {
		o.workers = cfg.Workers
	}
	if o.timeout == 0 {
		o.timeout = cfg.BuildTimeout
	}
	if o.now.IsZero() {
		o.now = time.Now()
	}
	logger := o.logger

	if _, err := dateutil.Layout(cfg.DateFormat); err != nil {
		return nil, fmt.Errorf("date_format: %w", err)
	}
	format, err := imageconv.ParseFormat(cfg.Images.Format)
	if err != nil {
		return nil, fmt.Errorf("images.format: %w", err)
	}
	if !fileutil.DirExists(cfg.Content) {
		return nil, fmt.Errorf("%w: %s", ErrContentDirNotFound, cfg.Content)
	}
	if err := os.MkdirAll(cfg.Output, fileutil.DirPermissions); err != nil {
		return nil, fmt.Errorf("%w: creating output directory: %v%s", ErrFilesystemFailure, err, hints.ForOutputDirectory())
	}

	shared, err := content.LoadShared(cfg.Content)
	if err != nil {
		logger.Warn("shared data partly unreadable", logfields.Error(err))
	}
	sources, err := content.Discover(cfg.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: discovering content: %v", ErrFilesystemFailure, err)
	}
	nav := content.ScanPages(sources, cfg.Drafts)
	shared.Pages = nav

	if err := site.CopyAssets(assetsDir(cfg), cfg.Output); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFilesystemFailure, err)
	}

	hasFonts := false
	if len(cfg.Fonts) > 0 {
		getter := o.fontGetter
		if getter == nil {
			fp := fetch.FontPolicy()
			fp.Timeout = cfg.Security.RequestTimeout
			f := fetch.New(fp)
			defer f.Close()
			getter = f
		}
		faces, err := fonts.New(getter, logger).Download(ctx, cfg.Output, cfg.Fonts)
		if err != nil {
			logger.Warn("fonts not localized", logfields.Error(err))
		}
		hasFonts = len(faces) > 0
	}

	if cfg.Minify {
		n, err := site.MinifyAssets(cfg.Output)
		if err != nil {
			logger.Warn("assets partly minified", logfields.Error(err))
		}
		logger.Debug("minified assets", logfields.Count(n))
	}

	templatesDir := ""
	if fileutil.DirExists(cfg.Templates) {
		templatesDir = cfg.Templates
	}
	resolver, err := assets.NewAssetResolver(templatesDir)
	if err != nil {
		return nil, err
	}
	renderer := render.New(resolver)
	if o.renderer == nil {
		o.renderer = renderer
	}

	siteCfg := site.Config{
		OutputDir:    cfg.Output,
		Title:        cfg.SiteTitle,
		Tagline:      cfg.SiteTagline,
		URL:          cfg.SiteURL,
		Lang:         cfg.Lang,
		BlogSlug:     cfg.BlogSlug,
		PostsPerPage: cfg.PostsPerPage,
		SortBy:       cfg.SortBy,
		Robots:       cfg.Robots,
		LLMs:         cfg.LLMs,
		HasFonts:     hasFonts,
		Now:          o.now,
	}

	if o.newFetcher == nil {
		policy := ImagePolicy(cfg)
		o.newFetcher = func() Fetcher { return fetch.New(policy) }
	}
	if o.converter == nil {
		runner := process.NewRunner(cfg.Security.AllowedBinaries)
		if runner.Allowed(imageconv.Gif2WebPBinary) && !runner.Available(imageconv.Gif2WebPBinary) {
			logger.Warn("gif2webp not found, animated GIFs will be converted to still images" +
				hints.ForConverterMissing(imageconv.Gif2WebPBinary))
		}
		o.converter = ImagePipeline(cfg, runner)
	}

	builder, err := NewBuilder(Settings{
		ContentDir:  cfg.Content,
		OutputDir:   cfg.Output,
		BlogSlug:    cfg.BlogSlug,
		DateFormat:  cfg.DateFormat,
		Drafts:      cfg.Drafts,
		ImageFormat: format,
		MaxWidth:    cfg.Images.MaxWidth,
		MaxBytes:    cfg.Security.MaxDownloadBytes,
		Site:        site.SiteData(siteCfg, nav),
	}, optionsOf(o)...)
	if err != nil {
		return nil, err
	}

	report, err := builder.Build(ctx, sources, shared)
	if err != nil {
		return nil, err
	}

	// The global timeout bounds entities only; a partial build still gets
	// its listings so the site stays navigable.
	assembleCtx := ctx
	if report.Partial && ctx.Err() == nil {
		assembleCtx = context.WithoutCancel(ctx)
	}
	assembler := site.NewAssembler(siteCfg, renderer, resolver, logger)
	if err := assembler.Assemble(assembleCtx, report.Posts(content.KindPost), report.Posts(content.KindPage), nav); err != nil {
		report.SiteErr = fmt.Errorf("assembling site: %w", err)
	}

	report.Elapsed = time.Since(report.Started)
	o.metrics.ObserveBuildDuration(report.Elapsed)
	o.metrics.IncBuildOutcome(report.Outcome(ThresholdOf(cfg)))

	logger.Info("build finished", logfields.BuildID(report.BuildID), logfields.Status(report.Summary()),
		logfields.Duration(report.Elapsed))
	return report, report.SiteErr
}

func assetsDir(cfg *config.Config) string {
	if cfg.Assets == "" {
		return ""
	}
	return filepath.Clean(cfg.Assets)
}

// optionsOf turns resolved options back into Options for NewBuilder.
func optionsOf(o options) []Option {
	return []Option{
		WithLogger(o.logger),
		WithMetrics(o.metrics),
		WithWorkers(o.workers),
		WithTimeout(o.timeout),
		WithFetcherFactory(o.newFetcher),
		WithConverter(o.converter),
		WithRenderer(o.renderer),
	}
}

// ThresholdOf returns the failure threshold configured in cfg.
func ThresholdOf(cfg *config.Config) Threshold {
	return Threshold{MaxFailures: cfg.FailureThreshold.MaxFailures, MaxRatio: cfg.FailureThreshold.MaxRatio}
}
