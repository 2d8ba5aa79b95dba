package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-stattic/internal/config"
)

// Sentinel errors for flag handling.
var (
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrConflictingFlags = errors.New("conflicting flags")
	ErrUnexpectedArgs   = errors.New("unexpected arguments")
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	logFormat string
	quiet     bool
	verbose   bool
}

// pathFlags holds input and output locations.
type pathFlags struct {
	output    string
	content   string
	templates string
	assets    string
}

// siteFlags holds site identity and listing flags.
type siteFlags struct {
	title        string
	tagline      string
	url          string
	robots       string
	llms         string
	blogSlug     string
	postsPerPage int
	sortBy       string
	fonts        []string
	drafts       bool
	minify       bool
}

// runFlags holds execution flags.
type runFlags struct {
	workers     int
	timeout     time.Duration
	maxFailures int
	imageFormat string
	metricsFile string
}

// buildFlags holds all flags for the build and watch commands.
type buildFlags struct {
	common commonFlags
	paths  pathFlags
	site   siteFlags
	run    runFlags

	// set holds the names of flags given on the command line. Only those
	// override the config file.
	set map[string]bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file path (default: stattic.yml, .yaml or .json)")
	fs.StringVar(&f.logFormat, "log-format", "text", "log format: text, json")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show per-entity details and debug logs")
}

// addPathFlags adds location flags to a FlagSet.
func addPathFlags(fs *flag.FlagSet, f *pathFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.StringVar(&f.content, "content", "", "content directory")
	fs.StringVar(&f.templates, "templates", "", "templates directory")
	fs.StringVar(&f.assets, "assets", "", "assets directory copied to output/assets")
}

// addSiteFlags adds site flags to a FlagSet.
func addSiteFlags(fs *flag.FlagSet, f *siteFlags) {
	fs.StringVar(&f.title, "site-title", "", "site title")
	fs.StringVar(&f.tagline, "site-tagline", "", "site tagline")
	fs.StringVar(&f.url, "site-url", "", "absolute site URL (enables feed and sitemap)")
	fs.StringVar(&f.robots, "robots", "", "robots.txt policy: public, private")
	fs.StringVar(&f.llms, "llms", "", "llms.txt policy: public, private")
	fs.StringVar(&f.blogSlug, "blog-slug", "", "blog path segment")
	fs.IntVar(&f.postsPerPage, "posts-per-page", 0, "posts per index page")
	fs.StringVar(&f.sortBy, "sort-by", "", "post order: date, title, author, order")
	fs.StringSliceVar(&f.fonts, "fonts", nil, "Google Fonts families to localize (comma-separated)")
	fs.BoolVar(&f.drafts, "drafts", false, "include draft entities")
	fs.BoolVar(&f.minify, "minify", false, "write minified .min.css and .min.js copies of assets")
}

// addRunFlags adds execution flags to a FlagSet.
func addRunFlags(fs *flag.FlagSet, f *runFlags) {
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "global build timeout (e.g. 30s, 2m; 0 = none)")
	fs.IntVar(&f.maxFailures, "max-failures", 0, "failed entities tolerated (-1 = none)")
	fs.StringVar(&f.imageFormat, "image-format", "", "localized image format: webp, png, jpeg")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
}

// parseBuildFlags parses build or watch flags and returns positional args.
func parseBuildFlags(name string, args []string, stderr io.Writer) (*buildFlags, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &buildFlags{set: make(map[string]bool)}

	addCommonFlags(fs, &f.common)
	addPathFlags(fs, &f.paths)
	addSiteFlags(fs, &f.site)
	addRunFlags(fs, &f.run)

	fs.Usage = func() { printBuildUsage(stderr, name) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	if f.common.quiet && f.common.verbose {
		return nil, nil, fmt.Errorf("%w: --quiet and --verbose", ErrConflictingFlags)
	}
	return f, fs.Args(), nil
}

// mergeFlags merges CLI flags into config. Flags given on the command
// line override config values.
func mergeFlags(f *buildFlags, cfg *config.Config) {
	if f.set["output"] {
		cfg.Output = f.paths.output
	}
	if f.set["content"] {
		cfg.Content = f.paths.content
	}
	if f.set["templates"] {
		cfg.Templates = f.paths.templates
	}
	if f.set["assets"] {
		cfg.Assets = f.paths.assets
	}

	if f.set["site-title"] {
		cfg.SiteTitle = f.site.title
	}
	if f.set["site-tagline"] {
		cfg.SiteTagline = f.site.tagline
	}
	if f.set["site-url"] {
		cfg.SiteURL = f.site.url
	}
	if f.set["robots"] {
		cfg.Robots = f.site.robots
	}
	if f.set["llms"] {
		cfg.LLMs = f.site.llms
	}
	if f.set["blog-slug"] {
		cfg.BlogSlug = f.site.blogSlug
	}
	if f.set["posts-per-page"] {
		cfg.PostsPerPage = f.site.postsPerPage
	}
	if f.set["sort-by"] {
		cfg.SortBy = f.site.sortBy
	}
	if f.set["fonts"] {
		cfg.Fonts = f.site.fonts
	}
	if f.set["drafts"] {
		cfg.Drafts = f.site.drafts
	}
	if f.set["minify"] {
		cfg.Minify = f.site.minify
	}

	if f.set["workers"] {
		cfg.Workers = f.run.workers
	}
	if f.set["timeout"] {
		cfg.BuildTimeout = f.run.timeout
	}
	if f.set["max-failures"] {
		cfg.FailureThreshold.MaxFailures = f.run.maxFailures
	}
	if f.set["image-format"] {
		cfg.Images.Format = f.run.imageFormat
	}
}

// newLogger builds the CLI log handler: text or JSON on w, Debug when
// verbose, Warn when quiet.
func newLogger(w io.Writer, format string, verbose, quiet bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: %q (use text or json)", ErrInvalidLogFormat, format)
	}
}
