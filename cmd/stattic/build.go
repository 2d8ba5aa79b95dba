package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	flag "github.com/spf13/pflag"

	stattic "github.com/alnah/go-stattic"
	"github.com/alnah/go-stattic/internal/config"
	"github.com/alnah/go-stattic/internal/hints"
	"github.com/alnah/go-stattic/internal/logfields"
	"github.com/alnah/go-stattic/internal/metrics"
)

// ErrInvalidFlag wraps flag parsing errors so they map to a usage exit code.
var ErrInvalidFlag = errors.New("invalid flag")

// buildSession holds a resolved configuration ready to build, shared by
// the build and watch commands.
type buildSession struct {
	env        *Environment
	flags      *buildFlags
	cfg        *config.Config
	configPath string // empty when running on defaults
	logger     *slog.Logger
}

// runBuildCmd executes the build command and returns an exit code.
func runBuildCmd(ctx context.Context, args []string, env *Environment) int {
	s, err := prepareBuild("build", args, env)
	if err != nil {
		return reportSetupError(env, err)
	}
	return s.build(ctx)
}

// prepareBuild parses flags, loads the config and applies the flags on top.
func prepareBuild(name string, args []string, env *Environment) (*buildSession, error) {
	f, positional, err := parseBuildFlags(name, args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, ErrConflictingFlags) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}
	if len(positional) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedArgs, positional)
	}

	logger, err := newLogger(env.Stderr, f.common.logFormat, f.common.verbose, f.common.quiet)
	if err != nil {
		return nil, err
	}

	cfg, path, err := loadConfig(f, env)
	if err != nil {
		return nil, err
	}

	return &buildSession{env: env, flags: f, cfg: cfg, configPath: path, logger: logger}, nil
}

// loadConfig resolves the config file, merges flags and validates the
// result. Relative paths are anchored to env.Dir.
func loadConfig(f *buildFlags, env *Environment) (*config.Config, string, error) {
	explicit := f.common.config
	if explicit != "" {
		explicit = inDir(env.Dir, explicit)
	}

	cfg, path, err := config.Resolve(explicit, env.Dir)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, "", fmt.Errorf("%w%s", err, hints.ForConfigNotFound(nil))
		}
		return nil, "", err
	}

	mergeFlags(f, cfg)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	resolvePaths(cfg, env.Dir)
	return cfg, path, nil
}

// resolvePaths anchors the configured directories to dir.
func resolvePaths(cfg *config.Config, dir string) {
	for _, p := range []*string{&cfg.Output, &cfg.Content, &cfg.Templates, &cfg.Assets} {
		if *p != "" {
			*p = inDir(dir, *p)
		}
	}
}

func inDir(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" || dir == "." {
		return p
	}
	return filepath.Join(dir, p)
}

// build runs one full site build, prints the report and returns an exit code.
func (s *buildSession) build(ctx context.Context) int {
	if s.configPath != "" {
		s.logger.Debug("config loaded", logfields.Path(s.configPath))
	} else {
		s.logger.Debug("no config file, using defaults")
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if s.flags.run.metricsFile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		rec = prom
	}

	report, err := stattic.Generate(ctx, s.cfg,
		stattic.WithLogger(s.logger),
		stattic.WithMetrics(rec),
		stattic.WithNow(s.env.Now()),
	)

	if prom != nil {
		path := inDir(s.env.Dir, s.flags.run.metricsFile)
		if werr := prom.WriteTextfile(path); werr != nil {
			s.logger.Warn("metrics not written", logfields.Path(path), logfields.Error(werr))
		}
	}

	if report == nil {
		fmt.Fprintf(s.env.Stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}

	threshold := stattic.ThresholdOf(s.cfg)
	printReport(s.env, report, threshold, s.flags.common.quiet, s.flags.common.verbose)

	if report.Partial {
		fmt.Fprintf(s.env.Stderr, "Build incomplete: %d of %d entities unfinished%s\n",
			report.Count(stattic.StatusIncomplete), len(report.Entities), hints.ForTimeout())
		return ExitPartial
	}
	if err := report.Err(threshold); err != nil {
		fmt.Fprintf(s.env.Stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// reportSetupError prints a setup error and maps it to an exit code.
// Help requests are not errors.
func reportSetupError(env *Environment, err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	fmt.Fprintf(env.Stderr, "Error: %v\n", err)
	return exitCodeFor(err)
}
