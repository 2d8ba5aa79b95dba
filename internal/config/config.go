// Package config loads stattic.yml / stattic.yaml / stattic.json.
//
// Every key is optional. Loading decodes on top of DefaultConfig, so
// unset keys, including every security policy limit, keep safe defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-stattic/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrFieldTooLong   = errors.New("field exceeds maximum length")
	ErrInvalidValue   = errors.New("invalid config value")
)

// FileNames are the config files searched, in order.
var FileNames = []string{"stattic.yml", "stattic.yaml", "stattic.json"}

// Field length limits.
const (
	MaxTitleLength      = 200
	MaxTaglineLength    = 500
	MaxURLLength        = 2048
	MaxPathLength       = 4096
	MaxDateFormatLength = 50
	MaxFontNameLength   = 64
	MaxFonts            = 10
	MaxSlugLength       = 100
)

// Range limits.
const (
	MaxPostsPerPage     = 1000
	MaxWorkers          = 32
	MaxImageWidth       = 20000
	MaxDownloadBytes    = 100 << 20
	MaxRequestTimeout   = 5 * time.Minute
	MaxConverterTimeout = 10 * time.Minute
	MaxRedirects        = 20
)

// Defaults.
const (
	DefaultOutput           = "output"
	DefaultContent          = "content"
	DefaultTemplates        = "templates"
	DefaultPostsPerPage     = 5
	DefaultSortBy           = "date"
	DefaultBlogSlug         = "blog"
	DefaultDateFormat       = "MMMM DD, YYYY"
	DefaultImageFormat      = "webp"
	DefaultMaxDownloadBytes = 10 << 20
	DefaultRequestTimeout   = 30 * time.Second
	DefaultConverterTimeout = 60 * time.Second
	DefaultMaxRedirects     = 5
)

// KnownBinaries are the external tools the build may ever run. The
// security.allowed_binaries setting can only narrow this list.
var KnownBinaries = []string{"gif2webp"}

// Config holds all build settings.
type Config struct {
	Output           string          `yaml:"output"`
	Content          string          `yaml:"content"`
	Templates        string          `yaml:"templates"`
	Assets           string          `yaml:"assets"`
	PostsPerPage     int             `yaml:"posts_per_page"`
	SortBy           string          `yaml:"sort_by"`
	Fonts            []string        `yaml:"fonts"`
	SiteTitle        string          `yaml:"site_title"`
	SiteTagline      string          `yaml:"site_tagline"`
	SiteURL          string          `yaml:"site_url"`
	Lang             string          `yaml:"lang"`
	Robots           string          `yaml:"robots"`
	LLMs             string          `yaml:"llms"`
	BlogSlug         string          `yaml:"blog_slug"`
	DateFormat       string          `yaml:"date_format"`
	Drafts           bool            `yaml:"drafts"`
	Minify           bool            `yaml:"minify"`        // write .min.css / .min.js siblings
	Workers          int             `yaml:"workers"`       // 0 = auto
	BuildTimeout     time.Duration   `yaml:"build_timeout"` // 0 = none
	FailureThreshold ThresholdConfig `yaml:"failure_threshold"`
	Images           ImagesConfig    `yaml:"images"`
	Security         SecurityConfig  `yaml:"security"`
}

// ThresholdConfig decides when failed entities fail the build.
type ThresholdConfig struct {
	MaxFailures int     `yaml:"max_failures"` // -1 = any failure fails the build
	MaxRatio    float64 `yaml:"max_ratio"`    // 0 = unset
}

// ImagesConfig controls image localization.
type ImagesConfig struct {
	Format   string `yaml:"format"`    // webp, png or jpeg
	MaxWidth int    `yaml:"max_width"` // 0 = keep
}

// SecurityConfig holds the resource acquisition policy.
type SecurityConfig struct {
	MaxDownloadBytes int64         `yaml:"max_download_bytes"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	AllowedMIMETypes []string      `yaml:"allowed_mime_types"`
	AllowedBinaries  []string      `yaml:"allowed_binaries"`
	ConverterTimeout time.Duration `yaml:"converter_timeout"`
	MaxRedirects     int           `yaml:"max_redirects"`
}

// DefaultMIMETypes are the image types accepted from remote servers.
func DefaultMIMETypes() []string {
	return []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp", "image/tiff"}
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Output:       DefaultOutput,
		Content:      DefaultContent,
		Templates:    DefaultTemplates,
		PostsPerPage: DefaultPostsPerPage,
		SortBy:       DefaultSortBy,
		Fonts:        []string{},
		Robots:       "public",
		LLMs:         "private",
		BlogSlug:     DefaultBlogSlug,
		DateFormat:   DefaultDateFormat,
		FailureThreshold: ThresholdConfig{
			MaxFailures: -1,
		},
		Images: ImagesConfig{Format: DefaultImageFormat},
		Security: SecurityConfig{
			MaxDownloadBytes: DefaultMaxDownloadBytes,
			RequestTimeout:   DefaultRequestTimeout,
			AllowedMIMETypes: DefaultMIMETypes(),
			AllowedBinaries:  slices.Clone(KnownBinaries),
			ConverterTimeout: DefaultConverterTimeout,
			MaxRedirects:     DefaultMaxRedirects,
		},
	}
}

// ApplyDefaults fills zero values that have no meaning of their own.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Output == "" {
		c.Output = d.Output
	}
	if c.Content == "" {
		c.Content = d.Content
	}
	if c.Templates == "" {
		c.Templates = d.Templates
	}
	if c.PostsPerPage == 0 {
		c.PostsPerPage = d.PostsPerPage
	}
	if c.SortBy == "" {
		c.SortBy = d.SortBy
	}
	if c.Robots == "" {
		c.Robots = d.Robots
	}
	if c.LLMs == "" {
		c.LLMs = d.LLMs
	}
	if c.BlogSlug == "" {
		c.BlogSlug = d.BlogSlug
	}
	if c.DateFormat == "" {
		c.DateFormat = d.DateFormat
	}
	if c.Images.Format == "" {
		c.Images.Format = d.Images.Format
	}
	s := &c.Security
	if s.MaxDownloadBytes == 0 {
		s.MaxDownloadBytes = d.Security.MaxDownloadBytes
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = d.Security.RequestTimeout
	}
	if len(s.AllowedMIMETypes) == 0 {
		s.AllowedMIMETypes = d.Security.AllowedMIMETypes
	}
	if s.AllowedBinaries == nil {
		s.AllowedBinaries = d.Security.AllowedBinaries
	}
	if s.ConverterTimeout == 0 {
		s.ConverterTimeout = d.Security.ConverterTimeout
	}
	c.SiteURL = strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
	c.Images.Format = strings.ToLower(c.Images.Format)
	c.SortBy = strings.ToLower(c.SortBy)
}

// Validate checks ranges, enumerations and field lengths. Called by Load,
// and by the CLI after flags are applied.
func (c *Config) Validate() error {
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"output", c.Output, MaxPathLength},
		{"content", c.Content, MaxPathLength},
		{"templates", c.Templates, MaxPathLength},
		{"assets", c.Assets, MaxPathLength},
		{"site_title", c.SiteTitle, MaxTitleLength},
		{"site_tagline", c.SiteTagline, MaxTaglineLength},
		{"site_url", c.SiteURL, MaxURLLength},
		{"date_format", c.DateFormat, MaxDateFormatLength},
		{"blog_slug", c.BlogSlug, MaxSlugLength},
		{"lang", c.Lang, 35},
	} {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if c.PostsPerPage < 1 || c.PostsPerPage > MaxPostsPerPage {
		return invalid("posts_per_page", c.PostsPerPage, fmt.Sprintf("must be 1-%d", MaxPostsPerPage))
	}
	if err := oneOf("sort_by", c.SortBy, "date", "title", "author", "order"); err != nil {
		return err
	}
	if err := oneOf("robots", c.Robots, "public", "private"); err != nil {
		return err
	}
	if err := oneOf("llms", c.LLMs, "public", "private"); err != nil {
		return err
	}
	if err := validateSlug(c.BlogSlug); err != nil {
		return err
	}
	if c.SiteURL != "" {
		u, err := url.Parse(c.SiteURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("site_url", c.SiteURL, "must be an absolute http(s) URL")
		}
	}

	if len(c.Fonts) > MaxFonts {
		return invalid("fonts", len(c.Fonts), fmt.Sprintf("at most %d families", MaxFonts))
	}
	for i, f := range c.Fonts {
		if err := validateFieldLength(fmt.Sprintf("fonts[%d]", i), f, MaxFontNameLength); err != nil {
			return err
		}
	}

	if c.Workers < 0 || c.Workers > MaxWorkers {
		return invalid("workers", c.Workers, fmt.Sprintf("must be 0-%d", MaxWorkers))
	}
	if c.BuildTimeout < 0 {
		return invalid("build_timeout", c.BuildTimeout, "must not be negative")
	}
	if c.FailureThreshold.MaxFailures < -1 {
		return invalid("failure_threshold.max_failures", c.FailureThreshold.MaxFailures, "must be -1 or more")
	}
	if c.FailureThreshold.MaxRatio < 0 || c.FailureThreshold.MaxRatio > 1 {
		return invalid("failure_threshold.max_ratio", c.FailureThreshold.MaxRatio, "must be 0-1")
	}

	if err := oneOf("images.format", c.Images.Format, "webp", "png", "jpeg", "jpg"); err != nil {
		return err
	}
	if c.Images.MaxWidth < 0 || c.Images.MaxWidth > MaxImageWidth {
		return invalid("images.max_width", c.Images.MaxWidth, fmt.Sprintf("must be 0-%d", MaxImageWidth))
	}

	return c.Security.validate()
}

func (s *SecurityConfig) validate() error {
	if s.MaxDownloadBytes < 1 || s.MaxDownloadBytes > MaxDownloadBytes {
		return invalid("security.max_download_bytes", s.MaxDownloadBytes, fmt.Sprintf("must be 1-%d", MaxDownloadBytes))
	}
	if s.RequestTimeout < time.Second || s.RequestTimeout > MaxRequestTimeout {
		return invalid("security.request_timeout", s.RequestTimeout, "must be 1s-5m")
	}
	if s.ConverterTimeout < time.Second || s.ConverterTimeout > MaxConverterTimeout {
		return invalid("security.converter_timeout", s.ConverterTimeout, "must be 1s-10m")
	}
	if s.MaxRedirects < -1 || s.MaxRedirects > MaxRedirects {
		return invalid("security.max_redirects", s.MaxRedirects, fmt.Sprintf("must be -1-%d", MaxRedirects))
	}
	for _, mt := range s.AllowedMIMETypes {
		if !strings.HasPrefix(strings.ToLower(mt), "image/") {
			return invalid("security.allowed_mime_types", mt, "must be image types")
		}
	}
	for _, b := range s.AllowedBinaries {
		if !slices.Contains(KnownBinaries, b) {
			return invalid("security.allowed_binaries", b, "unknown tool, known: "+strings.Join(KnownBinaries, ", "))
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validateSlug(slug string) error {
	for _, r := range slug {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return invalid("blog_slug", slug, "use lowercase letters, digits, '-' and '_'")
		}
	}
	if slug == "" || slug == "page" || slug == "feed" || slug == "images" || slug == "assets" {
		return invalid("blog_slug", slug, "reserved or empty")
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return invalid(field, value, "must be one of "+strings.Join(allowed, ", "))
}

func invalid(field string, value any, why string) error {
	return fmt.Errorf("%w: %s = %v (%s)", ErrInvalidValue, field, value, why)
}

// Load reads path, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, filepath.Base(path), err)
		}
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find returns the first config file from FileNames present in dir.
func Find(dir string) (string, error) {
	tried := make([]string, 0, len(FileNames))
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p, nil
		}
		tried = append(tried, p)
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

// Resolve loads explicit when set (it must exist), otherwise the first
// config file found in dir, otherwise the defaults. It returns the path
// that was loaded, empty for defaults.
func Resolve(explicit, dir string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}
	path, err := Find(dir)
	if errors.Is(err, ErrConfigNotFound) {
		cfg := DefaultConfig()
		return cfg, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
