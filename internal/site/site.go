// Package site assembles the site-wide outputs once every entity has been
// built: paginated index, blog page, RSS feed, sitemap, robots.txt,
// llms.txt, 404 page and the static assets tree.
//
// Assembly runs on the orchestrator goroutine after all worker results are
// merged, so nothing here is concurrent.
package site

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/alnah/go-stattic/internal/assets"
	"github.com/alnah/go-stattic/internal/content"
	"github.com/alnah/go-stattic/internal/fileutil"
	"github.com/alnah/go-stattic/internal/logfields"
	"github.com/alnah/go-stattic/internal/pathsafe"
	"github.com/alnah/go-stattic/internal/render"
)

// Robots and llms.txt visibility modes.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// FeedItems is the number of posts in the RSS feed.
const FeedItems = 20

// Config controls site assembly.
type Config struct {
	OutputDir    string
	Title        string
	Tagline      string
	URL          string // absolute site URL; feed and sitemap are skipped when empty
	Lang         string
	BlogSlug     string
	PostsPerPage int
	SortBy       string
	Robots       string
	LLMs         string
	HasFonts     bool
	Now          time.Time
}

// TemplateSet is what the assembler needs from the template resolver.
type TemplateSet interface {
	HasCustom(name string) bool
}

// Post is the merged result of one built entity, as used by listings.
type Post struct {
	ID          string
	Kind        content.Kind
	Title       string
	Slug        string
	Permalink   string
	Date        time.Time
	DateText    string
	Author      string
	Categories  []string
	Tags        []string
	Excerpt     string
	Description string
	Order       int
	Meta        map[string]any

	// FeaturedImage is root-relative when FeaturedLocal is set, otherwise
	// the original reference.
	FeaturedImage string
	FeaturedLocal bool
}

// Path returns the permalink relative to the site root.
func (p *Post) Path() string { return strings.TrimPrefix(p.Permalink, "/") }

// Entry converts p for a page whose relative root is root.
func (p *Post) Entry(root string, body template.HTML) render.Entry {
	featured := p.FeaturedImage
	if p.FeaturedLocal && featured != "" {
		featured = root + featured
	}
	return render.Entry{
		Kind:          string(p.Kind),
		Title:         p.Title,
		Path:          p.Path(),
		Permalink:     p.Permalink,
		Date:          p.DateText,
		Author:        p.Author,
		Categories:    p.Categories,
		Tags:          p.Tags,
		Excerpt:       p.Excerpt,
		FeaturedImage: featured,
		Content:       body,
		Meta:          p.Meta,
	}
}

// Assembler writes the site-wide pages.
type Assembler struct {
	cfg       Config
	renderer  *render.Renderer
	templates TemplateSet
	logger    *slog.Logger
}

// NewAssembler creates an Assembler. A nil logger discards output.
func NewAssembler(cfg Config, renderer *render.Renderer, templates TemplateSet, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.PostsPerPage < 1 {
		cfg.PostsPerPage = 1
	}
	if cfg.BlogSlug == "" {
		cfg.BlogSlug = "blog"
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Assembler{cfg: cfg, renderer: renderer, templates: templates, logger: logger}
}

// SiteData returns the values shared by every rendered page.
func (a *Assembler) SiteData(nav []content.PageLink) render.Site {
	return SiteData(a.cfg, nav)
}

// SiteData builds render.Site from cfg and the page navigation.
func SiteData(cfg Config, nav []content.PageLink) render.Site {
	links := make([]render.Link, 0, len(nav))
	for _, p := range nav {
		links = append(links, render.Link{Title: p.Title, Path: strings.TrimPrefix(p.Permalink, "/")})
	}
	lang := cfg.Lang
	if lang == "" {
		lang = "en"
	}
	year := cfg.Now.Year()
	if cfg.Now.IsZero() {
		year = time.Now().Year()
	}
	return render.Site{
		Title:    cfg.Title,
		Tagline:  cfg.Tagline,
		URL:      strings.TrimRight(cfg.URL, "/"),
		Lang:     lang,
		BlogSlug: cfg.BlogSlug,
		Pages:    links,
		HasFonts: cfg.HasFonts,
		Year:     year,
	}
}

// Assemble writes every site-wide output. Each step runs even when an
// earlier one fails; the first error of each failing step is joined.
func (a *Assembler) Assemble(ctx context.Context, posts, pages []Post, nav []content.PageLink) error {
	sorted := append([]Post(nil), posts...)
	SortPosts(sorted, a.cfg.SortBy)
	site := a.SiteData(nav)

	steps := []struct {
		name string
		run  func() error
	}{
		{"index", func() error { return a.buildIndex(sorted, site) }},
		{"blog", func() error { return a.buildBlog(sorted, site) }},
		{"404", func() error { return a.build404(site) }},
		{"feed", func() error { return a.buildFeed(posts) }},
		{"sitemap", func() error { return a.buildSitemap(posts, pages) }},
		{"robots", func() error { return a.buildRobots() }},
		{"llms", func() error { return a.buildLLMs(posts, pages) }},
	}

	var errs []error
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := step.run(); err != nil {
			a.logger.Error("site step failed", logfields.Kind(step.name), logfields.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}

// write stores data at rel under the output root.
func (a *Assembler) write(rel string, data []byte) error {
	target, err := pathsafe.Resolve(a.cfg.OutputDir, rel)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(target, data); err != nil {
		return err
	}
	a.logger.Debug("wrote site file", logfields.Path(rel))
	return nil
}

func (a *Assembler) renderTo(rel, tmpl string, data *render.Data) error {
	html, err := a.renderer.Render(tmpl, data)
	if err != nil {
		return err
	}
	return a.write(rel, []byte(html))
}

// Root returns the relative path from the directory of rel back to the
// output root, "./" for files at the root.
func Root(rel string) string {
	if r := pathsafe.RelativeRoot(path.Dir(rel)); r != "" {
		return r
	}
	return "./"
}

func (a *Assembler) build404(site render.Site) error {
	// 404 is served for arbitrary paths, so links must be absolute.
	return a.renderTo("404.html", assets.TemplateNotFound, &render.Data{
		Site:  site,
		Root:  "/",
		Title: "Page not found",
	})
}
