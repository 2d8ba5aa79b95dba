package site

import (
	"encoding/xml"
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *Assembler) buildSitemap(posts, pages []Post) error {
	if a.cfg.URL == "" {
		return nil
	}
	data, err := Sitemap(a.cfg, posts, pages)
	if err != nil {
		return err
	}
	return a.write("sitemap.xml", data)
}

// Sitemap lists the home page, the blog page, every post and every page.
func Sitemap(cfg Config, posts, pages []Post) ([]byte, error) {
	base := strings.TrimRight(cfg.URL, "/")
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := now.Format("2006-01-02")

	set := urlSet{XMLNS: sitemapNS}
	set.URLs = append(set.URLs,
		sitemapURL{Loc: base + "/", LastMod: today},
		sitemapURL{Loc: base + "/" + cfg.BlogSlug + "/", LastMod: today},
	)
	for _, group := range [][]Post{posts, pages} {
		for i := range group {
			entry := sitemapURL{Loc: base + "/" + group[i].Path()}
			if !group[i].Date.IsZero() {
				entry.LastMod = group[i].Date.Format("2006-01-02")
			}
			set.URLs = append(set.URLs, entry)
		}
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func (a *Assembler) buildRobots() error {
	return a.write("robots.txt", []byte(Robots(a.cfg)))
}

// Robots returns robots.txt for the configured visibility. A public site
// with a URL also advertises its sitemap.
func Robots(cfg Config) string {
	if cfg.Robots == VisibilityPrivate {
		return "User-agent: *\nDisallow: /\n"
	}
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\n")
	if base := strings.TrimRight(cfg.URL, "/"); base != "" {
		fmt.Fprintf(&b, "\nSitemap: %s/sitemap.xml\n", base)
	}
	return b.String()
}

func (a *Assembler) buildLLMs(posts, pages []Post) error {
	if a.cfg.LLMs != VisibilityPublic {
		return nil
	}
	return a.write("llms.txt", []byte(LLMs(a.cfg, posts, pages)))
}

// LLMs renders llms.txt: a title, the posts newest first, the pages, and
// the sitemap location. Each entry carries an ID derived from its title and
// permalink, stable across builds.
func LLMs(cfg Config, posts, pages []Post) string {
	base := strings.TrimRight(cfg.URL, "/")

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", siteName(cfg))
	if cfg.Tagline != "" {
		fmt.Fprintf(&b, "> %s\n\n", cfg.Tagline)
	}
	b.WriteString("This site contains structured content formatted for LLM-friendly consumption.\n\n")

	sorted := append([]Post(nil), posts...)
	SortPosts(sorted, SortByDate)

	for _, section := range []struct {
		title string
		items []Post
	}{{"Posts", sorted}, {"Pages", pages}} {
		if len(section.items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n", section.title)
		for i := range section.items {
			p := &section.items[i]
			fmt.Fprintf(&b, "- [%s](%s/%s): ID %d\n", p.Title, base, p.Path(), entryID(p.Title+p.Permalink))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Sitemap\n%s/sitemap.xml\n", base)
	return b.String()
}

// entryID is a ten-digit FNV-1a digest of s.
func entryID(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64() % 10_000_000_000
}
