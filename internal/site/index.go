package site

import (
	"fmt"

	"github.com/alnah/go-stattic/internal/assets"
	"github.com/alnah/go-stattic/internal/logfields"
	"github.com/alnah/go-stattic/internal/render"
)

// buildIndex writes index.html and page/<n>/index.html. An empty blog
// still gets a home page.
func (a *Assembler) buildIndex(sorted []Post, site render.Site) error {
	per := a.cfg.PostsPerPage
	total := TotalPages(len(sorted), per)

	for n := 1; n <= total; n++ {
		lo := min((n-1)*per, len(sorted))
		hi := min(lo+per, len(sorted))

		rel := IndexPath(n)
		root := Root(rel)
		title := ""
		if n > 1 {
			title = fmt.Sprintf("Page %d", n)
		}

		if err := a.renderTo(rel, assets.TemplateIndex, &render.Data{
			Site:        site,
			Root:        root,
			Title:       title,
			Description: a.cfg.Tagline,
			Entries:     entries(sorted[lo:hi], root),
			Pagination:  Paginate(n, total),
		}); err != nil {
			return err
		}
	}
	a.logger.Info("generated index pages", logfields.Count(total))
	return nil
}

// buildBlog writes <blog_slug>/index.html. A user page-blog template
// renders the first page of posts; without it, and without a page-home
// template, the blog page redirects to the home page; otherwise the page
// template is used.
func (a *Assembler) buildBlog(sorted []Post, site render.Site) error {
	rel := a.cfg.BlogSlug + "/index.html"
	root := Root(rel)
	first := sorted[:min(a.cfg.PostsPerPage, len(sorted))]

	data := &render.Data{
		Site:       site,
		Root:       root,
		Title:      "Blog",
		Entry:      &render.Entry{Kind: "page", Title: "Blog", Path: a.cfg.BlogSlug + "/"},
		Entries:    entries(first, root),
		Pagination: Paginate(1, TotalPages(len(sorted), a.cfg.PostsPerPage)),
	}

	switch {
	case a.templates != nil && a.templates.HasCustom(assets.TemplateBlog):
		return a.renderTo(rel, assets.TemplateBlog, data)
	case a.templates == nil || !a.templates.HasCustom(assets.TemplateHome):
		data.Title = "Redirecting"
		data.RedirectURL = root
		a.logger.Info("no blog or home template, blog page redirects to home")
		return a.renderTo(rel, assets.TemplateRedirect, data)
	default:
		a.logger.Warn("template page-blog not found, falling back to page", logfields.Path(rel))
		return a.renderTo(rel, assets.TemplatePage, data)
	}
}

func entries(posts []Post, root string) []render.Entry {
	out := make([]render.Entry, len(posts))
	for i := range posts {
		out[i] = posts[i].Entry(root, "")
	}
	return out
}
