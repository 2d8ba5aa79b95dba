package render

import (
	"html/template"
)

// Site holds values shared by every page.
type Site struct {
	Title    string
	Tagline  string
	URL      string // absolute site URL without trailing slash, may be empty
	Lang     string
	BlogSlug string
	Pages    []Link
	HasFonts bool
	Year     int
}

// Link is a navigation entry. Path is relative to the site root.
type Link struct {
	Title string
	Path  string
}

// Entry is a post or page as templates see it. Path is relative to the
// site root; FeaturedImage is already relative to the page being rendered.
type Entry struct {
	Kind          string
	Title         string
	Path          string
	Permalink     string
	Date          string
	Author        string
	Categories    []string
	Tags          []string
	Excerpt       string
	FeaturedImage string
	Content       template.HTML
	Meta          map[string]any
}

// PageNumber is one element of a pagination bar.
type PageNumber struct {
	Number   int
	Path     string
	Current  bool
	Ellipsis bool
}

// Pagination describes the position of an index page.
type Pagination struct {
	Current int
	Total   int
	Prev    string
	Next    string
	Pages   []PageNumber
}

// Data is the root object passed to templates. Root is the relative path
// from the rendered page back to the site root, e.g. "../../" or "./".
type Data struct {
	Site        Site
	Root        string
	Title       string
	Description string
	Entry       *Entry
	Entries     []Entry
	Pagination  *Pagination
	RedirectURL string
}
