package content

// Notes:
// - Source files are written into t.TempDir(); nothing is read from the repo.
// - Front matter values come from goccy/go-yaml, which decodes integers as
//   int64/uint64 and keys of mappings as strings; accessors must cope.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-stattic/internal/pathsafe"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func mustParse(t *testing.T, kind Kind, name, data string) *Entity {
	t.Helper()
	dir := "posts"
	if kind == KindPage {
		dir = "pages"
	}
	src := Source{ID: dir + "/" + name, Kind: kind, Path: filepath.Join("/content", dir, name)}
	e, err := Parse(src, []byte(data), "blog")
	if err != nil {
		t.Fatalf("Parse(%s) error = %v", name, err)
	}
	return e
}

// ---------------------------------------------------------------------------
// TestParseFrontMatter - Fence detection and decoding
// ---------------------------------------------------------------------------

func TestParseFrontMatter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		source    string
		wantTitle any
		wantBody  string
		wantErr   bool
	}{
		{
			name:      "yaml fence",
			source:    "---\ntitle: Hello\n---\n\n# Body\n",
			wantTitle: "Hello",
			wantBody:  "# Body",
		},
		{
			name:      "json fence",
			source:    ";;;\n{\"title\": \"From JSON\"}\n;;;\nText",
			wantTitle: "From JSON",
			wantBody:  "Text",
		},
		{
			name:     "no front matter",
			source:   "Just markdown\n",
			wantBody: "Just markdown",
		},
		{
			name:     "empty front matter",
			source:   "---\n---\nBody",
			wantBody: "Body",
		},
		{
			name:      "thematic break later in body is kept",
			source:    "---\ntitle: x\n---\nA\n\n---\n\nB",
			wantBody:  "A\n\n---\n\nB",
			wantTitle: "x",
		},
		{
			name:    "invalid yaml",
			source:  "---\ntitle: [unclosed\n---\nBody",
			wantErr: true,
		},
		{
			name:    "sequence instead of mapping",
			source:  "---\n- a\n- b\n---\nBody",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			meta, body, err := ParseFrontMatter([]byte(tt.source))
			if tt.wantErr {
				if !errors.Is(err, ErrFrontMatter) {
					t.Fatalf("error = %v, want ErrFrontMatter", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := meta["title"]; got != tt.wantTitle {
				t.Errorf("title = %v, want %v", got, tt.wantTitle)
			}
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestParse - Slugs, output paths, accessors
// ---------------------------------------------------------------------------

func TestParse_PathsAndSlugs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		kind          Kind
		file          string
		source        string
		wantSlug      string
		wantOutput    string
		wantPermalink string
	}{
		{"post from stem", KindPost, "hello-world.md", "Body", "hello-world", "blog/hello-world/index.html", "blog/hello-world/"},
		{"post slug wins", KindPost, "x.md", "---\nslug: Custom Slug\n---\n", "custom-slug", "blog/custom-slug/index.html", "blog/custom-slug/"},
		{"custom_url keeps nesting", KindPost, "x.md", "---\ncustom_url: /my/url/\n---\n", "my/url", "blog/my/url/index.html", "blog/my/url/"},
		{"custom_url page", KindPage, "x.md", "---\ncustom_url: 2024//launch-Notes\n---\n", "2024/launch-Notes", "2024/launch-Notes/index.html", "/2024/launch-Notes/"},
		{"slug wins over custom_url", KindPage, "x.md", "---\nslug: About\ncustom_url: a/b\n---\n", "about", "about/index.html", "/about/"},
		{"page from stem", KindPage, "About Us.md", "", "about-us", "about-us/index.html", "/about-us/"},
		{"traversal in slug is neutralized", KindPage, "p.md", "---\nslug: ../../etc\n---\n", "etc", "etc/index.html", "/etc/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := mustParse(t, tt.kind, tt.file, tt.source)
			if e.Slug != tt.wantSlug {
				t.Errorf("Slug = %q, want %q", e.Slug, tt.wantSlug)
			}
			if e.OutputPath != tt.wantOutput {
				t.Errorf("OutputPath = %q, want %q", e.OutputPath, tt.wantOutput)
			}
			if e.Permalink != tt.wantPermalink {
				t.Errorf("Permalink = %q, want %q", e.Permalink, tt.wantPermalink)
			}
		})
	}
}

func TestParse_UnsafeCustomURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"parent segment", "../outside", pathsafe.ErrPathTraversal},
		{"nested parent", "a/../../b", pathsafe.ErrPathTraversal},
		{"dot segment", "./a", pathsafe.ErrPathTraversal},
		{"backslash parent", `a\..\..\b`, pathsafe.ErrPathTraversal},
		{"colon", "c:/x", pathsafe.ErrUnsafeName},
		{"query", "a?b=1", pathsafe.ErrUnsafeName},
		{"space", "my post", pathsafe.ErrUnsafeName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := Source{ID: "pages/x.md", Kind: KindPage, Path: "/content/pages/x.md"}
			data := fmt.Sprintf("---\ncustom_url: %q\n---\n", tt.url)
			if _, err := Parse(src, []byte(data), "blog"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse(custom_url %q) error = %v, want %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestParse_EmptySlugFails(t *testing.T) {
	t.Parallel()

	src := Source{ID: "posts/---.md", Kind: KindPost, Path: "/content/posts/---.md"}
	_, err := Parse(src, []byte("body"), "blog")
	if !errors.Is(err, ErrFrontMatter) {
		t.Fatalf("error = %v, want ErrFrontMatter", err)
	}
}

func TestEntity_Accessors(t *testing.T) {
	t.Parallel()

	e := mustParse(t, KindPost, "a.md", `---
title: "  Spaced Title  "
date: 2024-03-15
draft: "true"
order: 3
author: 2
categories: [1, 2]
tags: go, web
template: Wide
featured_image: https://example.com/cover.jpg
---
Body`)

	if e.Title() != "Spaced Title" {
		t.Errorf("Title() = %q", e.Title())
	}
	if want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC); !e.Date().Equal(want) {
		t.Errorf("Date() = %v, want %v", e.Date(), want)
	}
	if !e.Draft() {
		t.Error("Draft() = false")
	}
	if e.Order() != 3 {
		t.Errorf("Order() = %d", e.Order())
	}
	if e.TemplateName() != "post-wide.html" {
		t.Errorf("TemplateName() = %q", e.TemplateName())
	}
	if got := len(e.Categories()); got != 2 {
		t.Errorf("len(Categories()) = %d", got)
	}
	if got := e.Tags(); len(got) != 2 || got[0] != "go" || got[1] != "web" {
		t.Errorf("Tags() = %v", got)
	}
	if e.FeaturedImage() != "https://example.com/cover.jpg" {
		t.Errorf("FeaturedImage() = %q", e.FeaturedImage())
	}
	if e.Dir() != "blog/a" {
		t.Errorf("Dir() = %q", e.Dir())
	}
}

func TestEntity_Defaults(t *testing.T) {
	t.Parallel()

	e := mustParse(t, KindPage, "p.md", "---\ntitle: 42\n---\n")
	if e.Title() != "Untitled" {
		t.Errorf("non-string title: Title() = %q, want Untitled", e.Title())
	}
	if !e.Date().IsZero() {
		t.Errorf("Date() = %v, want zero", e.Date())
	}
	if e.Draft() {
		t.Error("Draft() = true")
	}
	if e.Order() != DefaultOrder {
		t.Errorf("Order() = %d, want %d", e.Order(), DefaultOrder)
	}
	if e.TemplateName() != "page.html" {
		t.Errorf("TemplateName() = %q", e.TemplateName())
	}
	if e.Author() != "Unknown" {
		t.Errorf("Author() = %v", e.Author())
	}
}

// ---------------------------------------------------------------------------
// TestDiscover - Source enumeration
// ---------------------------------------------------------------------------

func TestDiscover(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "posts", "b.md"), "b")
	writeFile(t, filepath.Join(dir, "posts", "a.MD"), "a")
	writeFile(t, filepath.Join(dir, "posts", "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "posts", ".hidden.md"), "x")
	writeFile(t, filepath.Join(dir, "posts", "nested", "c.md"), "x")
	writeFile(t, filepath.Join(dir, "pages", "about.md"), "about")

	sources, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	var ids []string
	for _, s := range sources {
		ids = append(ids, s.ID)
		if !filepath.IsAbs(s.Path) {
			t.Errorf("Path %q is not absolute", s.Path)
		}
	}
	want := []string{"posts/a.MD", "posts/b.md", "pages/about.md"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if sources[2].Kind != KindPage {
		t.Errorf("Kind = %q, want page", sources[2].Kind)
	}
}

func TestDiscover_MissingDirs(t *testing.T) {
	t.Parallel()

	sources, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(sources) != 0 {
		t.Errorf("len(sources) = %d, want 0", len(sources))
	}

	if _, err := Discover(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("Discover() on a missing content dir succeeded")
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "posts", "first.md")
	writeFile(t, path, "---\ntitle: First\n---\nHello")

	e, err := Load(Source{ID: "posts/first.md", Kind: KindPost, Path: path}, "journal")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if e.Body != "Hello" || e.Permalink != "journal/first/" {
		t.Errorf("unexpected entity: body=%q permalink=%q", e.Body, e.Permalink)
	}

	if _, err := Load(Source{ID: "posts/missing.md", Path: filepath.Join(dir, "missing.md")}, "blog"); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}

// ---------------------------------------------------------------------------
// TestShared - Authors, categories, tags
// ---------------------------------------------------------------------------

func TestLoadShared(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, AuthorsFile), `1:
  name: Jane Doe
  email: jane@example.com
2: John Smith
`)
	writeFile(t, filepath.Join(dir, CategoriesFile), `1:
  name: Go Programming
  description: All things Go
`)

	s, err := LoadShared(dir)
	if err != nil {
		t.Fatalf("LoadShared() error = %v", err)
	}
	if got := s.Authors["1"]; got.Name != "Jane Doe" || got.Email != "jane@example.com" {
		t.Errorf("author 1 = %+v", got)
	}
	if got := s.Categories["1"]; got.Slug != "go-programming" {
		t.Errorf("category slug = %q", got.Slug)
	}
	if len(s.Tags) != 0 {
		t.Errorf("tags = %v, want empty", s.Tags)
	}

	tests := []struct {
		ref  any
		want string
	}{
		{1, "Jane Doe"},
		{uint64(2), "John Smith"},
		{"2", "John Smith"},
		{99, UnknownAuthor},
		{"Guest Writer", "Guest Writer"},
		{nil, UnknownAuthor},
	}
	for _, tt := range tests {
		if got := s.AuthorName(tt.ref); got != tt.want {
			t.Errorf("AuthorName(%v) = %q, want %q", tt.ref, got, tt.want)
		}
	}

	got := s.CategoryNames([]any{1, 7, "Misc"})
	want := []string{"Go Programming", "Unknown (ID: 7)", "Misc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CategoryNames() = %v, want %v", got, want)
	}
}

func TestLoadShared_InvalidFileKeepsOthers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, TagsFile), "- not\n- a mapping\n")
	writeFile(t, filepath.Join(dir, AuthorsFile), "1: Ann\n")

	s, err := LoadShared(dir)
	if err == nil || !strings.Contains(err.Error(), TagsFile) {
		t.Fatalf("error = %v, want mention of %s", err, TagsFile)
	}
	if s.AuthorName(1) != "Ann" {
		t.Error("valid authors file not loaded")
	}
}

func TestScanPages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pages", "contact.md"), "---\ntitle: Contact\norder: 2\n---\n")
	writeFile(t, filepath.Join(dir, "pages", "about.md"), "---\ntitle: About\norder: 1\n---\n")
	writeFile(t, filepath.Join(dir, "pages", "zeta.md"), "---\ntitle: Zeta\n---\n")
	writeFile(t, filepath.Join(dir, "pages", "draft.md"), "---\ntitle: Draft\ndraft: true\n---\n")
	writeFile(t, filepath.Join(dir, "pages", "broken.md"), "---\ntitle: [\n---\n")
	writeFile(t, filepath.Join(dir, "posts", "post.md"), "---\ntitle: Post\n---\n")

	sources, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}

	var titles []string
	for _, p := range ScanPages(sources, false) {
		titles = append(titles, p.Title)
	}
	want := []string{"About", "Contact", "Zeta"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}

	if got := len(ScanPages(sources, true)); got != 4 {
		t.Errorf("with drafts: %d pages, want 4", got)
	}
}

// ---------------------------------------------------------------------------
// TestExcerpt - Plain text extraction
// ---------------------------------------------------------------------------

func TestExcerpt(t *testing.T) {
	t.Parallel()

	long := "<p>" + strings.Repeat("word ", 40) + "</p>"

	tests := []struct {
		name string
		html string
		n    int
		want string
	}{
		{"short text kept", "<p>Hello <strong>bold</strong> world</p>", 0, "Hello bold world"},
		{"inline tags do not split words", "<p>Bo<em>ld</em></p>", 0, "Bold"},
		{"block tags separate words", "<h1>Title</h1><p>Para</p>", 0, "Title Para"},
		{"script and style dropped", "<p>Keep</p><script>var x = 1;</script><style>p{}</style>", 0, "Keep"},
		{"entities decoded", "<p>Fish &amp; Chips</p>", 0, "Fish & Chips"},
		{"cut at n words", long, 30, strings.TrimSpace(strings.Repeat("word ", 30)) + "..."},
		{"custom length", "<p>a b c d</p>", 2, "a b..."},
		{"empty", "", 0, ""},
	}
	for _, tt := range tests {
		if got := Excerpt(tt.html, tt.n); got != tt.want {
			t.Errorf("%s: Excerpt() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
