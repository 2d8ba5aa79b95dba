package content

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/alnah/go-stattic/internal/dateutil"
	"github.com/alnah/go-stattic/internal/pathsafe"
)

// MaxSourceBytes bounds a single content file.
const MaxSourceBytes = 8 << 20

// DefaultOrder sorts entities without an explicit order last.
const DefaultOrder = 1000

// Kind distinguishes posts from pages.
type Kind string

const (
	KindPost Kind = "post"
	KindPage Kind = "page"
)

// Source is a content file found by Discover.
type Source struct {
	ID   string // slash-separated path relative to the content dir, e.g. "posts/hello.md"
	Kind Kind
	Path string // absolute path
}

// Entity is one parsed post or page. It is owned by a single worker
// while the build runs.
type Entity struct {
	ID         string
	Kind       Kind
	SourcePath string
	Body       string         // Markdown without front matter
	Meta       map[string]any // front matter, unknown keys included
	Slug       string
	OutputPath string // relative to the output root, slash-separated
	Permalink  string
}

// Load reads and parses src.
func Load(src Source, blogSlug string) (*Entity, error) {
	info, err := os.Stat(src.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.ID, err)
	}
	if info.Size() > MaxSourceBytes {
		return nil, fmt.Errorf("reading %s: %d bytes exceeds %d", src.ID, info.Size(), MaxSourceBytes)
	}
	data, err := os.ReadFile(src.Path) // #nosec G304 -- path comes from Discover
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.ID, err)
	}
	return Parse(src, data, blogSlug)
}

// Parse builds an Entity from raw file content.
func Parse(src Source, data []byte, blogSlug string) (*Entity, error) {
	meta, body, err := ParseFrontMatter(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.ID, err)
	}

	e := &Entity{
		ID:         src.ID,
		Kind:       src.Kind,
		SourcePath: src.Path,
		Body:       string(body),
		Meta:       meta,
	}

	e.Slug, err = slugFor(meta, src.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.ID, err)
	}
	if e.Slug == "" {
		return nil, fmt.Errorf("%s: %w: empty slug", src.ID, ErrFrontMatter)
	}

	if src.Kind == KindPost {
		blog := pathsafe.Slug(blogSlug)
		if blog == "" {
			blog = "blog"
		}
		e.OutputPath = path.Join(blog, e.Slug, "index.html")
		e.Permalink = blog + "/" + e.Slug + "/"
	} else {
		e.OutputPath = path.Join(e.Slug, "index.html")
		e.Permalink = "/" + e.Slug + "/"
	}
	return e, nil
}

// slugFor picks slug, then custom_url, then the file stem. slug and the
// stem are normalized to one segment; custom_url is used as written and
// may nest ("2024/launch"), each segment validated.
func slugFor(meta map[string]any, sourcePath string) (string, error) {
	if s := strings.TrimSpace(asString(meta["slug"])); s != "" {
		return pathsafe.Slug(s), nil
	}
	if s := strings.TrimSpace(asString(meta["custom_url"])); strings.Trim(s, "/") != "" {
		return customPath(s)
	}
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return pathsafe.Slug(stem), nil
}

// customPath validates a custom_url and returns it without leading,
// trailing or repeated slashes.
func customPath(raw string) (string, error) {
	var segs []string
	for _, seg := range strings.Split(strings.ReplaceAll(raw, "\\", "/"), "/") {
		if seg == "" {
			continue
		}
		if err := pathsafe.ValidateSegment(seg); err != nil {
			return "", fmt.Errorf("custom_url %q: %w", raw, err)
		}
		if strings.ContainsAny(seg, "?#") || strings.IndexFunc(seg, unicode.IsSpace) >= 0 {
			return "", fmt.Errorf("custom_url %q: %w: %q", raw, pathsafe.ErrUnsafeName, seg)
		}
		segs = append(segs, seg)
	}
	return strings.Join(segs, "/"), nil
}

// Dir returns the output directory of the entity relative to the root.
func (e *Entity) Dir() string { return path.Dir(e.OutputPath) }

// String returns a scalar front matter value as text.
func (e *Entity) String(key string) string { return strings.TrimSpace(asString(e.Meta[key])) }

// Title defaults to "Untitled".
func (e *Entity) Title() string {
	if t, ok := e.Meta["title"].(string); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	return "Untitled"
}

// Date returns the parsed date, or the zero time when missing or invalid.
func (e *Entity) Date() time.Time {
	t, err := dateutil.Parse(e.Meta["date"])
	if err != nil {
		return time.Time{}
	}
	return t
}

// Draft reports whether the entity is marked as a draft.
func (e *Entity) Draft() bool { return asBool(e.Meta["draft"]) }

// Order returns the explicit order, or DefaultOrder.
func (e *Entity) Order() int {
	if n, ok := asInt(e.Meta["order"]); ok {
		return n
	}
	return DefaultOrder
}

// Author returns the raw author reference.
func (e *Entity) Author() any {
	if v, ok := e.Meta["author"]; ok && v != nil {
		return v
	}
	return "Unknown"
}

// Categories returns the raw category references.
func (e *Entity) Categories() []any { return asList(e.Meta["categories"]) }

// Tags returns the raw tag references.
func (e *Entity) Tags() []any { return asList(e.Meta["tags"]) }

// FeaturedImage returns the featured_image reference, if any.
func (e *Entity) FeaturedImage() string { return e.String("featured_image") }

// TemplateName resolves the template file for the entity: post.html,
// page.html, or post-<name>.html / page-<name>.html.
func (e *Entity) TemplateName() string {
	base := string(e.Kind)
	if t := pathsafe.Slug(e.String("template")); t != "" {
		return base + "-" + t + ".html"
	}
	return base + ".html"
}
