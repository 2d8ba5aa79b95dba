package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alnah/go-stattic/internal/pathsafe"
	"github.com/alnah/go-stattic/internal/yamlutil"
)

// Shared data files in the content directory.
const (
	AuthorsFile    = "authors.yml"
	CategoriesFile = "categories.yml"
	TagsFile       = "tags.yml"
)

// Display names for unresolved references.
const (
	UnknownAuthor = "Unknown Author"
	unknownFormat = "Unknown (ID: %s)"
)

// Term is an author, category or tag entry. A plain string value in the
// YAML file becomes a Term with only Name set.
type Term struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Email       string `json:"email,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Description string `json:"description,omitempty"`
}

// PageLink is a navigation entry for a page.
type PageLink struct {
	Title     string
	Slug      string
	Permalink string
	Order     int
}

// Shared is the read-only reference data attached to every entity.
// It must not be modified once the build starts.
type Shared struct {
	Authors    map[string]Term
	Categories map[string]Term
	Tags       map[string]Term
	Pages      []PageLink
}

// LoadShared reads authors.yml, categories.yml and tags.yml from
// contentDir. Missing files yield empty lookups. Every file that fails
// to parse is reported in the joined error, and the others still load.
func LoadShared(contentDir string) (*Shared, error) {
	s := &Shared{}
	var errs []error
	var err error
	if s.Authors, err = loadTerms(filepath.Join(contentDir, AuthorsFile)); err != nil {
		errs = append(errs, err)
	}
	if s.Categories, err = loadTerms(filepath.Join(contentDir, CategoriesFile)); err != nil {
		errs = append(errs, err)
	}
	if s.Tags, err = loadTerms(filepath.Join(contentDir, TagsFile)); err != nil {
		errs = append(errs, err)
	}
	return s, errors.Join(errs...)
}

func loadTerms(path string) (map[string]Term, error) {
	terms := map[string]Term{}
	data, err := os.ReadFile(path) // #nosec G304 -- fixed file names inside the content dir
	if errors.Is(err, fs.ErrNotExist) {
		return terms, nil
	}
	if err != nil {
		return terms, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	raw, err := yamlutil.UnmarshalMap(data)
	if err != nil {
		return terms, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	for id, v := range raw {
		terms[id] = toTerm(id, v)
	}
	return terms, nil
}

func toTerm(id string, v any) Term {
	t := Term{ID: id}
	switch x := v.(type) {
	case map[string]any:
		t.Name = asString(x["name"])
		t.Slug = asString(x["slug"])
		t.Email = asString(x["email"])
		t.Bio = asString(x["bio"])
		t.Description = asString(x["description"])
	default:
		t.Name = asString(x)
	}
	if t.Name == "" {
		t.Name = fmt.Sprintf(unknownFormat, id)
	}
	if t.Slug == "" {
		t.Slug = pathsafe.Slug(t.Name)
	}
	return t
}

// AuthorName resolves an author reference. Numeric ids are looked up and
// fall back to UnknownAuthor; any other string is taken as the name.
func (s *Shared) AuthorName(ref any) string {
	key := strings.TrimSpace(asString(ref))
	if key == "" {
		return UnknownAuthor
	}
	if s != nil {
		if t, ok := s.Authors[key]; ok {
			return t.Name
		}
	}
	if _, numeric := asInt(key); numeric {
		return UnknownAuthor
	}
	return key
}

// CategoryNames resolves category references to display names.
func (s *Shared) CategoryNames(refs []any) []string {
	if s == nil {
		return resolveNames(nil, refs)
	}
	return resolveNames(s.Categories, refs)
}

// TagNames resolves tag references to display names.
func (s *Shared) TagNames(refs []any) []string {
	if s == nil {
		return resolveNames(nil, refs)
	}
	return resolveNames(s.Tags, refs)
}

func resolveNames(terms map[string]Term, refs []any) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		key := strings.TrimSpace(asString(ref))
		if key == "" {
			continue
		}
		if t, ok := terms[key]; ok {
			names = append(names, t.Name)
			continue
		}
		if _, numeric := asInt(key); numeric {
			names = append(names, fmt.Sprintf(unknownFormat, key))
			continue
		}
		names = append(names, key)
	}
	return names
}

// SortPageLinks orders navigation by order, then title.
func SortPageLinks(pages []PageLink) {
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].Order != pages[j].Order {
			return pages[i].Order < pages[j].Order
		}
		return strings.ToLower(pages[i].Title) < strings.ToLower(pages[j].Title)
	})
}

// ScanPages parses the page sources for navigation. Pages that fail to
// parse or are drafts are left out; the build reports their errors.
func ScanPages(sources []Source, includeDrafts bool) []PageLink {
	var pages []PageLink
	for _, src := range sources {
		if src.Kind != KindPage {
			continue
		}
		e, err := Load(src, "")
		if err != nil || (e.Draft() && !includeDrafts) {
			continue
		}
		pages = append(pages, PageLink{
			Title:     e.Title(),
			Slug:      e.Slug,
			Permalink: e.Permalink,
			Order:     e.Order(),
		})
	}
	SortPageLinks(pages)
	return pages
}
