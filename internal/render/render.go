// Package render executes the site templates.
//
// Every template is parsed together with the base layout: the layout
// defines "base" and page templates define "content" and optionally
// "head". Parsed sets are cached, so a Renderer is shared by all build
// workers.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/alnah/go-stattic/internal/assets"
)

// ErrRender indicates a template failed to parse or execute.
var ErrRender = errors.New("render failed")

// TemplateSource provides template text by name (without extension).
type TemplateSource interface {
	LoadTemplate(name string) (string, error)
}

// Renderer renders Data through named templates. It is safe for
// concurrent use.
type Renderer struct {
	source TemplateSource

	mu    sync.Mutex
	cache map[string]*template.Template
}

// New creates a Renderer backed by source.
func New(source TemplateSource) *Renderer {
	return &Renderer{
		source: source,
		cache:  make(map[string]*template.Template),
	}
}

// Render executes the named template. A trailing ".html" in name is
// ignored so entity template file names can be passed directly.
func (r *Renderer) Render(name string, data *Data) (string, error) {
	name = strings.TrimSuffix(name, assets.TemplateExt)

	tmpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, assets.TemplateBase, data); err != nil {
		return "", fmt.Errorf("%w: executing %s: %v", ErrRender, name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.cache[name]; ok {
		return tmpl, nil
	}

	tmpl, err := r.parse(name)
	if err != nil {
		return nil, err
	}
	r.cache[name] = tmpl
	return tmpl, nil
}

func (r *Renderer) parse(name string) (*template.Template, error) {
	base, err := r.source.LoadTemplate(assets.TemplateBase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	page, err := r.source.LoadTemplate(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	tmpl, err := template.New("layout").Funcs(funcs).Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrRender, assets.TemplateBase, err)
	}
	if name == assets.TemplateBase {
		return tmpl, nil
	}
	if _, err := tmpl.New(name).Parse(page); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrRender, name, err)
	}
	return tmpl, nil
}

var funcs = template.FuncMap{
	"join":  strings.Join,
	"lower": strings.ToLower,
	"meta": func(m map[string]any, key string) any {
		if m == nil {
			return nil
		}
		return m[key]
	},
}
