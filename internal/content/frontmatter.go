package content

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/adrg/frontmatter"

	"github.com/alnah/go-stattic/internal/yamlutil"
)

// ErrFrontMatter wraps every front matter decoding failure.
var ErrFrontMatter = errors.New("invalid front matter")

// Accepted fences. JSON goes through the YAML decoder.
var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", unmarshalMeta),
	frontmatter.NewFormat("---yaml", "---", unmarshalMeta),
	frontmatter.NewFormat(";;;", ";;;", unmarshalMeta),
	frontmatter.NewFormat("---json", "---", unmarshalMeta),
}

func unmarshalMeta(data []byte, v any) error {
	dst, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("unsupported front matter target %T", v)
	}
	m, err := yamlutil.UnmarshalMap(bytes.TrimSpace(data))
	if err != nil {
		return err
	}
	*dst = m
	return nil
}

// ParseFrontMatter splits source into its metadata mapping and Markdown body.
// A document without front matter yields an empty mapping and the whole
// source as body.
func ParseFrontMatter(source []byte) (map[string]any, []byte, error) {
	meta := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta, formats...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta, bytes.TrimSpace(body), nil
}
