package assets

import "errors"

// AssetResolver serves layouts from the user's templates directory when one
// is configured, and from the embedded theme otherwise. A layout missing
// from the directory falls back to the embedded one; any other error is
// returned as is.
type AssetResolver struct {
	custom   *FilesystemLoader
	embedded *EmbeddedLoader
}

// NewAssetResolver builds a resolver over dir. An empty dir means the
// embedded theme only.
func NewAssetResolver(dir string) (*AssetResolver, error) {
	r := &AssetResolver{embedded: NewEmbeddedLoader()}
	if dir == "" {
		return r, nil
	}
	custom, err := NewFilesystemLoader(dir)
	if err != nil {
		return nil, err
	}
	r.custom = custom
	return r, nil
}

func (r *AssetResolver) LoadTemplate(name string) (string, error) {
	if r.custom != nil {
		tmpl, err := r.custom.LoadTemplate(name)
		if !errors.Is(err, ErrTemplateNotFound) {
			return tmpl, err
		}
	}
	return r.embedded.LoadTemplate(name)
}

// HasCustomLoader reports whether a templates directory is in use.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

// HasCustom reports whether the templates directory provides name. Optional
// layouts such as the blog home exist only when the user supplies them.
func (r *AssetResolver) HasCustom(name string) bool {
	return r.custom != nil && r.custom.Has(name)
}

var _ AssetLoader = (*AssetResolver)(nil)
