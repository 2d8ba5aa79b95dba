package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-stattic/internal/pathsafe"
)

// FilesystemLoader reads layouts from the site's templates directory.
type FilesystemLoader struct {
	dir string
}

// NewFilesystemLoader opens dir, which must be an existing readable
// directory. Symlinks in dir itself are resolved once here.
func NewFilesystemLoader(dir string) (*FilesystemLoader, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}
	root, err := pathsafe.AbsRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %s does not exist", ErrInvalidBasePath, root)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidBasePath, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	return &FilesystemLoader{dir: root}, nil
}

// BasePath returns the resolved templates directory.
func (f *FilesystemLoader) BasePath() string { return f.dir }

// LoadTemplate reads <dir>/<name>.html.
func (f *FilesystemLoader) LoadTemplate(name string) (string, error) {
	path, err := f.locate(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- contained by locate
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrAssetRead, name, err)
	}
	return string(data), nil
}

// Has reports whether name exists as a regular file in the directory.
func (f *FilesystemLoader) Has(name string) bool {
	path, err := f.locate(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// locate maps a layout name to its file, following symlinks so a link
// cannot lead out of the directory. A missing file keeps its lexical path
// and fails at read time.
func (f *FilesystemLoader) locate(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	path := filepath.Join(f.dir, name+TemplateExt)
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}
	if !pathsafe.IsUnder(f.dir, path) {
		return "", fmt.Errorf("%w: template %q resolves outside %s", ErrPathTraversal, name, f.dir)
	}
	return path, nil
}

var _ AssetLoader = (*FilesystemLoader)(nil)
