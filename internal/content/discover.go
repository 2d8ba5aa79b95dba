package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Subdirectories scanned by Discover.
const (
	PostsDir = "posts"
	PagesDir = "pages"
)

// Discover lists Markdown sources under contentDir, posts first, each
// group sorted by name. Missing posts or pages directories are not errors.
// Symlinks and nested directories are ignored.
func Discover(contentDir string) ([]Source, error) {
	root, err := filepath.Abs(contentDir)
	if err != nil {
		return nil, fmt.Errorf("resolving content dir: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("content dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content dir %s: not a directory", contentDir)
	}

	var sources []Source
	for _, group := range []struct {
		dir  string
		kind Kind
	}{{PostsDir, KindPost}, {PagesDir, KindPage}} {
		found, err := scanDir(root, group.dir, group.kind)
		if err != nil {
			return nil, err
		}
		sources = append(sources, found...)
	}
	return sources, nil
}

func scanDir(root, dir string, kind Kind) ([]Source, error) {
	entries, err := os.ReadDir(filepath.Join(root, dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var out []Source
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".md") {
			continue
		}
		out = append(out, Source{
			ID:   dir + "/" + name,
			Kind: kind,
			Path: filepath.Join(root, dir, name),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
