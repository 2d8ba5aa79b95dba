package site

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	"github.com/alnah/go-stattic/internal/fileutil"
	"github.com/alnah/go-stattic/internal/pathsafe"
)

// minifyTargets maps an assets subdirectory to the extension and media type
// minified in it.
var minifyTargets = []struct {
	dir, ext, mediaType string
}{
	{"css", ".css", "text/css"},
	{"js", ".js", "application/javascript"},
}

// MinifyAssets writes a minified <name>.min.css or <name>.min.js next to
// every stylesheet and script in <output>/assets/css and <output>/assets/js.
// Files already named .min.* are skipped. A file that fails is reported
// in the joined error and the rest are still processed. It returns the
// number of files written.
func MinifyAssets(outputDir string) (int, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)

	var (
		written int
		errs    []error
	)
	for _, t := range minifyTargets {
		dir, err := pathsafe.Resolve(outputDir, filepath.Join(AssetsDir, t.dir))
		if err != nil {
			return written, err
		}
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range entries {
			name := e.Name()
			stem, ok := strings.CutSuffix(name, t.ext)
			if !ok || e.IsDir() || strings.HasSuffix(stem, ".min") {
				continue
			}
			if err := minifyFile(m, t.mediaType, filepath.Join(dir, name), filepath.Join(dir, stem+".min"+t.ext)); err != nil {
				errs = append(errs, err)
				continue
			}
			written++
		}
	}
	return written, errors.Join(errs...)
}

func minifyFile(m *minify.M, mediaType, src, dst string) error {
	data, err := os.ReadFile(src) // #nosec G304 -- listed from the output tree
	if err != nil {
		return err
	}
	out, err := m.Bytes(mediaType, data)
	if err != nil {
		return fmt.Errorf("minifying %s: %w", filepath.Base(src), err)
	}
	return fileutil.WriteFileAtomic(dst, out)
}
