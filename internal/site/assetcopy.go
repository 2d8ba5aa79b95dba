package site

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alnah/go-stattic/internal/assets"
	"github.com/alnah/go-stattic/internal/fileutil"
	"github.com/alnah/go-stattic/internal/pathsafe"
)

// Output locations of static assets, relative to the output root.
const (
	AssetsDir     = "assets"
	FontsDir      = "assets/fonts"
	FontsCSS      = "assets/css/fonts.css"
	StylesheetCSS = "assets/css/style.css"
)

// CopyAssets refreshes <output>/assets from assetsDir. Downloaded fonts
// (assets/fonts and assets/css/fonts.css) survive the refresh so they are
// not fetched again. Without an assets directory the embedded stylesheet
// is written instead.
func CopyAssets(assetsDir, outputDir string) error {
	dst, err := pathsafe.Resolve(outputDir, AssetsDir)
	if err != nil {
		return err
	}

	if err := clearAssets(dst); err != nil {
		return err
	}

	if assetsDir != "" && fileutil.DirExists(assetsDir) {
		skip := func(rel string) bool {
			return rel == "fonts" || rel == "css/fonts.css"
		}
		if err := fileutil.CopyDir(assetsDir, dst, skip); err != nil {
			return fmt.Errorf("copying assets: %w", err)
		}
		return nil
	}

	css, err := pathsafe.Resolve(outputDir, StylesheetCSS)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(css, []byte(assets.DefaultStylesheet()))
}

// clearAssets removes everything under dst except cached fonts.
func clearAssets(dst string) error {
	entries, err := os.ReadDir(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		switch e.Name() {
		case "fonts":
			continue
		case "css":
			if err := clearExcept(filepath.Join(dst, "css"), "fonts.css"); err != nil {
				return err
			}
			continue
		}
		if err := os.RemoveAll(filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func clearExcept(dir, keep string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name() == keep {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
