// Package pathsafe resolves every filesystem destination of the build and
// guarantees it stays inside a configured root.
//
// Candidates are slash-separated relative paths. Each segment is validated
// before joining, and the joined absolute path is checked against the
// absolute root with a separator-terminated prefix comparison. Any failure
// is reported as ErrPathTraversal or ErrUnsafeName; paths are never
// silently truncated.
package pathsafe

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// MaxSegmentLength bounds a single path element, matching common filesystem limits.
const MaxSegmentLength = 255

// Sentinel errors for path resolution.
var (
	// ErrPathTraversal indicates a candidate that would escape the root.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrUnsafeName indicates a path element with characters unsafe for the filesystem.
	ErrUnsafeName = errors.New("unsafe file name")
)

// ValidateSegment checks a single path element.
func ValidateSegment(seg string) error {
	switch seg {
	case "":
		return fmt.Errorf("%w: empty segment", ErrUnsafeName)
	case ".", "..":
		return fmt.Errorf("%w: %q segment", ErrPathTraversal, seg)
	}
	if len(seg) > MaxSegmentLength {
		return fmt.Errorf("%w: segment exceeds %d bytes", ErrUnsafeName, MaxSegmentLength)
	}
	if strings.ContainsAny(seg, "/\\") {
		return fmt.Errorf("%w: separator in %q", ErrPathTraversal, seg)
	}
	for _, r := range seg {
		if r == 0 || unicode.IsControl(r) || r == ':' {
			return fmt.Errorf("%w: %q", ErrUnsafeName, seg)
		}
	}
	return nil
}

// Resolve joins the relative candidate onto root and returns an absolute
// path proven to lie inside root.
func Resolve(root, candidate string) (string, error) {
	if candidate == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnsafeName)
	}
	if strings.ContainsRune(candidate, 0) {
		return "", fmt.Errorf("%w: null byte", ErrUnsafeName)
	}
	if strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, "\\") ||
		filepath.IsAbs(candidate) || filepath.VolumeName(candidate) != "" {
		return "", fmt.Errorf("%w: absolute path %q", ErrPathTraversal, candidate)
	}

	for _, seg := range strings.Split(candidate, "/") {
		if err := ValidateSegment(seg); err != nil {
			return "", err
		}
	}

	absRoot, err := AbsRoot(root)
	if err != nil {
		return "", err
	}

	target := filepath.Join(absRoot, filepath.FromSlash(candidate))
	if !IsUnder(absRoot, target) {
		return "", fmt.Errorf("%w: %q escapes %s", ErrPathTraversal, candidate, absRoot)
	}
	return target, nil
}

// ResolveReal is Resolve for paths about to be read: when the target
// exists, symlinks along it are followed and the real path must still lie
// inside root. A missing target keeps its lexical path.
func ResolveReal(root, candidate string) (string, error) {
	target, err := Resolve(root, candidate)
	if err != nil {
		return "", err
	}
	real, err := filepath.EvalSymlinks(target)
	if err != nil {
		return target, nil
	}
	absRoot, err := AbsRoot(root)
	if err != nil {
		return "", err
	}
	if !IsUnder(absRoot, real) {
		return "", fmt.Errorf("%w: %q links outside %s", ErrPathTraversal, candidate, absRoot)
	}
	return real, nil
}

// AbsRoot returns the absolute, symlink-resolved form of root. Roots that
// do not exist yet keep their absolute form.
func AbsRoot(root string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("%w: empty root", ErrUnsafeName)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: cannot resolve root: %v", ErrPathTraversal, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return abs, nil
}

// IsUnder reports whether path lies strictly inside dir. Both must be absolute.
func IsUnder(dir, path string) bool {
	cleanDir := filepath.Clean(dir)
	cleanPath := filepath.Clean(path)
	if cleanPath == cleanDir {
		return false
	}
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(cleanPath, cleanDir)
}

// RelativeRoot returns the slash-terminated relative path from a page
// directory (relative to the output root) back to the root, e.g. "../../"
// for "blog/post". The root itself yields "".
func RelativeRoot(pageDir string) string {
	pageDir = strings.Trim(filepath.ToSlash(pageDir), "/")
	if pageDir == "" || pageDir == "." {
		return ""
	}
	return strings.Repeat("../", strings.Count(pageDir, "/")+1)
}
