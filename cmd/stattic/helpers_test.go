package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment and site fixtures
// ---------------------------------------------------------------------------

// testEnv returns an environment rooted at a fresh temp dir, capturing output.
func testEnv(t *testing.T) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
		Stdout: &stdout,
		Stderr: &stderr,
		Dir:    t.TempDir(),
		LookPath: func(name string) (string, error) {
			return "", os.ErrNotExist
		},
	}
	return env, &stdout, &stderr
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// writePost writes content/posts/<slug>.md under dir.
func writePost(t *testing.T, dir, slug, front, body string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "content", "posts", slug+".md"), []byte("---\n"+front+"\n---\n\n"+body+"\n"))
}

// writeSite writes a small site with two posts, a page and a local image,
// and a config that disables external tools and fonts.
func writeSite(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "stattic.yml"), []byte("site_title: Test Site\nsite_url: https://example.com\nsecurity:\n  allowed_binaries: []\n"))
	writeFile(t, filepath.Join(dir, "content", "authors.yml"), []byte("1: Jane\n"))
	writePost(t, dir, "hello", "title: Hello\ndate: 2024-03-01\nauthor: 1", "Hi ![dot](dot.png)")
	writePost(t, dir, "second", "title: Second\ndate: 2024-03-02", "Two")
	writeFile(t, filepath.Join(dir, "content", "posts", "dot.png"), pngImage(t))
	writeFile(t, filepath.Join(dir, "content", "pages", "about.md"), []byte("---\ntitle: About\n---\nAbout me\n"))
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}
