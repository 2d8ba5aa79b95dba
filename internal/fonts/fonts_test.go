package fonts

// Notes:
// - fakeGetter replaces the network; the real fetcher's domain allow-list
//   is covered in the fetch package
// - Counting fetches proves cached files are reused

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-stattic/internal/fetch"
)

type fakeGetter struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool // substrings of URLs that fail
}

func (f *fakeGetter) Fetch(_ context.Context, rawURL string) (*fetch.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.mu.Unlock()

	for s := range f.fail {
		if strings.Contains(rawURL, s) {
			return nil, fmt.Errorf("%w: blocked", fetch.ErrPolicyRejected)
		}
	}
	if strings.HasPrefix(rawURL, "https://fonts.googleapis.com/") {
		css := "@font-face { src: url(https://fonts.gstatic.com/s/f/" + strings.Split(rawURL, "family=")[1][:4] + ".woff2) format('woff2'); }"
		return &fetch.Result{URL: rawURL, ContentType: "text/css", Body: []byte(css)}, nil
	}
	return &fetch.Result{URL: rawURL, ContentType: "font/woff2", Body: []byte("wOF2" + rawURL)}, nil
}

func (f *fakeGetter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// ---------------------------------------------------------------------------
// Download
// ---------------------------------------------------------------------------

func TestDownload(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	getter := &fakeGetter{}
	faces, err := New(getter, nil).Download(context.Background(), out, []string{"Open Sans", "Inter"})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	if len(faces) != 4 {
		t.Fatalf("faces = %d, want 4", len(faces))
	}
	if faces[0].Family != "Open Sans" || faces[0].Weight != 400 || faces[0].File != "open-sans-400.woff2" {
		t.Errorf("faces[0] = %+v", faces[0])
	}
	if getter.count() != 8 {
		t.Errorf("fetches = %d, want 8 (css + file per face)", getter.count())
	}

	for _, f := range faces {
		if _, err := os.Stat(filepath.Join(out, "assets", "fonts", f.File)); err != nil {
			t.Errorf("missing font file %s", f.File)
		}
	}
	css, err := os.ReadFile(filepath.Join(out, "assets", "css", "fonts.css"))
	if err != nil {
		t.Fatalf("fonts.css: %v", err)
	}
	for _, want := range []string{"font-family: 'Inter';", "url('../fonts/inter-700.woff2')", "body {\n  font-family: 'Open Sans', sans-serif;"} {
		if !strings.Contains(string(css), want) {
			t.Errorf("fonts.css missing %q", want)
		}
	}
}

func TestDownload_ReusesCachedFiles(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	first := &fakeGetter{}
	if _, err := New(first, nil).Download(context.Background(), out, []string{"Inter"}); err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	second := &fakeGetter{}
	faces, err := New(second, nil).Download(context.Background(), out, []string{"Inter"})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if second.count() != 0 {
		t.Errorf("second run fetched %d times, want 0", second.count())
	}
	if len(faces) != 2 {
		t.Errorf("faces = %d, want 2", len(faces))
	}
}

func TestDownload_FailuresAreSkipped(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	getter := &fakeGetter{fail: map[string]bool{"wght@700": true}}
	faces, err := New(getter, nil).Download(context.Background(), out, []string{"Inter"})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(faces) != 1 || faces[0].Weight != 400 {
		t.Errorf("faces = %+v, want only weight 400", faces)
	}
}

func TestDownload_InvalidFamilyAndNothingAvailable(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	getter := &fakeGetter{}
	faces, err := New(getter, nil).Download(context.Background(), out, []string{"../evil", "x);}body{"})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if faces != nil || getter.count() != 0 {
		t.Errorf("faces = %v, fetches = %d, want none", faces, getter.count())
	}
	if _, err := os.Stat(filepath.Join(out, "assets", "css", "fonts.css")); !errors.Is(err, os.ErrNotExist) {
		t.Error("fonts.css written without any font")
	}
}

func TestStylesheet_Empty(t *testing.T) {
	t.Parallel()

	if got := Stylesheet(nil); strings.Contains(got, "body") {
		t.Errorf("Stylesheet(nil) = %q, want no body rule", got)
	}
}
