package stattic

// Notes:
// - Generate runs against a full content tree in t.TempDir(); remote
//   images and fonts come from fakes, so no test touches the network.
// - gif2webp is removed from the allow-list so results do not depend on
//   the host having it installed.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-stattic/internal/config"
	"github.com/alnah/go-stattic/internal/fetch"
)

type fontGetter struct{}

func (fontGetter) Fetch(_ context.Context, rawURL string) (*fetch.Result, error) {
	if strings.HasPrefix(rawURL, "https://fonts.googleapis.com/") {
		css := "@font-face { src: url(https://fonts.gstatic.com/s/inter/v1/x.woff2) format('woff2'); }"
		return &fetch.Result{URL: rawURL, ContentType: "text/css", Body: []byte(css)}, nil
	}
	return &fetch.Result{URL: rawURL, ContentType: "font/woff2", Body: []byte("wOF2")}, nil
}

func testConfig(t *testing.T) (*config.Config, *testSite) {
	t.Helper()
	s := newTestSite(t)
	cfg := config.DefaultConfig()
	cfg.Content = s.content
	cfg.Output = s.output
	cfg.Templates = filepath.Join(s.root, "templates")
	cfg.SiteTitle = "Notes"
	cfg.SiteURL = "https://example.com"
	cfg.Security.AllowedBinaries = []string{}
	return cfg, s
}

func TestGenerate_FullSite(t *testing.T) {
	t.Parallel()

	cfg, s := testConfig(t)
	cfg.Fonts = []string{"Inter"}
	cfg.LLMs = "public"
	writeFile(t, filepath.Join(s.content, "authors.yml"), []byte("1: Jane\n"))
	s.post(t, "hello", "title: Hello\ndate: 2024-03-01\nauthor: 1", "Hi ![p](https://img.test/p.png)")
	s.post(t, "second", "title: Second\ndate: 2024-03-02", "Two")
	writeFile(t, filepath.Join(s.content, "pages", "about.md"), []byte("---\ntitle: About\n---\nAbout me\n"))

	f := newFakeFetcher(map[string]fakeResponse{
		"https://img.test/p.png": {contentType: "image/png", body: pngImage(t, 4, 4)},
	})
	report, err := Generate(context.Background(), cfg,
		WithFetcherFactory(f.factory()),
		WithFontGetter(fontGetter{}),
		WithNow(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := report.Err(ThresholdOf(cfg)); err != nil {
		t.Fatalf("report.Err: %v\n%s", err, report.Summary())
	}
	if got := report.Count(StatusSucceeded); got != 3 {
		t.Errorf("succeeded = %d, want 3", got)
	}

	for _, rel := range []string{
		"index.html",
		"blog/index.html",
		"blog/hello/index.html",
		"blog/second/index.html",
		"about/index.html",
		"404.html",
		"feed/index.xml",
		"sitemap.xml",
		"robots.txt",
		"llms.txt",
		"assets/css/style.css",
		"assets/css/fonts.css",
		"assets/fonts/inter-400.woff2",
	} {
		if _, err := os.Stat(filepath.Join(s.output, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}

	hello := s.read(t, "blog/hello/index.html")
	for _, want := range []string{"Jane", "March 01, 2024", `src="../../images/p-`, "fonts.css", `href="../../about/"`} {
		if !strings.Contains(hello, want) {
			t.Errorf("hello page missing %q", want)
		}
	}
	index := s.read(t, "index.html")
	if strings.Index(index, "Second") > strings.Index(index, "Hello") {
		t.Error("index not sorted newest first")
	}
	if !strings.Contains(s.read(t, "robots.txt"), "Sitemap: https://example.com/sitemap.xml") {
		t.Error("robots.txt missing sitemap line")
	}
}

func TestGenerate_CustomTemplatesOverride(t *testing.T) {
	t.Parallel()

	cfg, s := testConfig(t)
	writeFile(t, filepath.Join(cfg.Templates, "post.html"),
		[]byte(`{{define "content"}}<article class="custom">{{.Entry.Title}}</article>{{end}}`))
	s.post(t, "hello", "title: Hello", "Hi")

	if _, err := Generate(context.Background(), cfg); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(s.read(t, "blog/hello/index.html"), `<article class="custom">Hello</article>`) {
		t.Error("custom post template not used")
	}
}

func TestGenerate_Minify(t *testing.T) {
	t.Parallel()

	cfg, s := testConfig(t)
	cfg.Minify = true
	s.post(t, "hello", "title: Hello", "Hi")

	if _, err := Generate(context.Background(), cfg); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.output, "assets", "css", "style.min.css")); err != nil {
		t.Errorf("minified stylesheet missing: %v", err)
	}
}

func TestGenerate_FailureThreshold(t *testing.T) {
	t.Parallel()

	cfg, s := testConfig(t)
	s.post(t, "bad", "title: [unclosed", "x")
	s.post(t, "good", "title: Good", "ok")

	report, err := Generate(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !errors.Is(report.Err(ThresholdOf(cfg)), ErrThresholdExceeded) {
		t.Error("default threshold must fail on any failure")
	}
	cfg.FailureThreshold.MaxFailures = 1
	if err := report.Err(ThresholdOf(cfg)); err != nil {
		t.Errorf("lenient threshold: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.output, "blog", "good", "index.html")); err != nil {
		t.Errorf("good post missing: %v", err)
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing content dir", func(t *testing.T) {
		t.Parallel()
		cfg, _ := testConfig(t)
		cfg.Content = filepath.Join(t.TempDir(), "nope")
		if _, err := Generate(context.Background(), cfg); !errors.Is(err, ErrContentDirNotFound) {
			t.Errorf("error = %v, want ErrContentDirNotFound", err)
		}
	})

	t.Run("bad image format", func(t *testing.T) {
		t.Parallel()
		cfg, _ := testConfig(t)
		cfg.Images.Format = "svg"
		if _, err := Generate(context.Background(), cfg); err == nil {
			t.Error("expected error for unsupported image format")
		}
	})
}

func TestImagePolicy(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Security.MaxDownloadBytes = 1 << 20
	cfg.Security.RequestTimeout = 5 * time.Second
	cfg.Security.MaxRedirects = -1

	p := ImagePolicy(cfg)
	if p.MaxBytes != 1<<20 || p.Timeout != 5*time.Second || p.MaxRedirects != -1 {
		t.Errorf("policy = %+v", p)
	}
	if len(p.AllowedMIMETypes) == 0 {
		t.Error("MIME allow-list empty")
	}
}

func TestImagePipeline_StrategyOrder(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	if got := ImagePipeline(cfg, nil).Strategies(); len(got) != 1 || got[0] != "native" {
		t.Errorf("nil runner = %v", got)
	}
}
