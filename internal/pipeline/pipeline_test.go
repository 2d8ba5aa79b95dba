package pipeline

// Notes:
// - Markdown tests assert on fragments of goldmark output, not exact markup,
//   so minor renderer changes do not break them
// - Image reference tests go through the public Collect/Rewrite API; the
//   srcset helpers are covered through it, including comma-bearing CDN URLs
// - parseHTML/renderHTML error branches are not exercised: x/net/html does
//   not fail on string input

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestGoldmarkConverter
// ---------------------------------------------------------------------------

func TestGoldmarkConverter_ToHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "heading with id",
			input:        "# Hello World",
			wantContains: []string{`<h1 id="hello-world">Hello World</h1>`},
		},
		{
			name:         "fragment only",
			input:        "text",
			wantContains: []string{"<p>text</p>"},
			wantExcludes: []string{"<html", "<body", "<!DOCTYPE"},
		},
		{
			name:         "image",
			input:        "![alt](https://example.com/a.png)",
			wantContains: []string{`<img src="https://example.com/a.png" alt="alt"`},
		},
		{
			name:         "raw html kept",
			input:        "<figure><img src=\"x.png\"></figure>",
			wantContains: []string{`<figure><img src="x.png"></figure>`},
		},
		{
			name:         "table",
			input:        "| a | b |\n|---|---|\n| 1 | 2 |",
			wantContains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:         "highlight",
			input:        "some ==marked== text",
			wantContains: []string{"<mark>marked</mark>"},
		},
		{
			name:         "code block uses classes",
			input:        "```go\nfunc main() {}\n```",
			wantContains: []string{`class="chroma"`},
			wantExcludes: []string{"style=\"color"},
		},
	}

	c := NewGoldmarkConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := c.ToHTML(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ToHTML() error = %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q\ngot: %s", want, got)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("output should not contain %q\ngot: %s", exclude, got)
				}
			}
		})
	}
}

func TestGoldmarkConverter_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGoldmarkConverter().ToHTML(ctx, "# title")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ToHTML() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestPreprocessMarkdown
// ---------------------------------------------------------------------------

func TestPreprocessMarkdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"highlight", "==x==", MarkStartPlaceholder + "x" + MarkEndPlaceholder},
		{"fenced code untouched", "```\nif a == b == c {}\n```", "```\nif a == b == c {}\n```"},
		{"no highlight across lines", "a ==\nb==", "a ==\nb=="},
	}

	p := &CommonMarkPreprocessor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := p.PreprocessMarkdown(context.Background(), tt.input); got != tt.want {
				t.Errorf("PreprocessMarkdown() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestCollectImageRefs
// ---------------------------------------------------------------------------

func TestCollectImageRefs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "img src",
			html: `<p><img src="https://a.example/x.png"></p>`,
			want: []string{"https://a.example/x.png"},
		},
		{
			name: "srcset candidates",
			html: `<img src="a.png" srcset="a.png 1x, b.png 2x">`,
			want: []string{"a.png", "b.png"},
		},
		{
			name: "comma inside srcset url",
			html: `<img src="a.png" srcset="https://res.example.com/upload/w_100,h_100/b.png 2x">`,
			want: []string{"a.png", "https://res.example.com/upload/w_100,h_100/b.png"},
		},
		{
			name: "srcset trailing comma and parenthesized descriptor",
			html: `<img srcset="a.png, b.png 2x, c.png (x, y) 3x, d.png">`,
			want: []string{"a.png", "b.png", "c.png", "d.png"},
		},
		{
			name: "picture source",
			html: `<picture><source srcset="c.webp"><img src="c.jpg"></picture>`,
			want: []string{"c.webp", "c.jpg"},
		},
		{
			name: "image links only",
			html: `<a href="big.JPG?v=1">x</a><a href="/about/">y</a><a href="doc.pdf">z</a>`,
			want: []string{"big.JPG?v=1"},
		},
		{
			name: "duplicates collapsed",
			html: `<img src="d.png"><img src="d.png">`,
			want: []string{"d.png"},
		},
		{
			name: "non-localizable skipped",
			html: `<img src="data:image/png;base64,AA"><img src=""><a href="#top.png">x</a>`,
			want: nil,
		},
		{
			name: "plain text",
			html: "no markup",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := CollectImageRefs(tt.html)
			if err != nil {
				t.Fatalf("CollectImageRefs() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CollectImageRefs() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRewriteImageRefs
// ---------------------------------------------------------------------------

func TestRewriteImageRefs(t *testing.T) {
	t.Parallel()

	replace := map[string]string{
		"https://a.example/x.png": "../../images/x.webp",
		"b.png":                   "../../images/b.webp",
		"big.jpg":                 "../../images/big.webp",
	}

	tests := []struct {
		name         string
		html         string
		wantContains []string
	}{
		{
			name:         "img src",
			html:         `<p><img src="https://a.example/x.png" alt="x"></p>`,
			wantContains: []string{`<img src="../../images/x.webp" alt="x"/>`},
		},
		{
			name:         "srcset keeps descriptors and unmapped entries",
			html:         `<img srcset="a.png 1x, b.png 2x">`,
			wantContains: []string{`srcset="a.png 1x, ../../images/b.webp 2x"`},
		},
		{
			name:         "srcset comma url kept as written",
			html:         `<img src="b.png" srcset="https://res.example.com/upload/w_100,h_100/b.png 2x">`,
			wantContains: []string{`src="../../images/b.webp"`, `srcset="https://res.example.com/upload/w_100,h_100/b.png 2x"`},
		},
		{
			name:         "srcset separators preserved around replacement",
			html:         `<img srcset="a.png 1x,b.png 2x">`,
			wantContains: []string{`srcset="a.png 1x,../../images/b.webp 2x"`},
		},
		{
			name:         "image link",
			html:         `<a href="big.jpg"><img src="b.png"></a>`,
			wantContains: []string{`href="../../images/big.webp"`, `src="../../images/b.webp"`},
		},
		{
			name:         "unmapped untouched",
			html:         `<img src="https://other.example/y.png">`,
			wantContains: []string{`src="https://other.example/y.png"`},
		},
		{
			name:         "full document stays a document",
			html:         `<!DOCTYPE html><html><body><img src="b.png"></body></html>`,
			wantContains: []string{"<!DOCTYPE html>", `src="../../images/b.webp"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RewriteImageRefs(tt.html, replace)
			if err != nil {
				t.Fatalf("RewriteImageRefs() error = %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q\ngot: %s", want, got)
				}
			}
		})
	}
}

func TestRewriteImageRefs_EmptyMapReturnsInput(t *testing.T) {
	t.Parallel()

	in := `<img src="a.png">`
	got, err := RewriteImageRefs(in, nil)
	if err != nil {
		t.Fatalf("RewriteImageRefs() error = %v", err)
	}
	if got != in {
		t.Errorf("RewriteImageRefs() = %q, want input unchanged", got)
	}
}
