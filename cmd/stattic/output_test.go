package main

// Notes:
// - printReport: we build reports by hand to cover every status, the
//   quiet/verbose switches and hint selection, without running a build.
// - DefaultEnv: we only check that production dependencies are wired.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"strings"
	"testing"
	"time"

	stattic "github.com/alnah/go-stattic"
)

func sampleReport() *stattic.Report {
	return &stattic.Report{
		Elapsed: 1500 * time.Millisecond,
		Entities: []stattic.EntityRecord{
			{
				ID: "pages/about.md", Status: stattic.StatusSucceeded, OutputPath: "output/about/index.html",
				Duration: 12 * time.Millisecond, Worker: 2,
				Images: []stattic.ImageRecord{{
					Ref: "http://169.254.169.254/x.png", Status: stattic.ImageFailed,
					Reason: stattic.ReasonPolicyRejected, Err: errors.New("policy rejected: link-local address"),
				}},
			},
			{ID: "posts/bad.md", Status: stattic.StatusFailed, Reason: stattic.ReasonFrontMatter, Err: errors.New("invalid front matter")},
			{ID: "posts/draft.md", Status: stattic.StatusSkipped},
			{ID: "posts/slow.md", Status: stattic.StatusIncomplete, Reason: stattic.ReasonIncomplete, Err: errors.New("context deadline exceeded")},
		},
	}
}

// ---------------------------------------------------------------------------
// TestPrintReport - Report rendering
// ---------------------------------------------------------------------------

func TestPrintReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		quiet      bool
		verbose    bool
		wantStdout []string
		notStdout  []string
		wantStderr []string
		notStderr  []string
	}{
		{
			name:       "default",
			wantStdout: []string{"failed: 1 succeeded, 1 failed, 1 incomplete, 1 skipped in 1.5s"},
			notStdout:  []string{"->", "skipped (draft)"},
			wantStderr: []string{
				"FAILED posts/bad.md [front_matter]: invalid front matter",
				"FAILED posts/slow.md [incomplete]",
				"hint: for large sites, raise build_timeout",
				"WARN pages/about.md: image http://169.254.169.254/x.png kept as is [policy_rejected]",
				"hint: only public http(s) hosts are fetched",
			},
		},
		{
			name:       "verbose",
			verbose:    true,
			wantStdout: []string{"pages/about.md -> output/about/index.html (12ms, worker 2)", "posts/draft.md skipped (draft)"},
		},
		{
			name:       "quiet",
			quiet:      true,
			notStdout:  []string{"succeeded"},
			wantStderr: []string{"FAILED posts/bad.md"},
			notStderr:  []string{"WARN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(t)
			printReport(env, sampleReport(), stattic.Threshold{MaxFailures: -1}, tt.quiet, tt.verbose)

			for _, want := range tt.wantStdout {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout should contain %q, got:\n%s", want, stdout.String())
				}
			}
			for _, not := range tt.notStdout {
				if strings.Contains(stdout.String(), not) {
					t.Errorf("stdout should not contain %q, got:\n%s", not, stdout.String())
				}
			}
			for _, want := range tt.wantStderr {
				if !strings.Contains(stderr.String(), want) {
					t.Errorf("stderr should contain %q, got:\n%s", want, stderr.String())
				}
			}
			for _, not := range tt.notStderr {
				if strings.Contains(stderr.String(), not) {
					t.Errorf("stderr should not contain %q, got:\n%s", not, stderr.String())
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestHintFor - Reason to hint mapping
// ---------------------------------------------------------------------------

func TestHintFor(t *testing.T) {
	t.Parallel()

	if hintFor(stattic.ReasonPolicyRejected) == "" {
		t.Error("policy rejections should carry a hint")
	}
	if hintFor(stattic.ReasonIncomplete) == "" {
		t.Error("incomplete entities should carry a hint")
	}
	if got := hintFor(stattic.ReasonFrontMatter); got != "" {
		t.Errorf("front matter hint = %q, want none", got)
	}
}

// ---------------------------------------------------------------------------
// TestDefaultEnv - Production wiring
// ---------------------------------------------------------------------------

func TestDefaultEnv(t *testing.T) {
	t.Parallel()

	env := DefaultEnv()
	if env.Now == nil || env.Stdout == nil || env.Stderr == nil || env.LookPath == nil {
		t.Errorf("DefaultEnv has nil dependencies: %+v", env)
	}
	if env.Dir != "." {
		t.Errorf("Dir = %q, want working directory", env.Dir)
	}
}
