package main

import (
	"fmt"
	"time"

	stattic "github.com/alnah/go-stattic"
	"github.com/alnah/go-stattic/internal/hints"
)

// printReport outputs build results. Failures always go to stderr;
// per-entity lines are printed only when verbose.
func printReport(env *Environment, r *stattic.Report, t stattic.Threshold, quiet, verbose bool) {
	for _, e := range r.Entities {
		switch e.Status {
		case stattic.StatusFailed, stattic.StatusIncomplete:
			fmt.Fprintf(env.Stderr, "FAILED %s [%s]: %v%s\n", e.ID, e.Reason, e.Err, hintFor(e.Reason))
			continue
		case stattic.StatusSkipped:
			if verbose {
				fmt.Fprintf(env.Stdout, "%s skipped (draft)\n", e.ID)
			}
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v, worker %d)\n", e.ID, e.OutputPath, e.Duration.Round(time.Millisecond), e.Worker)
		}
	}

	if !quiet {
		failed := r.ImageFailures()
		for _, e := range r.Entities {
			for _, img := range failed[e.ID] {
				fmt.Fprintf(env.Stderr, "WARN %s: image %s kept as is [%s]: %v%s\n", e.ID, img.Ref, img.Reason, img.Err, hintFor(img.Reason))
			}
		}
	}

	if quiet {
		return
	}
	fmt.Fprintf(env.Stdout, "\n%s: %s\n", r.Outcome(t), r.Summary())
}

// hintFor returns a remediation hint for a failure reason, if one helps.
func hintFor(reason stattic.Reason) string {
	switch reason {
	case stattic.ReasonPolicyRejected:
		return hints.ForPolicyRejected()
	case stattic.ReasonNetwork:
		return hints.ForProxy()
	case stattic.ReasonIncomplete:
		return hints.ForTimeout()
	default:
		return ""
	}
}
