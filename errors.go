package stattic

import (
	"context"
	"errors"
	"io/fs"

	"github.com/alnah/go-stattic/internal/content"
	"github.com/alnah/go-stattic/internal/fetch"
	"github.com/alnah/go-stattic/internal/imageconv"
	"github.com/alnah/go-stattic/internal/pathsafe"
	"github.com/alnah/go-stattic/internal/process"
	"github.com/alnah/go-stattic/internal/render"
)

// Error taxonomy. The aliases match errors wrapped by the internal
// packages, so errors.Is works across the whole chain.
var (
	// ErrPolicyRejected covers scheme, host, content type and size violations.
	ErrPolicyRejected = fetch.ErrPolicyRejected

	// ErrNetworkFailure covers DNS, connection and timeout errors.
	ErrNetworkFailure = fetch.ErrNetwork

	// ErrSubprocessFailure covers a missing binary, non-zero exit or timeout.
	ErrSubprocessFailure = process.ErrSubprocess

	// ErrDecodeFailure covers corrupt or unsupported image bytes.
	ErrDecodeFailure = imageconv.ErrDecode

	// ErrPathTraversal is a write target outside its root. Never recovered.
	ErrPathTraversal = pathsafe.ErrPathTraversal

	ErrFilesystemFailure = errors.New("filesystem failure")
	ErrFrontMatter       = content.ErrFrontMatter
	ErrRender            = render.ErrRender

	// ErrIncomplete marks entities left unfinished by cancellation or the
	// global build timeout.
	ErrIncomplete = errors.New("build incomplete")

	// ErrThresholdExceeded is returned by Report.Err when failures exceed
	// the configured threshold.
	ErrThresholdExceeded = errors.New("failure threshold exceeded")

	ErrContentDirNotFound = errors.New("content directory not found")
)

// Reason is the typed cause recorded for a failed entity or image.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonPolicyRejected Reason = "policy_rejected"
	ReasonNetwork        Reason = "network_failure"
	ReasonSubprocess     Reason = "subprocess_failure"
	ReasonDecode         Reason = "decode_failure"
	ReasonPathTraversal  Reason = "path_traversal"
	ReasonFilesystem     Reason = "filesystem_failure"
	ReasonFrontMatter    Reason = "front_matter"
	ReasonRender         Reason = "render_failure"
	ReasonIncomplete     Reason = "incomplete"
	ReasonUnknown        Reason = "unknown"
)

// Classify maps err to a Reason. Path traversal wins over every other
// cause; a conversion that failed in every strategy classifies as a
// decode failure when decoding was among the causes.
func Classify(err error) Reason {
	var pathErr *fs.PathError
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrPathTraversal), errors.Is(err, pathsafe.ErrUnsafeName):
		return ReasonPathTraversal
	case errors.Is(err, ErrPolicyRejected):
		return ReasonPolicyRejected
	case errors.Is(err, ErrNetworkFailure):
		return ReasonNetwork
	case errors.Is(err, ErrDecodeFailure), errors.Is(err, imageconv.ErrEncode), errors.Is(err, imageconv.ErrNoStrategy):
		return ReasonDecode
	case errors.Is(err, ErrSubprocessFailure):
		return ReasonSubprocess
	case errors.Is(err, ErrFrontMatter):
		return ReasonFrontMatter
	case errors.Is(err, ErrRender):
		return ReasonRender
	case errors.Is(err, ErrIncomplete), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonIncomplete
	case errors.Is(err, ErrFilesystemFailure), errors.As(err, &pathErr):
		return ReasonFilesystem
	default:
		return ReasonUnknown
	}
}
