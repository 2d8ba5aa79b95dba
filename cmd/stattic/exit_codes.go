package main

import (
	"context"
	"errors"
	"os"

	stattic "github.com/alnah/go-stattic"
	"github.com/alnah/go-stattic/internal/config"
	"github.com/alnah/go-stattic/internal/dateutil"
	"github.com/alnah/go-stattic/internal/imageconv"
)

// Exit codes for the stattic CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Site built within the failure threshold
	ExitGeneral = 1 // Threshold exceeded or unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Missing content, unwritable output
	ExitPartial = 4 // Build stopped by the global timeout or a signal
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Partial builds (exit 4)
	if errors.Is(err, stattic.ErrIncomplete) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return ExitPartial
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, imageconv.ErrUnsupportedFormat) ||
		errors.Is(err, ErrInvalidLogFormat) ||
		errors.Is(err, ErrConflictingFlags) ||
		errors.Is(err, ErrUnexpectedArgs) ||
		errors.Is(err, ErrInvalidFlag) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, stattic.ErrContentDirNotFound) ||
		errors.Is(err, stattic.ErrFilesystemFailure) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	return ExitGeneral
}
