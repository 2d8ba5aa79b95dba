package assets

import (
	"errors"

	"github.com/alnah/go-stattic/internal/pathsafe"
)

// Sentinel errors for theme loading.
var (
	ErrStyleNotFound = errors.New("style not found")

	// ErrTemplateNotFound is returned for a missing layout. Callers use it
	// to fall back from post-<name> to post.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidAssetName rejects names that are not a single file stem.
	ErrInvalidAssetName = errors.New("invalid asset name")

	ErrInvalidBasePath = errors.New("invalid templates directory")
	ErrAssetRead       = errors.New("failed to read template")

	// ErrPathTraversal is shared with the rest of the build so a template
	// symlinked out of the templates directory classifies like any other
	// escape.
	ErrPathTraversal = pathsafe.ErrPathTraversal
)
