package assets

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateAssetName accepts a bare layout stem such as "post-gallery".
// Separators, dots, colons and control characters are rejected so a name
// can never select a different directory or extension.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, `/\.:`) || strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
