package pathsafe

import (
	"net/url"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxStemLength keeps generated names short enough for a hash suffix and extension.
const maxStemLength = 64

// Slug lowercases s, folds accents to ASCII and joins runs of other
// characters with single hyphens. "Café Crème!" becomes "cafe-creme".
func Slug(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(folded)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// Stem derives a filesystem-safe stem from the last element of a URL or
// path, without its extension. Empty results fall back to "image".
func Stem(ref string) string {
	p := ref
	if u, err := url.Parse(ref); err == nil {
		p = u.Path
	}
	p = strings.ReplaceAll(p, "\\", "/")
	base := path.Base(p)
	base = strings.TrimSuffix(base, path.Ext(base))

	stem := Slug(base)
	if len(stem) > maxStemLength {
		stem = strings.TrimRight(stem[:maxStemLength], "-")
	}
	if stem == "" {
		return "image"
	}
	return stem
}

// Ext returns the lowercase extension of a URL or path without the dot.
func Ext(ref string) string {
	p := ref
	if u, err := url.Parse(ref); err == nil {
		p = u.Path
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}
