// Package dateutil parses front matter dates and formats them for display.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors.
var (
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrInvalidDate       = errors.New("invalid date")
)

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 50

// DefaultDateFormat renders dates as "March 05, 2024".
const DefaultDateFormat = "MMMM DD, YYYY"

// dateTokens maps user-friendly tokens to Go time format components.
// Ordered by length descending for greedy matching.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"dddd", "Monday"},
	{"MMM", "Jan"},
	{"ddd", "Mon"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets provides named shortcuts for common date formats.
var DatePresets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
}

// inputLayouts are the accepted string forms of a front matter date.
var inputLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDateFormat turns a token format such as "MMMM D, YYYY" into a Go
// layout. Tokens are YYYY, YY, MMMM, MMM, MM, M, DD, D, dddd, ddd, HH and mm;
// longest match wins. Text inside [brackets] is copied literally and any
// other character passes through unchanged.
func ParseDateFormat(format string) (string, error) {
	switch {
	case format == "":
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	case len(format) > MaxDateFormatLength:
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var layout strings.Builder
	for rest := format; rest != ""; {
		if rest[0] == '[' {
			literal, after, ok := strings.Cut(rest[1:], "]")
			if !ok {
				pos := len(format) - len(rest)
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, pos)
			}
			layout.WriteString(literal)
			rest = after
			continue
		}
		rest = writeToken(&layout, rest)
	}
	return layout.String(), nil
}

// writeToken emits the Go form of the token at the start of s, or its first
// byte when no token matches, and returns what is left.
func writeToken(b *strings.Builder, s string) string {
	for _, t := range dateTokens {
		if after, ok := strings.CutPrefix(s, t.token); ok {
			b.WriteString(t.goFmt)
			return after
		}
	}
	b.WriteByte(s[0])
	return s[1:]
}

// Layout resolves a preset name or a token format into a Go layout.
// An empty format yields DefaultDateFormat.
func Layout(format string) (string, error) {
	if strings.TrimSpace(format) == "" {
		format = DefaultDateFormat
	}
	if preset, ok := DatePresets[strings.ToLower(format)]; ok {
		format = preset
	}
	return ParseDateFormat(format)
}

// Format renders t with a preset name or token format.
func Format(t time.Time, format string) (string, error) {
	layout, err := Layout(format)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

// Parse converts a front matter value to a time. YAML decoders hand over
// either a time.Time or a string; both are accepted.
func Parse(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case *time.Time:
		if d == nil {
			return time.Time{}, fmt.Errorf("%w: nil", ErrInvalidDate)
		}
		return *d, nil
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range inputLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, d)
	case nil:
		return time.Time{}, fmt.Errorf("%w: missing", ErrInvalidDate)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, v)
	}
}
