package fetch

import (
	"mime"
	"net/http"
	"slices"
	"strings"
	"time"
)

// Policy defaults.
const (
	DefaultMaxBytes     = 10 << 20
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 5
	DefaultUserAgent    = "Stattic/1.0.0 (Static Site Generator)"

	// MaxURLLength bounds the raw URL accepted by Fetch.
	MaxURLLength = 2048
)

// Policy governs what a Fetcher may download.
type Policy struct {
	MaxBytes         int64         // body ceiling, enforced while streaming
	Timeout          time.Duration // connect + read, whole request
	AllowedMIMETypes []string      // media types accepted from Content-Type
	AllowedDomains   []string      // when non-empty, hosts must equal or be subdomains of one entry
	MaxRedirects     int           // 0 means default, negative disables redirects
	UserAgent        string
}

// ImageMIMETypes returns the media types accepted for images by default.
func ImageMIMETypes() []string {
	return []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
		"image/bmp",
		"image/tiff",
	}
}

// DefaultPolicy returns the image download policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxBytes:         DefaultMaxBytes,
		Timeout:          DefaultTimeout,
		AllowedMIMETypes: ImageMIMETypes(),
		MaxRedirects:     DefaultMaxRedirects,
		UserAgent:        DefaultUserAgent,
	}
}

// FontPolicy returns the policy used for Google Fonts stylesheets and font files.
func FontPolicy() Policy {
	p := DefaultPolicy()
	p.AllowedMIMETypes = []string{"text/css", "font/woff2", "font/woff", "application/font-woff2"}
	p.AllowedDomains = []string{"fonts.googleapis.com", "fonts.gstatic.com"}
	return p
}

// withDefaults fills every unset field with its safe default.
func (p Policy) withDefaults() Policy {
	if p.MaxBytes <= 0 {
		p.MaxBytes = DefaultMaxBytes
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	if len(p.AllowedMIMETypes) == 0 {
		p.AllowedMIMETypes = ImageMIMETypes()
	} else {
		p.AllowedMIMETypes = normalizeAll(p.AllowedMIMETypes)
	}
	p.AllowedDomains = normalizeAll(p.AllowedDomains)
	if p.MaxRedirects == 0 {
		p.MaxRedirects = DefaultMaxRedirects
	}
	if strings.TrimSpace(p.UserAgent) == "" {
		p.UserAgent = DefaultUserAgent
	}
	return p
}

// mediaType extracts the lowercase media type from a Content-Type header.
// It returns "" when the header is missing or malformed.
func mediaType(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

func (p Policy) allowsMIME(mt string) bool {
	return mt != "" && slices.Contains(p.AllowedMIMETypes, mt)
}

func (p Policy) allowsDomain(host string) bool {
	if len(p.AllowedDomains) == 0 {
		return true
	}
	for _, d := range p.AllowedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// agreesWithBody checks the declared media type against the sniffed one.
// Undetermined sniffs (octet-stream, plain text) pass, as do sniffs in the
// same top-level family or on the allow-list. Markup never passes under
// another declared type. It returns the sniffed type.
func (p Policy) agreesWithBody(declared string, body []byte) (string, bool) {
	sniffed := mediaType(http.DetectContentType(body))
	switch {
	case sniffed == declared, sniffed == "application/octet-stream", sniffed == "text/plain":
		return sniffed, true
	case sniffed == "text/html", sniffed == "text/xml":
		return sniffed, false
	case p.allowsMIME(sniffed):
		return sniffed, true
	}
	family := func(mt string) string {
		top, _, _ := strings.Cut(mt, "/")
		return top
	}
	return sniffed, family(sniffed) == family(declared)
}
