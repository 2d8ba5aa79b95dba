// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"runtime"
	"strings"

	"github.com/alnah/go-stattic/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// GOOS is swapped by tests.
var GOOS = runtime.GOOS

// ForConverterMissing returns install hints for a missing image tool.
// Builds still succeed through the native fallback.
func ForConverterMissing(binary string) string {
	if binary != "gif2webp" {
		return format("install " + binary + " or remove it from security.allowed_binaries")
	}

	var hints []string
	switch {
	case IsInContainer():
		hints = append(hints, "add the webp package to the image (apt-get install webp / apk add libwebp-tools)")
	case GOOS == "darwin":
		hints = append(hints, "brew install webp")
	case GOOS == "windows":
		hints = append(hints, "download libwebp from developers.google.com/speed/webp and add bin/ to PATH")
	default:
		hints = append(hints, "install the webp package (apt-get install webp / dnf install libwebp-tools)")
	}
	hints = append(hints, "animated GIFs keep their first frame until then")

	return formatHints(hints)
}

// ForPolicyRejected explains why a remote image was left as is.
func ForPolicyRejected() string {
	return format("only public http(s) hosts are fetched; private, loopback and metadata addresses are refused")
}

// ForTimeout returns a hint about raising the build deadline.
func ForTimeout() string {
	return format("for large sites, raise build_timeout or pass --timeout")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and "stattic init".
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/stattic.yml or run \"stattic init\""
	if len(searchedPaths) > 0 {
		hint += " (searched " + strings.Join(searchedPaths, ", ") + ")"
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForTemplateNotFound lists the templates that can be used.
func ForTemplateNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForProxy suggests proxy settings when outbound requests fail.
func ForProxy() string {
	if os.Getenv("HTTPS_PROXY") != "" || os.Getenv("https_proxy") != "" {
		return ""
	}
	return format("behind a proxy, set HTTPS_PROXY")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
