package config

import (
	"fmt"

	"github.com/alnah/go-stattic/internal/yamlutil"
)

// Sample formats accepted by Sample.
var SampleFormats = []string{"yml", "yaml", "json"}

const sampleHeader = `# Stattic site configuration.
# Every key is optional; the values below are the defaults.
`

// Sample returns a starter config in the given format, with the site
// fields filled in so the file is useful as is.
func Sample(format string) ([]byte, error) {
	cfg := DefaultConfig()
	cfg.SiteTitle = "My Stattic Site"
	cfg.SiteTagline = "A fast, simple static site"
	cfg.SiteURL = "https://example.com"
	cfg.Assets = "assets"
	cfg.Fonts = []string{"Quicksand"}

	switch format {
	case "yml", "yaml":
		out, err := yamlutil.Marshal(cfg)
		if err != nil {
			return nil, err
		}
		return append([]byte(sampleHeader), out...), nil
	case "json":
		out, err := yamlutil.MarshalJSON(cfg)
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: format %q (use yml, yaml or json)", ErrInvalidValue, format)
	}
}

// SampleFileName returns the config file name for format.
func SampleFileName(format string) string {
	return "stattic." + format
}
