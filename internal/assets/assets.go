package assets

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a CSS file by name using the default embedded loader.
// Returns ErrStyleNotFound if the style does not exist.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// DefaultStylesheet returns the stylesheet written when a site has no
// assets directory of its own.
func DefaultStylesheet() string {
	css, err := defaultLoader.LoadStyle(DefaultStyleName)
	if err != nil {
		return ""
	}
	return css
}

// LoadTemplate loads an embedded template by name.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// TemplateNames lists the embedded templates.
func TemplateNames() []string {
	return defaultLoader.TemplateNames()
}
