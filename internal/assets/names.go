package assets

// Template names, without the .html extension.
const (
	TemplateBase     = "base"
	TemplatePost     = "post"
	TemplatePage     = "page"
	TemplateIndex    = "index"
	TemplateNotFound = "404"
	TemplateRedirect = "redirect"

	// Optional user templates that change how the blog page is built.
	TemplateBlog = "page-blog"
	TemplateHome = "page-home"
)

// DefaultStyleName is the name of the built-in stylesheet.
const DefaultStyleName = "style"

// TemplateExt is the file extension of templates on disk.
const TemplateExt = ".html"
