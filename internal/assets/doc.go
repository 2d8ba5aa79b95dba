// Package assets provides the HTML templates and stylesheet used to render
// a site.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (default theme)
//	    ├── FilesystemLoader  - loads from the user's templates directory
//	    └── AssetResolver     - combines both with custom-first fallback
//
// The embedded theme always provides base, post, page, index, 404 and
// redirect templates, so a site builds without any templates directory.
// Users override a template by placing a file with the same name in their
// templates directory, and add variants such as post-wide.html or
// page-blog.html that only exist on disk.
//
// # Directory Structure
//
//	{templates}/
//	├── base.html          # layout, defines "base"
//	├── post.html          # defines "content" for posts
//	├── post-{name}.html   # optional per-post variant
//	├── page.html
//	├── page-{name}.html
//	├── index.html
//	└── 404.html
//
// # Security
//
// Template names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within its base.
package assets
