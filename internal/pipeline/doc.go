// Package pipeline implements the markdown stage of content rendering.
//
// It covers three steps that run inside a build worker:
//   - Markdown preprocessing (line normalization, highlight syntax)
//   - Markdown to HTML fragment conversion via Goldmark
//   - Image reference collection and rewriting on the HTML DOM
//
// Template rendering is handled by the render package. Fetching and
// converting the referenced images is the orchestrator's job; this package
// only finds the references and substitutes the localized paths.
package pipeline
