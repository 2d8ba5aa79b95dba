// Package content discovers and parses content entities.
//
// Posts live in <content>/posts and pages in <content>/pages, one Markdown
// file each with optional front matter. Shared reference data (authors,
// categories, tags) comes from YAML files next to those directories and is
// read-only once loaded.
package content
