// Package stattic builds a static website from a directory of Markdown
// posts and pages.
//
// # Quick Start
//
// Load a configuration and generate the site:
//
//	cfg, _, err := config.Resolve("", ".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := stattic.Generate(ctx, cfg, stattic.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := report.Err(stattic.ThresholdOf(cfg)); err != nil {
//	    log.Fatal(err)
//	}
//
// # Build Pipeline
//
// Generate copies assets, localizes fonts, then hands every content file
// to a Builder. Each worker of the Builder:
//
//  1. Loads the entity and its front matter
//  2. Converts Markdown to HTML via Goldmark
//  3. Localizes referenced images (fetch, convert, write under images/)
//  4. Rewrites the references that were localized
//  5. Renders the entity template and writes index.html
//
// Once every worker has reported, the index, blog page, feed, sitemap,
// robots.txt, llms.txt and 404 page are assembled from the merged records.
//
// # Isolation
//
// Each worker owns its HTTP client and Markdown converter. Settings,
// shared author/category/tag data and the template renderer are read
// only. Images are coordinated by a single store so a URL referenced by
// several entities is fetched and converted once.
//
// # Failures
//
// Image problems never fail an entity: the original reference is kept
// and the record carries a typed Reason (see Classify). Entity failures
// never stop siblings. Report.Err applies the configured Threshold.
package stattic
