// Package metrics records build metrics.
//
// The Recorder interface keeps the builder free of any metrics backend.
// NoopRecorder is the default; PrometheusRecorder registers collectors on a
// private registry and can dump them in the text exposition format for a
// node_exporter textfile collector, since a static build has no long-lived
// process to scrape.
package metrics
