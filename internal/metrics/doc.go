// Package metrics defines the Prometheus metrics exported by the server.
//
// Metrics are registered via promauto at package load. InitializeMetrics
// pre-populates known label combinations so every series is present from
// the first scrape, and Collector periodically refreshes the content
// library gauges from the database.
package metrics
