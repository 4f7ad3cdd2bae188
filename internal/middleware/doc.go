// Package middleware provides the HTTP middleware chain: W3C access
// logging, CORS for the frontend origins, gzip compression, and Prometheus
// request metrics.
package middleware
