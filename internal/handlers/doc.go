// Package handlers implements the HTTP surface: the WordPress-compatible
// content and media API the frontends consume, the admin maintenance
// actions, password and passkey authentication, and health/version probes.
package handlers
