// Package database provides SQLite-backed persistence for content items,
// their meta fields, attachments, taxonomy terms, server options, and
// operator authentication (password sessions and passkeys).
//
// The database runs in WAL mode. All exported operations take a context,
// apply their own per-operation timeout, and record query metrics.
package database
