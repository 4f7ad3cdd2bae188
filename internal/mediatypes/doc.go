// Package mediatypes defines the content and media type tables shared by
// the store, the media pipeline, and the REST handlers.
package mediatypes
