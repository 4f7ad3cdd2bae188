// Package gallery owns reading, normalizing, and repairing the
// media_gallery and media_videos meta fields on content items.
//
// The stored value drifted through three formats over the years; ParseValue
// is the single tolerant read path. RepairAll is the operator-triggered
// batch job that rewrites stale media URLs across the whole content store.
package gallery
