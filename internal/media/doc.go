// Package media implements the upload-time image pipeline: aspect-ratio
// crop planning, format re-encoding with ordered fallback (AVIF, WebP,
// JPEG), and SEO label and filename generation for attachments.
//
// libvips does the heavy lifting when available; a pure-Go JPEG path based
// on the imaging library keeps uploads working without it. Every transform
// fails open: a broken encode never blocks an upload.
package media
