package mediatypes

// MediaType distinguishes the two kinds of gallery media.
type MediaType string

const (
	// MediaTypeImage represents an image attachment.
	MediaTypeImage MediaType = "image"
	// MediaTypeVideo represents a video attachment.
	MediaTypeVideo MediaType = "video"
	// MediaTypeOther represents an unsupported attachment type.
	MediaTypeOther MediaType = "other"
)

// ContentType identifies a stored content item kind.
type ContentType string

const (
	// ContentTypePost is a news article.
	ContentTypePost ContentType = "post"
	// ContentTypeEvent is a race calendar entry.
	ContentTypeEvent ContentType = "evenement"
	// ContentTypeSponsor is a sponsor profile.
	ContentTypeSponsor ContentType = "sponsor"
)

// RestBases maps REST collection path segments to content types,
// mirroring the rest_base naming the frontends already use.
var RestBases = map[string]ContentType{
	"posts":       ContentTypePost,
	"evenementen": ContentTypeEvent,
	"sponsors":    ContentTypeSponsor,
}

// Taxonomies lists the registered flat taxonomies.
var Taxonomies = []string{"competitie", "seizoen"}

// IsTaxonomy reports whether name is a registered taxonomy.
func IsTaxonomy(name string) bool {
	for _, t := range Taxonomies {
		if t == name {
			return true
		}
	}
	return false
}

// SortField specifies which field to sort content listings by.
type SortField string

// SortOrder specifies the direction of sorting.
type SortOrder string

const (
	// SortByDate sorts by publish date.
	SortByDate SortField = "date"
	// SortByTitle sorts by title.
	SortByTitle SortField = "title"
	// SortBySlug sorts by slug.
	SortBySlug SortField = "slug"

	// SortAsc sorts in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts in descending order.
	SortDesc SortOrder = "desc"
)

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
	".m4v":  true,
	".mkv":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",

	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
}

// GetMediaType returns the MediaType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
func GetMediaType(ext string) MediaType {
	if ImageExtensions[ext] {
		return MediaTypeImage
	}
	if VideoExtensions[ext] {
		return MediaTypeVideo
	}
	return MediaTypeOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
