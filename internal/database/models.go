package database

import (
	"time"

	"vsgtalent-backend/internal/mediatypes"
)

// ContentItem is one stored post, evenement, or sponsor.
type ContentItem struct {
	ID                   int64                  `json:"id"`
	Type                 mediatypes.ContentType `json:"type"`
	Slug                 string                 `json:"slug"`
	Title                string                 `json:"title"`
	Excerpt              string                 `json:"excerpt"`
	Body                 string                 `json:"body"`
	Status               string                 `json:"status"`
	FeaturedAttachmentID *int64                 `json:"featuredAttachmentId,omitempty"`
	PublishedAt          *time.Time             `json:"publishedAt,omitempty"`
	CreatedAt            time.Time              `json:"createdAt"`
	UpdatedAt            time.Time              `json:"updatedAt"`
}

// Attachment is one stored media file with its generated labels.
type Attachment struct {
	ID          int64                `json:"id"`
	ContentID   *int64               `json:"contentId,omitempty"`
	Path        string               `json:"path"`
	MimeType    string               `json:"mimeType"`
	MediaType   mediatypes.MediaType `json:"mediaType"`
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	Title       string               `json:"title"`
	AltText     string               `json:"altText"`
	Caption     string               `json:"caption"`
	Description string               `json:"description"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// Term is one taxonomy term.
type Term struct {
	ID       int64  `json:"id"`
	Taxonomy string `json:"taxonomy"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
}

// ListOptions holds the supported collection query parameters.
type ListOptions struct {
	Type    mediatypes.ContentType
	Slug    string
	PerPage int
	Page    int
	OrderBy mediatypes.SortField
	Order   mediatypes.SortOrder
}

// DefaultPerPage matches the platform convention for unpaginated requests.
const DefaultPerPage = 10

// MaxPerPage caps a single collection page.
const MaxPerPage = 100

// Normalize clamps paging values and fills in defaults.
func (o ListOptions) Normalize() ListOptions {
	if o.PerPage <= 0 {
		o.PerPage = DefaultPerPage
	}
	if o.PerPage > MaxPerPage {
		o.PerPage = MaxPerPage
	}
	if o.Page <= 0 {
		o.Page = 1
	}
	if o.OrderBy == "" {
		o.OrderBy = mediatypes.SortByDate
	}
	if o.Order == "" {
		o.Order = mediatypes.SortDesc
	}
	return o
}
