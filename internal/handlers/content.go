package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"vsgtalent-backend/internal/database"
	"vsgtalent-backend/internal/gallery"
	"vsgtalent-backend/internal/hooks"
	"vsgtalent-backend/internal/logging"
	"vsgtalent-backend/internal/mediatypes"
	"vsgtalent-backend/internal/urlcanon"
)

// RenderedField mirrors the rendered-text envelope the frontends expect.
type RenderedField struct {
	Rendered string `json:"rendered"`
}

// RestContent is one content item in REST response form. Meta carries the
// decoded gallery and video lists plus any plain string meta fields.
type RestContent struct {
	ID            int64                  `json:"id"`
	Date          string                 `json:"date,omitempty"`
	Slug          string                 `json:"slug"`
	Status        string                 `json:"status"`
	Type          string                 `json:"type"`
	Link          string                 `json:"link"`
	Title         RenderedField          `json:"title"`
	Content       RenderedField          `json:"content"`
	Excerpt       RenderedField          `json:"excerpt"`
	FeaturedMedia int64                  `json:"featured_media"`
	Meta          map[string]interface{} `json:"meta"`
	Embedded      map[string]interface{} `json:"_embedded,omitempty"`
}

// MediaURLFilter returns the rest_prepare filter that rewrites every gallery
// and video URL in a response to the canonical media host. It does string
// work only and never fails the request; entries with no usable URL are
// dropped.
func MediaURLFilter(canon *urlcanon.Canonicalizer) hooks.FilterFunc {
	return func(value interface{}, _ ...interface{}) interface{} {
		item, ok := value.(*RestContent)
		if !ok || item.Meta == nil {
			return value
		}
		for _, key := range []string{database.MetaGallery, database.MetaVideos} {
			if urls, ok := item.Meta[key].([]string); ok {
				item.Meta[key] = canon.CanonicalizeAll(urls)
			}
		}
		return item
	}
}

// ListContent serves GET /wp-json/wp/v2/{posts|evenementen|sponsors}.
func (h *Handlers) ListContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contentType, ok := mediatypes.RestBases[mux.Vars(r)["base"]]
	if !ok {
		writeJSONError(w, "Unknown content type", http.StatusNotFound)
		return
	}

	opts := database.ListOptions{
		Type:    contentType,
		Slug:    r.URL.Query().Get("slug"),
		OrderBy: mediatypes.SortField(r.URL.Query().Get("orderby")),
		Order:   mediatypes.SortOrder(r.URL.Query().Get("order")),
	}
	if perPage, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
		opts.PerPage = perPage
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		opts.Page = page
	}
	opts = opts.Normalize()

	items, total, err := h.db.ListContent(ctx, opts)
	if err != nil {
		logging.Error("failed to list %s: %v", contentType, err)
		writeJSONError(w, "Failed to list content", http.StatusInternalServerError)
		return
	}

	embed := r.URL.Query().Has("_embed")
	out := make([]*RestContent, 0, len(items))
	for i := range items {
		out = append(out, h.prepareContent(r, &items[i], embed))
	}

	totalPages := (total + opts.PerPage - 1) / opts.PerPage
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-WP-Total", strconv.Itoa(total))
	w.Header().Set("X-WP-TotalPages", strconv.Itoa(totalPages))
	writeJSON(w, out)
}

// GetContentItem serves GET /wp-json/wp/v2/{base}/{id}.
func (h *Handlers) GetContentItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	contentType, ok := mediatypes.RestBases[vars["base"]]
	if !ok {
		writeJSONError(w, "Unknown content type", http.StatusNotFound)
		return
	}

	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSONError(w, "Invalid id", http.StatusBadRequest)
		return
	}

	item, err := h.db.GetContent(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("failed to get content %d: %v", id, err)
		writeJSONError(w, "Failed to get content", http.StatusInternalServerError)
		return
	}
	if item.Type != contentType {
		writeJSONError(w, "Not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.prepareContent(r, item, r.URL.Query().Has("_embed")))
}

// ListTaxonomyTerms serves GET /wp-json/wp/v2/{competitie|seizoen}.
func (h *Handlers) ListTaxonomyTerms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taxonomy := mux.Vars(r)["taxonomy"]
	if !mediatypes.IsTaxonomy(taxonomy) {
		writeJSONError(w, "Unknown taxonomy", http.StatusNotFound)
		return
	}

	terms, err := h.db.ListTerms(ctx, taxonomy)
	if err != nil {
		logging.Error("failed to list %s terms: %v", taxonomy, err)
		writeJSONError(w, "Failed to list terms", http.StatusInternalServerError)
		return
	}
	if terms == nil {
		terms = []database.Term{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, terms)
}

// SaveContentRequest is the create/update payload for a content item.
type SaveContentRequest struct {
	Slug    string            `json:"slug"`
	Title   string            `json:"title"`
	Excerpt string            `json:"excerpt"`
	Content string            `json:"content"`
	Status  string            `json:"status"`
	Date    string            `json:"date"`
	Meta    map[string]string `json:"meta"`
}

// SaveContent serves POST /wp-json/wp/v2/{base} and POST .../{id}.
func (h *Handlers) SaveContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	contentType, ok := mediatypes.RestBases[vars["base"]]
	if !ok {
		writeJSONError(w, "Unknown content type", http.StatusNotFound)
		return
	}

	var req SaveContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item := &database.ContentItem{
		Type:    contentType,
		Slug:    req.Slug,
		Title:   req.Title,
		Excerpt: req.Excerpt,
		Body:    req.Content,
		Status:  req.Status,
	}
	if item.Status == "" {
		item.Status = "publish"
	}

	// Updating an existing item by id keeps its slug. The store is keyed
	// on (type, slug), so a changed slug would insert a second row instead
	// of updating this one; renames are rejected rather than forked.
	if idStr, hasID := vars["id"]; hasID {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeJSONError(w, "Invalid id", http.StatusBadRequest)
			return
		}
		existing, err := h.db.GetContent(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Not found", http.StatusNotFound)
			return
		}
		if err != nil {
			writeJSONError(w, "Failed to get content", http.StatusInternalServerError)
			return
		}
		if existing.Type != contentType {
			writeJSONError(w, "Not found", http.StatusNotFound)
			return
		}
		if item.Slug != "" && item.Slug != existing.Slug {
			writeJSONError(w, "slug cannot be changed on update", http.StatusBadRequest)
			return
		}
		item.Slug = existing.Slug
		if item.Title == "" {
			item.Title = existing.Title
		}
		item.PublishedAt = existing.PublishedAt
		item.FeaturedAttachmentID = existing.FeaturedAttachmentID
	}

	if item.Slug == "" || item.Title == "" {
		writeJSONError(w, "slug and title are required", http.StatusBadRequest)
		return
	}

	if req.Date != "" {
		if t, err := time.Parse(time.RFC3339, req.Date); err == nil {
			item.PublishedAt = &t
		}
	}
	if item.PublishedAt == nil {
		now := time.Now()
		item.PublishedAt = &now
	}

	id, err := h.db.SaveContent(ctx, item)
	if err != nil {
		logging.Error("failed to save content: %v", err)
		writeJSONError(w, "Failed to save content", http.StatusInternalServerError)
		return
	}

	for key, value := range req.Meta {
		if key == database.MetaGallery || key == database.MetaVideos {
			// Gallery-shaped values go through the tolerant parser so a
			// delimited legacy payload normalizes on write.
			urls := gallery.Sanitize(gallery.ParseValue(value))
			encoded, encErr := gallery.Encode(urls)
			if encErr != nil {
				continue
			}
			value = encoded
		}
		if err := h.db.SetMeta(ctx, id, key, value); err != nil {
			logging.Warn("failed to set meta %q on content %d: %v", key, id, err)
		}
	}

	h.hooks.DoAction(hooks.EventContentSave, id)

	saved, err := h.db.GetContent(ctx, id)
	if err != nil {
		writeJSONError(w, "Failed to read back content", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.prepareContent(r, saved, false))
}

// prepareContent builds the REST response form of one content item and
// threads it through the rest_prepare filter chain.
func (h *Handlers) prepareContent(r *http.Request, item *database.ContentItem, embed bool) *RestContent {
	ctx := r.Context()

	out := &RestContent{
		ID:      item.ID,
		Slug:    item.Slug,
		Status:  item.Status,
		Type:    string(item.Type),
		Link:    fmt.Sprintf("%s/%s/%s/", h.siteURL, restBase(item.Type), item.Slug),
		Title:   RenderedField{Rendered: item.Title},
		Content: RenderedField{Rendered: item.Body},
		Excerpt: RenderedField{Rendered: item.Excerpt},
		Meta:    make(map[string]interface{}),
	}
	if item.PublishedAt != nil {
		out.Date = item.PublishedAt.Format("2006-01-02T15:04:05")
	}
	if item.FeaturedAttachmentID != nil {
		out.FeaturedMedia = *item.FeaturedAttachmentID
	}

	meta, err := h.db.AllMeta(ctx, item.ID)
	if err != nil {
		logging.Warn("failed to read meta for content %d: %v", item.ID, err)
		meta = nil
	}
	for key, value := range meta {
		if key == database.MetaGallery || key == database.MetaVideos {
			out.Meta[key] = gallery.ParseValue(value)
		} else {
			out.Meta[key] = value
		}
	}

	if embed && item.FeaturedAttachmentID != nil {
		if a, err := h.db.GetAttachment(ctx, *item.FeaturedAttachmentID); err == nil {
			out.Embedded = map[string]interface{}{
				"wp:featuredmedia": []interface{}{h.restAttachment(a)},
			}
		}
	}

	filtered := h.hooks.ApplyFilters(hooks.EventRestPrepare, out, item)
	if rc, ok := filtered.(*RestContent); ok {
		return rc
	}
	return out
}

func restBase(t mediatypes.ContentType) string {
	for base, ct := range mediatypes.RestBases {
		if ct == t {
			return base
		}
	}
	return string(t)
}
