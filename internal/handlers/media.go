package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"vsgtalent-backend/internal/database"
	"vsgtalent-backend/internal/gallery"
	"vsgtalent-backend/internal/hooks"
	"vsgtalent-backend/internal/logging"
	"vsgtalent-backend/internal/media"
	"vsgtalent-backend/internal/mediatypes"
	"vsgtalent-backend/internal/metrics"
	"vsgtalent-backend/internal/urlcanon"
)

// maxUploadBytes caps a single multipart upload.
const maxUploadBytes = 100 << 20

// MediaDetails carries the dimension block of a REST media object.
type MediaDetails struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	File   string `json:"file"`
}

// RestAttachment is one attachment in REST response form.
type RestAttachment struct {
	ID           int64         `json:"id"`
	Type         string        `json:"type"`
	MimeType     string        `json:"mime_type"`
	MediaType    string        `json:"media_type"`
	SourceURL    string        `json:"source_url"`
	Title        RenderedField `json:"title"`
	AltText      string        `json:"alt_text"`
	Caption      RenderedField `json:"caption"`
	Description  RenderedField `json:"description"`
	MediaDetails MediaDetails  `json:"media_details"`
}

func (h *Handlers) restAttachment(a *database.Attachment) *RestAttachment {
	return &RestAttachment{
		ID:          a.ID,
		Type:        "attachment",
		MimeType:    a.MimeType,
		MediaType:   string(a.MediaType),
		SourceURL:   h.mediaURL(a.Path),
		Title:       RenderedField{Rendered: a.Title},
		AltText:     a.AltText,
		Caption:     RenderedField{Rendered: a.Caption},
		Description: RenderedField{Rendered: a.Description},
		MediaDetails: MediaDetails{
			Width:  a.Width,
			Height: a.Height,
			File:   filepath.Base(a.Path),
		},
	}
}

// mediaURL maps a local uploads path to its public canonical URL.
func (h *Handlers) mediaURL(path string) string {
	return "https://" + h.canon.CanonicalHost() + urlcanon.UploadsPrefix + filepath.Base(path)
}

// UploadMedia serves POST /wp-json/wp/v2/media. The uploaded file runs
// through the media pipeline inline; pipeline failure never fails the
// upload, the original bytes are stored as-is.
func (h *Handlers) UploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		writeJSONError(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		writeJSONError(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logging.Warn("failed to close upload: %v", closeErr)
		}
	}()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	mediaType := mediatypes.GetMediaType(ext)
	if mediaType == mediatypes.MediaTypeOther {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		writeJSONError(w, "Unsupported media type", http.StatusUnsupportedMediaType)
		return
	}

	localPath := media.UniquePath(h.uploadsDir, filepath.Base(header.Filename))
	out, err := os.Create(localPath)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		logging.Error("failed to create upload file: %v", err)
		writeJSONError(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	if _, err = io.Copy(out, file); err != nil {
		_ = out.Close()
		_ = os.Remove(localPath)
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		writeJSONError(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	if err = out.Close(); err != nil {
		_ = os.Remove(localPath)
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		writeJSONError(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}

	attachment := &database.Attachment{
		Path:      localPath,
		MimeType:  mediatypes.GetMimeType(ext),
		MediaType: mediaType,
	}

	// Images run through crop and re-encode; a failed pipeline leaves the
	// original file in place and the upload still succeeds.
	if mediaType == mediatypes.MediaTypeImage {
		res := h.processor.Process(localPath)
		if res.Changed {
			attachment.Path = res.Path
			attachment.MimeType = res.Mime
			attachment.Width = res.Width
			attachment.Height = res.Height
		} else if dims, dimErr := media.GetImageDimensions(localPath); dimErr == nil {
			attachment.Width = dims.Width
			attachment.Height = dims.Height
		}
	}

	if idStr := r.FormValue("content_id"); idStr != "" {
		if contentID, parseErr := strconv.ParseInt(idStr, 10, 64); parseErr == nil {
			attachment.ContentID = &contentID
		}
	}

	if _, err = h.db.CreateAttachment(ctx, attachment); err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		logging.Error("failed to record attachment: %v", err)
		writeJSONError(w, "Failed to record attachment", http.StatusInternalServerError)
		return
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()

	// Subscribers label and rename owned attachments; the response carries
	// whatever they left behind.
	h.hooks.DoAction(hooks.EventUploadComplete, attachment.ID, attachment.Path)
	if refreshed, getErr := h.db.GetAttachment(ctx, attachment.ID); getErr == nil {
		attachment = refreshed
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, h.restAttachment(attachment))
}

// registerLocalFile records a file already present in the uploads directory
// as an attachment, running images through the pipeline first. Used by the
// sideload action; uploads go through UploadMedia directly.
func (h *Handlers) registerLocalFile(ctx context.Context, localPath, contentIDStr string) (*database.Attachment, error) {
	ext := strings.ToLower(filepath.Ext(localPath))
	attachment := &database.Attachment{
		Path:      localPath,
		MimeType:  mediatypes.GetMimeType(ext),
		MediaType: mediatypes.GetMediaType(ext),
	}

	if attachment.MediaType == mediatypes.MediaTypeImage {
		res := h.processor.Process(localPath)
		if res.Changed {
			attachment.Path = res.Path
			attachment.MimeType = res.Mime
			attachment.Width = res.Width
			attachment.Height = res.Height
		} else if dims, err := media.GetImageDimensions(localPath); err == nil {
			attachment.Width = dims.Width
			attachment.Height = dims.Height
		}
	}

	if contentIDStr != "" {
		if contentID, err := strconv.ParseInt(contentIDStr, 10, 64); err == nil {
			attachment.ContentID = &contentID
		}
	}

	if _, err := h.db.CreateAttachment(ctx, attachment); err != nil {
		return nil, err
	}

	h.hooks.DoAction(hooks.EventUploadComplete, attachment.ID, attachment.Path)
	if refreshed, err := h.db.GetAttachment(ctx, attachment.ID); err == nil {
		attachment = refreshed
	}
	return attachment, nil
}

// OnUploadComplete is the upload_complete subscriber: a new attachment owned
// by a content item gets its labels and filename normalized right away.
func (h *Handlers) OnUploadComplete(args ...interface{}) {
	if len(args) == 0 {
		return
	}
	attachmentID, ok := args[0].(int64)
	if !ok {
		return
	}

	ctx := context.Background()
	a, err := h.db.GetAttachment(ctx, attachmentID)
	if err != nil {
		logging.Warn("upload finished for unknown attachment %d: %v", attachmentID, err)
		return
	}
	if a.ContentID == nil {
		return
	}
	if err := h.relabelContent(ctx, *a.ContentID); err != nil {
		logging.Warn("failed to relabel content %d after upload: %v", *a.ContentID, err)
	}
}

// OnContentSave is the content_save subscriber: it relabels and renames the
// item's attachments and rewrites its gallery meta accordingly.
func (h *Handlers) OnContentSave(args ...interface{}) {
	if len(args) == 0 {
		return
	}
	contentID, ok := args[0].(int64)
	if !ok {
		return
	}
	if err := h.relabelContent(context.Background(), contentID); err != nil {
		logging.Warn("failed to relabel content %d: %v", contentID, err)
	}
}

// relabelContent regenerates labels and canonical filenames for every
// attachment owned by one content item. Sequential counters run per media
// type; gallery and video meta lists are rewritten to the renamed URLs.
func (h *Handlers) relabelContent(ctx context.Context, contentID int64) error {
	item, err := h.db.GetContent(ctx, contentID)
	if err != nil {
		return err
	}

	attachments, err := h.db.ListAttachments(ctx, &contentID)
	if err != nil {
		return err
	}

	base := media.BaseLabel(item.Title, item.PublishedAt)
	renamed := make(map[string]string)
	counters := make(map[mediatypes.MediaType]int)

	for i := range attachments {
		a := &attachments[i]
		counters[a.MediaType]++
		index := counters[a.MediaType]

		labels := media.Labels(base, a.MediaType, index)
		err = h.db.UpdateAttachmentLabels(ctx, a.ID,
			labels[media.ContextTitle], labels[media.ContextAlt],
			labels[media.ContextCaption], labels[media.ContextDescription])
		if err != nil {
			logging.Warn("failed to update labels for attachment %d: %v", a.ID, err)
			continue
		}

		want := media.Filename(item.Slug, a.MediaType, index, filepath.Ext(a.Path))
		if filepath.Base(a.Path) == want {
			continue
		}

		newPath := media.UniquePath(filepath.Dir(a.Path), want)
		if renameErr := os.Rename(a.Path, newPath); renameErr != nil {
			logging.Warn("failed to rename %s: %v", a.Path, renameErr)
			continue
		}
		if dbErr := h.db.RenameAttachment(ctx, a.ID, newPath, a.ContentID); dbErr != nil {
			// Put the file back so the stored path stays valid.
			if undoErr := os.Rename(newPath, a.Path); undoErr != nil {
				logging.Error("failed to undo rename of %s: %v", newPath, undoErr)
			}
			logging.Warn("failed to record rename for attachment %d: %v", a.ID, dbErr)
			continue
		}

		metrics.RenamesTotal.Inc()
		renamed[h.mediaURL(a.Path)] = h.mediaURL(newPath)
		a.Path = newPath
	}

	for _, key := range []string{database.MetaGallery, database.MetaVideos} {
		if metaErr := h.rewriteMediaMeta(ctx, contentID, key, renamed); metaErr != nil {
			logging.Warn("failed to rewrite %s for content %d: %v", key, contentID, metaErr)
		}
	}
	return nil
}

// rewriteMediaMeta maps renamed URLs through one gallery-shaped meta value
// and writes it back only when something changed.
func (h *Handlers) rewriteMediaMeta(ctx context.Context, contentID int64, key string, renamed map[string]string) error {
	raw, err := h.db.GetMeta(ctx, contentID, key)
	if err != nil || raw == "" {
		return err
	}

	urls := h.canon.CanonicalizeAll(gallery.ParseValue(raw))
	changed := false
	for i, u := range urls {
		if replacement, ok := renamed[u]; ok {
			urls[i] = replacement
			changed = true
		}
	}
	urls = gallery.Dedupe(urls)

	encoded, err := gallery.Encode(urls)
	if err != nil {
		return err
	}
	if !changed && encoded == raw {
		return nil
	}
	return h.db.SetMeta(ctx, contentID, key, encoded)
}

// ListMedia serves GET /wp-json/wp/v2/media, optionally filtered by parent.
func (h *Handlers) ListMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var contentID *int64
	if parent := r.URL.Query().Get("parent"); parent != "" {
		id, err := strconv.ParseInt(parent, 10, 64)
		if err != nil {
			writeJSONError(w, "Invalid parent", http.StatusBadRequest)
			return
		}
		contentID = &id
	}

	attachments, err := h.db.ListAttachments(ctx, contentID)
	if err != nil {
		logging.Error("failed to list attachments: %v", err)
		writeJSONError(w, "Failed to list media", http.StatusInternalServerError)
		return
	}

	out := make([]*RestAttachment, 0, len(attachments))
	for i := range attachments {
		out = append(out, h.restAttachment(&attachments[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, out)
}

// GetMedia serves GET /wp-json/wp/v2/media/{id}.
func (h *Handlers) GetMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, "Invalid id", http.StatusBadRequest)
		return
	}

	a, err := h.db.GetAttachment(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSONError(w, "Failed to get media", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.restAttachment(a))
}
