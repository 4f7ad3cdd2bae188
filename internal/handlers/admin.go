package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"vsgtalent-backend/internal/database"
	"vsgtalent-backend/internal/gallery"
	"vsgtalent-backend/internal/logging"
	"vsgtalent-backend/internal/mediatypes"
)

// RepairMediaGallery serves POST /admin/actions/repair-media-gallery. The
// repair runs to completion within the request and redirects back to the
// admin page with the updated-item count in the query string.
func (h *Handlers) RepairMediaGallery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	updated, err := gallery.RepairAll(ctx, h.db, h.canon)
	if err != nil {
		logging.Error("gallery repair failed: %v", err)
		http.Redirect(w, r, "/admin/?repair_failed=1", http.StatusFound)
		return
	}

	logging.Info("gallery repair updated %d items", updated)
	http.Redirect(w, r, fmt.Sprintf("/admin/?repaired=%d", updated), http.StatusFound)
}

// ConvertAttachment serves POST /admin/actions/convert/{id}: it runs one
// stored image through the crop and re-encode pipeline on demand.
func (h *Handlers) ConvertAttachment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Redirect(w, r, "/admin/?convert_failed=1", http.StatusFound)
		return
	}

	a, err := h.db.GetAttachment(ctx, id)
	if err != nil || a.MediaType != mediatypes.MediaTypeImage {
		http.Redirect(w, r, "/admin/?convert_failed=1", http.StatusFound)
		return
	}

	res := h.processor.Process(a.Path)
	if !res.Changed {
		// Skipped or failed; either way nothing moved on disk.
		http.Redirect(w, r, "/admin/?convert_failed=1", http.StatusFound)
		return
	}

	if err = h.db.UpdateAttachmentFile(ctx, id, res.Path, res.Mime, res.Width, res.Height); err != nil {
		logging.Error("failed to record conversion of attachment %d: %v", id, err)
		http.Redirect(w, r, "/admin/?convert_failed=1", http.StatusFound)
		return
	}

	// The file may carry a new extension now; gallery references follow.
	if a.ContentID != nil {
		renamed := map[string]string{h.mediaURL(a.Path): h.mediaURL(res.Path)}
		for _, key := range []string{database.MetaGallery, database.MetaVideos} {
			if metaErr := h.rewriteMediaMeta(ctx, *a.ContentID, key, renamed); metaErr != nil {
				logging.Warn("failed to rewrite %s after conversion: %v", key, metaErr)
			}
		}
	}

	http.Redirect(w, r, "/admin/?converted=1", http.StatusFound)
}

// SideloadMedia serves POST /admin/actions/sideload: fetch a remote image
// into the uploads directory, run the pipeline, and attach it to a content
// item when one is given.
func (h *Handlers) SideloadMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawURL := r.FormValue("url")
	if rawURL == "" {
		http.Redirect(w, r, "/admin/?sideload_failed=1", http.StatusFound)
		return
	}

	localPath, err := h.sideloader.Fetch(ctx, rawURL)
	if err != nil {
		logging.Warn("sideload of %s failed: %v", rawURL, err)
		http.Redirect(w, r, "/admin/?sideload_failed=1", http.StatusFound)
		return
	}

	attachment, err := h.registerLocalFile(ctx, localPath, r.FormValue("content_id"))
	if err != nil {
		logging.Error("failed to register sideloaded file: %v", err)
		http.Redirect(w, r, "/admin/?sideload_failed=1", http.StatusFound)
		return
	}

	logging.Info("sideloaded %s as attachment %d", rawURL, attachment.ID)
	http.Redirect(w, r, "/admin/?sideloaded=1", http.StatusFound)
}

// VerifyUploads serves POST /admin/actions/verify-uploads: report how many
// attachment records point at files missing from disk.
func (h *Handlers) VerifyUploads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	missing, err := h.db.CountMissingFiles(ctx)
	if err != nil {
		logging.Error("upload verification failed: %v", err)
		http.Redirect(w, r, "/admin/?verify_failed=1", http.StatusFound)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/admin/?missing=%d", missing), http.StatusFound)
}

var adminPage = template.Must(template.New("admin").Parse(`<!DOCTYPE html>
<html lang="nl">
<head><meta charset="utf-8"><title>VSG Talent beheer</title></head>
<body>
<h1>VSG Talent beheer</h1>
{{if .Notice}}<p><strong>{{.Notice}}</strong></p>{{end}}
<form method="post" action="/admin/actions/repair-media-gallery">
  <button type="submit">Herstel media-galerij URLs</button>
</form>
<form method="post" action="/admin/actions/verify-uploads">
  <button type="submit">Controleer uploads</button>
</form>
<form method="post" action="/admin/actions/sideload">
  <input type="url" name="url" placeholder="https://..." required>
  <input type="number" name="content_id" placeholder="content id">
  <button type="submit">Sideload</button>
</form>
</body>
</html>`))

// AdminPage serves GET /admin/: a minimal page that renders the notice
// banner from the redirect query parameters.
func (h *Handlers) AdminPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	notice := ""
	switch {
	case q.Has("repaired"):
		notice = fmt.Sprintf("Media-galerij hersteld: %s items bijgewerkt.", q.Get("repaired"))
	case q.Has("repair_failed"):
		notice = "Herstellen van de media-galerij is mislukt."
	case q.Has("converted"):
		notice = "Afbeelding geconverteerd naar 16:9."
	case q.Has("convert_failed"):
		notice = "Conversie mislukt; het originele bestand is onaangetast."
	case q.Has("sideloaded"):
		notice = "Bestand opgehaald en toegevoegd."
	case q.Has("sideload_failed"):
		notice = "Ophalen van het bestand is mislukt."
	case q.Has("missing"):
		notice = fmt.Sprintf("Ontbrekende bestanden: %s.", q.Get("missing"))
	case q.Has("verify_failed"):
		notice = "Controle van uploads is mislukt."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := adminPage.Execute(w, struct{ Notice string }{Notice: notice}); err != nil {
		logging.Error("failed to render admin page: %v", err)
	}
}
