package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vsgtalent-backend/internal/database"
	"vsgtalent-backend/internal/mediatypes"
)

func TestRepairMediaGalleryRedirectsWithCount(t *testing.T) {
	h, db := newTestHandlers(t)
	router := testRouter(h)

	ctx := context.Background()
	id := seedContent(t, db, "herstel-test", "Herstel test")
	legacy := `["https://vsgtalent.example/wp-content/uploads/2023/foto.jpg"]`
	if err := db.SetMeta(ctx, id, database.MetaGallery, legacy); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}

	other := seedContent(t, db, "al-goed", "Al goed")
	canonical := `["https://media.vsgtalent.example/wp-content/uploads/2023/ok.jpg"]`
	if err := db.SetMeta(ctx, other, database.MetaGallery, canonical); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/actions/repair-media-gallery", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/?repaired=1" {
		t.Errorf("Location = %q, want /admin/?repaired=1", loc)
	}

	fixed, err := db.GetMeta(ctx, id, database.MetaGallery)
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if !strings.Contains(fixed, "media.vsgtalent.example") {
		t.Errorf("gallery not rewritten: %s", fixed)
	}
}

func TestVerifyUploadsCountsMissingFiles(t *testing.T) {
	h, db := newTestHandlers(t)
	router := testRouter(h)

	ctx := context.Background()

	present := filepath.Join(t.TempDir(), "aanwezig.jpg")
	if err := os.WriteFile(present, []byte("bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	for _, path := range []string{present, "/nonexistent/weg.jpg"} {
		if _, err := db.CreateAttachment(ctx, &database.Attachment{
			Path:      path,
			MimeType:  "image/jpeg",
			MediaType: mediatypes.MediaTypeImage,
		}); err != nil {
			t.Fatalf("CreateAttachment: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/actions/verify-uploads", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/?missing=1" {
		t.Errorf("Location = %q, want /admin/?missing=1", loc)
	}
}

func TestAdminPageRendersNotice(t *testing.T) {
	h, _ := newTestHandlers(t)
	router := testRouter(h)

	tests := []struct {
		query string
		want  string
	}{
		{"?repaired=3", "3 items bijgewerkt"},
		{"?missing=0", "Ontbrekende bestanden: 0"},
		{"?convert_failed=1", "Conversie mislukt"},
		{"", "VSG Talent beheer"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/admin/"+tt.query, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d for %q", rec.Code, tt.query)
		}
		if !strings.Contains(rec.Body.String(), tt.want) {
			t.Errorf("page for %q missing %q", tt.query, tt.want)
		}
	}
}

func TestConvertAttachmentUnknownIDRedirectsFailed(t *testing.T) {
	h, _ := newTestHandlers(t)

	router := testRouter(h)
	router.HandleFunc("/admin/actions/convert/{id:[0-9]+}", h.ConvertAttachment).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, "/admin/actions/convert/999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/?convert_failed=1" {
		t.Errorf("Location = %q", loc)
	}
}
