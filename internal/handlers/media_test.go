package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vsgtalent-backend/internal/database"
	"vsgtalent-backend/internal/gallery"
	"vsgtalent-backend/internal/mediatypes"
)

func TestRelabelContentRenamesAndLabels(t *testing.T) {
	h, db := newTestHandlers(t)
	ctx := context.Background()

	id := seedContent(t, db, "race-verslag", "Race verslag")

	// Two camera-named images and one video attached to the item.
	files := []struct {
		name string
		mt   mediatypes.MediaType
	}{
		{"DSC_1234.jpg", mediatypes.MediaTypeImage},
		{"IMG_0042.jpg", mediatypes.MediaTypeImage},
		{"clip.mp4", mediatypes.MediaTypeVideo},
	}
	for _, f := range files {
		path := filepath.Join(h.uploadsDir, f.name)
		if err := os.WriteFile(path, []byte("bytes"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := db.CreateAttachment(ctx, &database.Attachment{
			ContentID: &id,
			Path:      path,
			MimeType:  mediatypes.GetMimeType(filepath.Ext(f.name)),
			MediaType: f.mt,
		}); err != nil {
			t.Fatalf("CreateAttachment: %v", err)
		}
	}

	// Gallery references the pre-rename URL of the first image.
	oldURL := "https://media.vsgtalent.example/wp-content/uploads/DSC_1234.jpg"
	raw, err := gallery.Encode([]string{oldURL})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := db.SetMeta(ctx, id, database.MetaGallery, raw); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}

	if err := h.relabelContent(ctx, id); err != nil {
		t.Fatalf("relabelContent: %v", err)
	}

	attachments, err := db.ListAttachments(ctx, &id)
	if err != nil {
		t.Fatalf("ListAttachments: %v", err)
	}
	if len(attachments) != 3 {
		t.Fatalf("got %d attachments", len(attachments))
	}

	wantNames := []string{
		"race-verslag-afbeelding-1.jpg",
		"race-verslag-afbeelding-2.jpg",
		"race-verslag-video-1.mp4",
	}
	for i, want := range wantNames {
		if got := filepath.Base(attachments[i].Path); got != want {
			t.Errorf("attachment %d path = %q, want %q", i, got, want)
		}
		if _, statErr := os.Stat(attachments[i].Path); statErr != nil {
			t.Errorf("attachment %d file missing: %v", i, statErr)
		}
	}

	// Labels carry the Dutch base, type tag, and brand.
	first := attachments[0]
	if first.Title != "Race verslag – 3 maart 2024 – afbeelding 1" {
		t.Errorf("title = %q", first.Title)
	}
	if first.AltText != "Race verslag – 3 maart 2024 – afbeelding 1 – VSG Talent" {
		t.Errorf("alt = %q", first.AltText)
	}
	if first.Caption != "Race verslag – 3 maart 2024 (afbeelding 1)" {
		t.Errorf("caption = %q", first.Caption)
	}

	video := attachments[2]
	if video.Title != "Race verslag – 3 maart 2024 – video 1" {
		t.Errorf("video title = %q", video.Title)
	}

	// The gallery reference followed the rename.
	rawAfter, err := db.GetMeta(ctx, id, database.MetaGallery)
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	urls := gallery.ParseValue(rawAfter)
	want := "https://media.vsgtalent.example/wp-content/uploads/race-verslag-afbeelding-1.jpg"
	if len(urls) != 1 || urls[0] != want {
		t.Errorf("gallery = %v, want [%s]", urls, want)
	}
}

func TestRelabelContentIsStable(t *testing.T) {
	h, db := newTestHandlers(t)
	ctx := context.Background()

	id := seedContent(t, db, "stabiel", "Stabiel")

	path := filepath.Join(h.uploadsDir, "stabiel-afbeelding-1.jpg")
	if err := os.WriteFile(path, []byte("bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := db.CreateAttachment(ctx, &database.Attachment{
		ContentID: &id,
		Path:      path,
		MimeType:  "image/jpeg",
		MediaType: mediatypes.MediaTypeImage,
	}); err != nil {
		t.Fatalf("CreateAttachment: %v", err)
	}

	// A file already carrying its canonical name stays put.
	if err := h.relabelContent(ctx, id); err != nil {
		t.Fatalf("relabelContent: %v", err)
	}
	attachments, err := db.ListAttachments(ctx, &id)
	if err != nil {
		t.Fatalf("ListAttachments: %v", err)
	}
	if got := filepath.Base(attachments[0].Path); got != "stabiel-afbeelding-1.jpg" {
		t.Errorf("path = %q after relabel of canonical name", got)
	}
}

func TestMediaURL(t *testing.T) {
	h, _ := newTestHandlers(t)

	got := h.mediaURL("/data/uploads/race-verslag-afbeelding-1.avif")
	want := "https://media.vsgtalent.example/wp-content/uploads/race-verslag-afbeelding-1.avif"
	if got != want {
		t.Errorf("mediaURL = %q, want %q", got, want)
	}
}
