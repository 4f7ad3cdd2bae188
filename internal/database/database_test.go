package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"vsgtalent-backend/internal/mediatypes"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

func seedContent(t *testing.T, db *Database, slug, title string) int64 {
	t.Helper()

	published := time.Now().Add(-time.Hour)
	id, err := db.SaveContent(context.Background(), &ContentItem{
		Type:        mediatypes.ContentTypePost,
		Slug:        slug,
		Title:       title,
		Status:      "publish",
		PublishedAt: &published,
	})
	if err != nil {
		t.Fatalf("SaveContent: %v", err)
	}
	return id
}

func TestSaveContentUpsertsOnSlug(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	id1 := seedContent(t, db, "overwinning", "Overwinning")
	id2 := seedContent(t, db, "overwinning", "Overwinning (bijgewerkt)")

	if id1 != id2 {
		t.Errorf("upsert created a new row: %d vs %d", id1, id2)
	}

	item, err := db.GetContent(ctx, id1)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if item.Title != "Overwinning (bijgewerkt)" {
		t.Errorf("title = %q after upsert", item.Title)
	}
}

func TestListContentPagination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	for _, slug := range []string{"een", "twee", "drie", "vier", "vijf"} {
		seedContent(t, db, slug, "Titel "+slug)
	}

	items, total, err := db.ListContent(ctx, ListOptions{
		Type:    mediatypes.ContentTypePost,
		PerPage: 2,
		Page:    1,
		OrderBy: mediatypes.SortBySlug,
		Order:   mediatypes.SortAsc,
	})
	if err != nil {
		t.Fatalf("ListContent: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(items) != 2 {
		t.Fatalf("page size = %d, want 2", len(items))
	}
	if items[0].Slug != "drie" || items[1].Slug != "een" {
		t.Errorf("unexpected page order: %s, %s", items[0].Slug, items[1].Slug)
	}
}

func TestListContentBySlug(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	seedContent(t, db, "sponsordag", "Sponsordag")
	seedContent(t, db, "testdag", "Testdag")

	items, total, err := db.ListContent(ctx, ListOptions{
		Type: mediatypes.ContentTypePost,
		Slug: "sponsordag",
	})
	if err != nil {
		t.Fatalf("ListContent: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("got %d items (total %d), want 1", len(items), total)
	}
	if items[0].Slug != "sponsordag" {
		t.Errorf("slug = %q", items[0].Slug)
	}
}

func TestGetContentNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if _, err := db.GetContent(context.Background(), 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	id := seedContent(t, db, "meta-test", "Meta")

	if err := db.SetMeta(ctx, id, MetaCircuit, "Genk"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	got, err := db.GetMeta(ctx, id, MetaCircuit)
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if got != "Genk" {
		t.Errorf("meta = %q, want Genk", got)
	}

	// Overwrite
	if err := db.SetMeta(ctx, id, MetaCircuit, "Mariembourg"); err != nil {
		t.Fatalf("SetMeta overwrite: %v", err)
	}
	got, _ = db.GetMeta(ctx, id, MetaCircuit)
	if got != "Mariembourg" {
		t.Errorf("meta after overwrite = %q", got)
	}

	// Absent key yields empty, not error.
	got, err = db.GetMeta(ctx, id, "ontbreekt")
	if err != nil || got != "" {
		t.Errorf("absent meta = %q, err %v", got, err)
	}
}

func TestGalleryRowsAndUpdate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	id1 := seedContent(t, db, "g-een", "Een")
	id2 := seedContent(t, db, "g-twee", "Twee")
	id3 := seedContent(t, db, "g-drie", "Drie")

	if err := db.SetMeta(ctx, id1, MetaGallery, `["https://a.example/1.jpg"]`); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMeta(ctx, id2, MetaGallery, ""); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMeta(ctx, id3, MetaVideos, `["https://a.example/v.mp4"]`); err != nil {
		t.Fatal(err)
	}

	rows, err := db.GalleryRows(ctx)
	if err != nil {
		t.Fatalf("GalleryRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 (empty values and video meta excluded)", len(rows))
	}
	if rows[0].ContentID != id1 {
		t.Errorf("row content id = %d, want %d", rows[0].ContentID, id1)
	}

	if err := db.UpdateGallery(ctx, id1, []string{"https://b.example/1.avif"}); err != nil {
		t.Fatalf("UpdateGallery: %v", err)
	}
	value, _ := db.GetMeta(ctx, id1, MetaGallery)
	if value != `["https://b.example/1.avif"]` {
		t.Errorf("stored gallery = %q", value)
	}
}

func TestAttachmentLifecycle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	contentID := seedContent(t, db, "attach-test", "Attach")

	a := &Attachment{
		ContentID: &contentID,
		Path:      "/uploads/2024/photo.png",
		MimeType:  "image/png",
		MediaType: mediatypes.MediaTypeImage,
		Width:     1600,
		Height:    1200,
	}
	id, err := db.CreateAttachment(ctx, a)
	if err != nil {
		t.Fatalf("CreateAttachment: %v", err)
	}

	// Re-encode result: new path, mime, and dimensions.
	if err := db.UpdateAttachmentFile(ctx, id, "/uploads/2024/photo.avif", "image/avif", 800, 450); err != nil {
		t.Fatalf("UpdateAttachmentFile: %v", err)
	}
	if err := db.UpdateAttachmentLabels(ctx, id, "Titel", "Alt tekst", "Onderschrift", "Beschrijving"); err != nil {
		t.Fatalf("UpdateAttachmentLabels: %v", err)
	}
	if err := db.RenameAttachment(ctx, id, "/uploads/2024/attach-test-afbeelding-1.avif", &contentID); err != nil {
		t.Fatalf("RenameAttachment: %v", err)
	}

	got, err := db.GetAttachment(ctx, id)
	if err != nil {
		t.Fatalf("GetAttachment: %v", err)
	}
	if got.Path != "/uploads/2024/attach-test-afbeelding-1.avif" {
		t.Errorf("path = %q", got.Path)
	}
	if got.MimeType != "image/avif" {
		t.Errorf("mime = %q", got.MimeType)
	}
	if got.Width != 800 || got.Height != 450 {
		t.Errorf("dimensions = %dx%d, want 800x450", got.Width, got.Height)
	}
	if got.AltText != "Alt tekst" {
		t.Errorf("alt = %q", got.AltText)
	}

	list, err := db.ListAttachments(ctx, &contentID)
	if err != nil {
		t.Fatalf("ListAttachments: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d attachments, want 1", len(list))
	}
}

func TestUpdateAttachmentFileNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	err := db.UpdateAttachmentFile(context.Background(), 404, "/x.avif", "image/avif", 1, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTerms(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	contentID := seedContent(t, db, "term-test", "Term")

	termID, err := db.SaveTerm(ctx, "seizoen", "2024", "Seizoen 2024")
	if err != nil {
		t.Fatalf("SaveTerm: %v", err)
	}
	// Saving again updates in place.
	again, err := db.SaveTerm(ctx, "seizoen", "2024", "Seizoen 2024/2025")
	if err != nil {
		t.Fatalf("SaveTerm again: %v", err)
	}
	if termID != again {
		t.Errorf("duplicate term created: %d vs %d", termID, again)
	}

	if err := db.AssignTerm(ctx, contentID, termID); err != nil {
		t.Fatalf("AssignTerm: %v", err)
	}
	if err := db.AssignTerm(ctx, contentID, termID); err != nil {
		t.Fatalf("AssignTerm twice: %v", err)
	}

	terms, err := db.TermsForContent(ctx, contentID)
	if err != nil {
		t.Fatalf("TermsForContent: %v", err)
	}
	if len(terms) != 1 || terms[0].Name != "Seizoen 2024/2025" {
		t.Errorf("terms = %+v", terms)
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SetOption(ctx, "seed_version", "3"); err != nil {
		t.Fatalf("SetOption: %v", err)
	}
	got, err := db.GetOption(ctx, "seed_version")
	if err != nil || got != "3" {
		t.Errorf("GetOption = %q, err %v", got, err)
	}

	got, err = db.GetOption(ctx, "missing")
	if err != nil || got != "" {
		t.Errorf("absent option = %q, err %v", got, err)
	}
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	if db.HasUsers() {
		t.Fatal("fresh database reports users")
	}
	if err := db.CreateUser("wachtwoord123"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if !db.HasUsers() {
		t.Fatal("user not visible after creation")
	}

	if _, err := db.ValidatePassword("verkeerd"); err == nil {
		t.Error("wrong password accepted")
	}
	user, err := db.ValidatePassword("wachtwoord123")
	if err != nil {
		t.Fatalf("ValidatePassword: %v", err)
	}

	session, err := db.CreateSession(user.ID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := db.ValidateSession(session.Token); err != nil {
		t.Errorf("ValidateSession: %v", err)
	}

	if err := db.DeleteSession(session.Token); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := db.ValidateSession(session.Token); err == nil {
		t.Error("deleted session still valid")
	}
}

func TestUpdatePasswordInvalidatesSessions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.CreateUser("eerste"); err != nil {
		t.Fatal(err)
	}
	user, err := db.ValidatePassword("eerste")
	if err != nil {
		t.Fatal(err)
	}
	session, err := db.CreateSession(user.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.UpdatePassword("tweede"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	if _, err := db.ValidateSession(session.Token); err == nil {
		t.Error("session survived password change")
	}
	if _, err := db.ValidatePassword("tweede"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}
