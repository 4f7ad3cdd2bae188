package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"vsgtalent-backend/internal/database"
	"vsgtalent-backend/internal/gallery"
)

func TestListContentPaginationHeaders(t *testing.T) {
	h, db := newTestHandlers(t)
	router := testRouter(h)

	for _, slug := range []string{"een", "twee", "drie", "vier", "vijf"} {
		seedContent(t, db, slug, "Bericht "+slug)
	}

	req := httptest.NewRequest(http.MethodGet, "/wp-json/wp/v2/posts?per_page=2&page=1&orderby=slug&order=asc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-WP-Total"); got != "5" {
		t.Errorf("X-WP-Total = %q, want 5", got)
	}
	if got := rec.Header().Get("X-WP-TotalPages"); got != "3" {
		t.Errorf("X-WP-TotalPages = %q, want 3", got)
	}

	var items []RestContent
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Slug != "drie" || items[1].Slug != "een" {
		t.Errorf("slugs = %q, %q; want drie, een", items[0].Slug, items[1].Slug)
	}
}

func TestListContentFilterBySlug(t *testing.T) {
	h, db := newTestHandlers(t)
	router := testRouter(h)

	seedContent(t, db, "overwinning-in-genk", "Overwinning in Genk")
	seedContent(t, db, "tweede-plaats", "Tweede plaats")

	req := httptest.NewRequest(http.MethodGet, "/wp-json/wp/v2/posts?slug=overwinning-in-genk", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var items []RestContent
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Slug != "overwinning-in-genk" {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Title.Rendered != "Overwinning in Genk" {
		t.Errorf("title = %q", items[0].Title.Rendered)
	}
}

func TestRestPrepareCanonicalizesGalleryURLs(t *testing.T) {
	h, db := newTestHandlers(t)
	router := testRouter(h)

	id := seedContent(t, db, "race-verslag", "Race verslag")
	raw, err := gallery.Encode([]string{
		"https://vsgtalent.example/wp-content/uploads/2024/03/foto-1.jpg",
		"https://media.vsgtalent.example/wp-content/uploads/2024/03/foto-2.jpg",
		"12345",
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := db.SetMeta(context.Background(), id, database.MetaGallery, raw); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/wp-json/wp/v2/posts?slug=race-verslag", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var items []RestContent
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items", len(items))
	}

	rawList, ok := items[0].Meta[database.MetaGallery].([]interface{})
	if !ok {
		t.Fatalf("media_gallery = %T", items[0].Meta[database.MetaGallery])
	}
	want := []string{
		"https://media.vsgtalent.example/wp-content/uploads/2024/03/foto-1.jpg",
		"https://media.vsgtalent.example/wp-content/uploads/2024/03/foto-2.jpg",
	}
	if len(rawList) != len(want) {
		t.Fatalf("gallery = %v, want %v", rawList, want)
	}
	for i := range want {
		if rawList[i] != want[i] {
			t.Errorf("gallery[%d] = %v, want %s", i, rawList[i], want[i])
		}
	}
}

func TestGetContentItemTypeMismatch(t *testing.T) {
	h, db := newTestHandlers(t)
	router := testRouter(h)

	id := seedContent(t, db, "kalender-post", "Kalender post")

	// The item is a post; asking for it as an evenement is a 404.
	req := httptest.NewRequest(http.MethodGet, "/wp-json/wp/v2/evenementen/"+itoa(id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/wp-json/wp/v2/posts/"+itoa(id), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestSaveContentSanitizesGalleryMeta(t *testing.T) {
	h, db := newTestHandlers(t)
	router := testRouter(h)

	payload := `{
		"slug": "nieuw-verslag",
		"title": "Nieuw verslag",
		"content": "<p>Verslag</p>",
		"meta": {
			"media_gallery": "https://vsgtalent.example/wp-content/uploads/a.jpg\nhttps://vsgtalent.example/wp-content/uploads/a.jpg,/wp-content/uploads/b.jpg",
			"circuit": "Genk"
		}
	}`
	req := httptest.NewRequest(http.MethodPost, "/wp-json/wp/v2/posts", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var saved RestContent
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("expected a content id")
	}

	// The delimited value came back as a deduplicated JSON array.
	raw, err := db.GetMeta(context.Background(), saved.ID, database.MetaGallery)
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	urls := gallery.ParseValue(raw)
	if len(urls) != 2 {
		t.Fatalf("stored gallery = %v, want 2 entries", urls)
	}

	circuit, err := db.GetMeta(context.Background(), saved.ID, "circuit")
	if err != nil || circuit != "Genk" {
		t.Errorf("circuit = %q, err %v", circuit, err)
	}
}

func TestSaveContentRequiresSlugAndTitle(t *testing.T) {
	h, _ := newTestHandlers(t)
	router := testRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/wp-json/wp/v2/posts", bytes.NewBufferString(`{"title":"Zonder slug"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSaveContentUpdateKeepsSlug(t *testing.T) {
	h, db := newTestHandlers(t)
	router := testRouter(h)

	id := seedContent(t, db, "origineel", "Origineel")

	// A changed slug on an id-addressed update would fork the item in the
	// (type, slug)-keyed store, so it is rejected.
	req := httptest.NewRequest(http.MethodPost, "/wp-json/wp/v2/posts/"+itoa(id),
		bytes.NewBufferString(`{"slug":"hernoemd","title":"Origineel"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("slug change status = %d, want 400", rec.Code)
	}

	// Resending the same slug updates in place.
	req = httptest.NewRequest(http.MethodPost, "/wp-json/wp/v2/posts/"+itoa(id),
		bytes.NewBufferString(`{"slug":"origineel","title":"Bijgewerkt"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	var saved RestContent
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if saved.ID != id || saved.Title.Rendered != "Bijgewerkt" {
		t.Errorf("saved = id %d title %q, want id %d title Bijgewerkt", saved.ID, saved.Title.Rendered, id)
	}

	req = httptest.NewRequest(http.MethodGet, "/wp-json/wp/v2/posts", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-WP-Total"); got != "1" {
		t.Errorf("X-WP-Total = %q after update, want 1", got)
	}
}

func TestListTaxonomyTerms(t *testing.T) {
	h, db := newTestHandlers(t)
	router := testRouter(h)

	ctx := context.Background()
	if _, err := db.SaveTerm(ctx, "competitie", "iame-x30", "IAME X30"); err != nil {
		t.Fatalf("SaveTerm: %v", err)
	}
	if _, err := db.SaveTerm(ctx, "seizoen", "2024", "2024"); err != nil {
		t.Fatalf("SaveTerm: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/wp-json/wp/v2/competitie", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var terms []database.Term
	if err := json.Unmarshal(rec.Body.Bytes(), &terms); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(terms) != 1 || terms[0].Slug != "iame-x30" {
		t.Fatalf("terms = %+v", terms)
	}
}

func TestListContentUnknownBase(t *testing.T) {
	h, _ := newTestHandlers(t)
	router := testRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/wp-json/wp/v2/paginas", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
