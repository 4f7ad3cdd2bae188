package gallery

import (
	"context"

	"vsgtalent-backend/internal/logging"
	"vsgtalent-backend/internal/metrics"
	"vsgtalent-backend/internal/urlcanon"
)

// MetaRow is one stored gallery meta value with its owning content item.
type MetaRow struct {
	ContentID int64
	Value     string
}

// Store is the slice of the database the repair job needs.
type Store interface {
	// GalleryRows returns every non-empty media_gallery meta value.
	GalleryRows(ctx context.Context) ([]MetaRow, error)
	// UpdateGallery persists a normalized gallery list for one content item.
	UpdateGallery(ctx context.Context, contentID int64, urls []string) error
}

// RepairAll re-canonicalizes every stored media_gallery value and persists
// the items that changed. It returns the number of content items updated.
//
// The job is synchronous and runs to completion within the calling request.
// A malformed value or a failed write on one item is logged and skipped; it
// never aborts the rest of the batch.
func RepairAll(ctx context.Context, store Store, canon *urlcanon.Canonicalizer) (int, error) {
	rows, err := store.GalleryRows(ctx)
	if err != nil {
		return 0, err
	}

	metrics.RepairRunsTotal.Inc()

	updated := 0
	for _, row := range rows {
		urls := ParseValue(row.Value)
		if len(urls) == 0 {
			continue
		}

		fixed := make([]string, 0, len(urls))
		changed := false
		for _, u := range urls {
			out := canon.Canonicalize(u)
			if out != u {
				changed = true
			}
			if out != "" {
				fixed = append(fixed, out)
			}
		}

		deduped := Dedupe(fixed)
		if len(deduped) != len(fixed) {
			changed = true
		}

		if !changed || len(deduped) == 0 {
			continue
		}

		if err := store.UpdateGallery(ctx, row.ContentID, deduped); err != nil {
			logging.Warn("gallery repair: failed to update content %d: %v", row.ContentID, err)
			continue
		}
		updated++
	}

	if updated > 0 {
		metrics.RepairItemsUpdatedTotal.Add(float64(updated))
	}
	logging.Info("gallery repair: scanned %d items, updated %d", len(rows), updated)
	return updated, nil
}
