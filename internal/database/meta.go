package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vsgtalent-backend/internal/gallery"
)

// Meta keys written by the pipeline.
const (
	MetaGallery      = "media_gallery"
	MetaVideos       = "media_videos"
	MetaSamenvatting = "samenvatting"
	MetaCircuit      = "circuit"
	MetaPositie      = "positie"
)

// GetMeta returns the raw stored meta value for one content item, or an
// empty string when the key is absent.
func (d *Database) GetMeta(ctx context.Context, contentID int64, key string) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_meta", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err = d.db.QueryRowContext(ctx,
		"SELECT value FROM content_meta WHERE content_id = ? AND key = ?",
		contentID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return "", nil
	}
	return value, err
}

// SetMeta stores a raw meta value for one content item.
func (d *Database) SetMeta(ctx context.Context, contentID int64, key, value string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_meta", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO content_meta (content_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(content_id, key) DO UPDATE SET value = excluded.value`,
		contentID, key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set meta %q: %w", key, err)
	}
	return nil
}

// GalleryRows returns every non-empty media_gallery value with its owning
// content id. Values come back raw; the gallery parser owns decoding them.
func (d *Database) GalleryRows(ctx context.Context) ([]gallery.MetaRow, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_gallery_rows", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT content_id, value FROM content_meta WHERE key = ? AND value != ''",
		MetaGallery,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery rows: %w", err)
	}
	defer closeRows(rows)

	var out []gallery.MetaRow
	for rows.Next() {
		var row gallery.MetaRow
		if err = rows.Scan(&row.ContentID, &row.Value); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateGallery persists a normalized gallery list in the current storage
// format.
func (d *Database) UpdateGallery(ctx context.Context, contentID int64, urls []string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_gallery", start, err) }()

	encoded, err := gallery.Encode(urls)
	if err != nil {
		return fmt.Errorf("failed to encode gallery: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO content_meta (content_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(content_id, key) DO UPDATE SET value = excluded.value`,
		contentID, MetaGallery, encoded,
	)
	if err != nil {
		return fmt.Errorf("failed to update gallery: %w", err)
	}
	return nil
}

// AllMeta returns every meta key/value pair for one content item.
func (d *Database) AllMeta(ctx context.Context, contentID int64) (map[string]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_meta", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT key, value FROM content_meta WHERE content_id = ?", contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read meta: %w", err)
	}
	defer closeRows(rows)

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err = rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
