package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vsgtalent-backend/internal/mediatypes"
	"vsgtalent-backend/internal/metrics"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ListContent returns one page of content items matching the options, plus
// the total number of matching items for pagination headers.
func (d *Database) ListContent(ctx context.Context, opts ListOptions) ([]ContentItem, int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_content", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts = opts.Normalize()

	where := "WHERE type = ? AND status = 'publish'"
	args := []interface{}{string(opts.Type)}
	if opts.Slug != "" {
		where += " AND slug = ?"
		args = append(args, opts.Slug)
	}

	var total int
	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content_items "+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count content: %w", err)
	}

	orderColumn := "published_at"
	switch opts.OrderBy {
	case mediatypes.SortByTitle:
		orderColumn = "title COLLATE NOCASE"
	case mediatypes.SortBySlug:
		orderColumn = "slug"
	}
	direction := "DESC"
	if opts.Order == mediatypes.SortAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT id, type, slug, title, excerpt, body, status,
		       featured_attachment_id, published_at, created_at, updated_at
		FROM content_items %s
		ORDER BY %s %s
		LIMIT ? OFFSET ?`, where, orderColumn, direction)
	args = append(args, opts.PerPage, (opts.Page-1)*opts.PerPage)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list content: %w", err)
	}
	defer closeRows(rows)

	var items []ContentItem
	for rows.Next() {
		item, scanErr := scanContentItem(rows)
		if scanErr != nil {
			err = scanErr
			return nil, 0, err
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// GetContent returns one content item by id.
func (d *Database) GetContent(ctx context.Context, id int64) (*ContentItem, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_content", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		SELECT id, type, slug, title, excerpt, body, status,
		       featured_attachment_id, published_at, created_at, updated_at
		FROM content_items WHERE id = ?`, id)

	item, err := scanContentItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	return item, err
}

// SaveContent inserts or updates a content item keyed on (type, slug) and
// returns its id.
func (d *Database) SaveContent(ctx context.Context, item *ContentItem) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_content", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var publishedAt interface{}
	if item.PublishedAt != nil {
		publishedAt = item.PublishedAt.Unix()
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO content_items (type, slug, title, excerpt, body, status, featured_attachment_id, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(type, slug) DO UPDATE SET
			title = excluded.title,
			excerpt = excluded.excerpt,
			body = excluded.body,
			status = excluded.status,
			featured_attachment_id = excluded.featured_attachment_id,
			published_at = excluded.published_at,
			updated_at = strftime('%s', 'now')`,
		string(item.Type), item.Slug, item.Title, item.Excerpt, item.Body,
		item.Status, item.FeaturedAttachmentID, publishedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save content: %w", err)
	}

	var id int64
	err = d.db.QueryRowContext(ctx,
		"SELECT id FROM content_items WHERE type = ? AND slug = ?",
		string(item.Type), item.Slug,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to read back content id: %w", err)
	}
	item.ID = id
	return id, nil
}

// GetStats implements metrics.StatsProvider with current library counts.
func (d *Database) GetStats() metrics.Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	stats := metrics.Stats{
		ContentByType:     make(map[string]int),
		AttachmentsByType: make(map[string]int),
		TermsByTaxonomy:   make(map[string]int),
	}

	countGroup(ctx, d.db, "SELECT type, COUNT(*) FROM content_items GROUP BY type", stats.ContentByType)
	countGroup(ctx, d.db, "SELECT media_type, COUNT(*) FROM attachments GROUP BY media_type", stats.AttachmentsByType)
	countGroup(ctx, d.db, "SELECT taxonomy, COUNT(*) FROM terms GROUP BY taxonomy", stats.TermsByTaxonomy)

	row := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE expires_at > strftime('%s', 'now')")
	_ = row.Scan(&stats.ActiveSessions)

	return stats
}

func countGroup(ctx context.Context, db *sql.DB, query string, into map[string]int) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return
	}
	defer closeRows(rows)

	for rows.Next() {
		var key string
		var n int
		if rows.Scan(&key, &n) == nil {
			into[key] = n
		}
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContentItem(row rowScanner) (*ContentItem, error) {
	var item ContentItem
	var contentType string
	var featured sql.NullInt64
	var published sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&item.ID, &contentType, &item.Slug, &item.Title, &item.Excerpt,
		&item.Body, &item.Status, &featured, &published, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	item.Type = mediatypes.ContentType(contentType)
	if featured.Valid {
		item.FeaturedAttachmentID = &featured.Int64
	}
	if published.Valid {
		t := time.Unix(published.Int64, 0)
		item.PublishedAt = &t
	}
	item.CreatedAt = time.Unix(createdAt, 0)
	item.UpdatedAt = time.Unix(updatedAt, 0)
	return &item, nil
}
