package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"vsgtalent-backend/internal/mediatypes"
)

// CreateAttachment stores a new attachment record and returns its id.
func (d *Database) CreateAttachment(ctx context.Context, a *Attachment) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_attachment", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, `
		INSERT INTO attachments (content_id, path, mime_type, media_type, width, height,
		                         title, alt_text, caption, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ContentID, a.Path, a.MimeType, string(a.MediaType), a.Width, a.Height,
		a.Title, a.AltText, a.Caption, a.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create attachment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// GetAttachment returns one attachment by id.
func (d *Database) GetAttachment(ctx context.Context, id int64) (*Attachment, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_attachment", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		SELECT id, content_id, path, mime_type, media_type, width, height,
		       title, alt_text, caption, description, created_at, updated_at
		FROM attachments WHERE id = ?`, id)

	a, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	return a, err
}

// ListAttachments returns attachments, optionally filtered to one content
// item. A nil contentID lists everything.
func (d *Database) ListAttachments(ctx context.Context, contentID *int64) ([]Attachment, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_attachments", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	query := `
		SELECT id, content_id, path, mime_type, media_type, width, height,
		       title, alt_text, caption, description, created_at, updated_at
		FROM attachments`
	var args []interface{}
	if contentID != nil {
		query += " WHERE content_id = ?"
		args = append(args, *contentID)
	}
	query += " ORDER BY id"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer closeRows(rows)

	var out []Attachment
	for rows.Next() {
		a, scanErr := scanAttachment(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		out = append(out, *a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateAttachmentFile records the new file path, MIME type, and dimensions
// after re-encoding. The attachment keeps its id; only the stored bytes
// moved.
func (d *Database) UpdateAttachmentFile(ctx context.Context, id int64, path, mimeType string, width, height int) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_attachment", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, `
		UPDATE attachments
		SET path = ?, mime_type = ?, width = ?, height = ?, updated_at = strftime('%s', 'now')
		WHERE id = ?`,
		path, mimeType, width, height, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update attachment file: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// UpdateAttachmentLabels stores the generated title, alt text, caption, and
// description.
func (d *Database) UpdateAttachmentLabels(ctx context.Context, id int64, title, altText, caption, description string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_attachment", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, `
		UPDATE attachments
		SET title = ?, alt_text = ?, caption = ?, description = ?, updated_at = strftime('%s', 'now')
		WHERE id = ?`,
		title, altText, caption, description, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update attachment labels: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// RenameAttachment updates the stored path and owning content item after a
// file relocation.
func (d *Database) RenameAttachment(ctx context.Context, id int64, newPath string, contentID *int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("rename_attachment", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, `
		UPDATE attachments
		SET path = ?, content_id = ?, updated_at = strftime('%s', 'now')
		WHERE id = ?`,
		newPath, contentID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to rename attachment: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// CountMissingFiles reports how many attachment records point at files that
// no longer exist on disk.
func (d *Database) CountMissingFiles(ctx context.Context) (int, error) {
	attachments, err := d.ListAttachments(ctx, nil)
	if err != nil {
		return 0, err
	}

	missing := 0
	for _, a := range attachments {
		if _, statErr := os.Stat(a.Path); statErr != nil {
			missing++
		}
	}
	return missing, nil
}

func scanAttachment(row rowScanner) (*Attachment, error) {
	var a Attachment
	var contentID sql.NullInt64
	var mediaType string
	var createdAt, updatedAt int64

	err := row.Scan(&a.ID, &contentID, &a.Path, &a.MimeType, &mediaType,
		&a.Width, &a.Height, &a.Title, &a.AltText, &a.Caption, &a.Description,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if contentID.Valid {
		a.ContentID = &contentID.Int64
	}
	a.MediaType = mediatypes.MediaType(mediaType)
	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updatedAt, 0)
	return &a, nil
}
