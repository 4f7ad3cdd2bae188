package database

import (
	"context"
	"fmt"
	"time"
)

// ListTerms returns every term in one taxonomy, ordered by name.
func (d *Database) ListTerms(ctx context.Context, taxonomy string) ([]Term, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_terms", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT id, taxonomy, slug, name FROM terms WHERE taxonomy = ? ORDER BY name COLLATE NOCASE",
		taxonomy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list terms: %w", err)
	}
	defer closeRows(rows)

	var out []Term
	for rows.Next() {
		var t Term
		if err = rows.Scan(&t.ID, &t.Taxonomy, &t.Slug, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveTerm inserts a term if it does not already exist and returns its id.
func (d *Database) SaveTerm(ctx context.Context, taxonomy, slug, name string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_term", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO terms (taxonomy, slug, name) VALUES (?, ?, ?)
		ON CONFLICT(taxonomy, slug) DO UPDATE SET name = excluded.name`,
		taxonomy, slug, name,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save term: %w", err)
	}

	var id int64
	err = d.db.QueryRowContext(ctx,
		"SELECT id FROM terms WHERE taxonomy = ? AND slug = ?", taxonomy, slug,
	).Scan(&id)
	return id, err
}

// AssignTerm links a term to a content item. Assigning twice is a no-op.
func (d *Database) AssignTerm(ctx context.Context, contentID, termID int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("assign_term", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO content_terms (content_id, term_id) VALUES (?, ?)
		ON CONFLICT(content_id, term_id) DO NOTHING`,
		contentID, termID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign term: %w", err)
	}
	return nil
}

// TermsForContent returns the terms linked to one content item.
func (d *Database) TermsForContent(ctx context.Context, contentID int64) ([]Term, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_terms", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT t.id, t.taxonomy, t.slug, t.name
		FROM terms t
		JOIN content_terms ct ON ct.term_id = t.id
		WHERE ct.content_id = ?
		ORDER BY t.taxonomy, t.name COLLATE NOCASE`, contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list content terms: %w", err)
	}
	defer closeRows(rows)

	var out []Term
	for rows.Next() {
		var t Term
		if err = rows.Scan(&t.ID, &t.Taxonomy, &t.Slug, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
