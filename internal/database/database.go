package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"vsgtalent-backend/internal/logging"
	"vsgtalent-backend/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database manages all persistence for content items, attachments, and
// authentication state.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens (or creates) the SQLite database at dbPath and initializes the
// schema. dbPath must be the full path to the database file and its parent
// directory must already exist and be writable; startup.LoadConfig
// validates this before calling here.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// WAL mode plus a busy timeout keeps concurrent request handlers from
	// hitting "database is locked".
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	schema := `
	-- Content items: posts, evenementen, sponsors
	CREATE TABLE IF NOT EXISTS content_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		slug TEXT NOT NULL,
		title TEXT NOT NULL,
		excerpt TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'publish',
		featured_attachment_id INTEGER,
		published_at INTEGER,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		UNIQUE(type, slug)
	);

	CREATE INDEX IF NOT EXISTS idx_content_type ON content_items(type);
	CREATE INDEX IF NOT EXISTS idx_content_type_status ON content_items(type, status);
	CREATE INDEX IF NOT EXISTS idx_content_published ON content_items(published_at);

	-- Free-form meta values per content item. Values are stored as raw
	-- text; historical rows may hold JSON arrays, double-encoded JSON,
	-- or delimited strings. Only the gallery parser reads them raw.
	CREATE TABLE IF NOT EXISTS content_meta (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content_id INTEGER NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		UNIQUE(content_id, key),
		FOREIGN KEY (content_id) REFERENCES content_items(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_meta_key ON content_meta(key);

	-- Uploaded media files
	CREATE TABLE IF NOT EXISTS attachments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content_id INTEGER,
		path TEXT NOT NULL UNIQUE,
		mime_type TEXT NOT NULL,
		media_type TEXT NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		alt_text TEXT NOT NULL DEFAULT '',
		caption TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (content_id) REFERENCES content_items(id) ON DELETE SET NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attachments_content ON attachments(content_id);
	CREATE INDEX IF NOT EXISTS idx_attachments_type ON attachments(media_type);

	-- Taxonomy terms (competitie, seizoen)
	CREATE TABLE IF NOT EXISTS terms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taxonomy TEXT NOT NULL,
		slug TEXT NOT NULL,
		name TEXT NOT NULL,
		UNIQUE(taxonomy, slug)
	);

	CREATE INDEX IF NOT EXISTS idx_terms_taxonomy ON terms(taxonomy);

	CREATE TABLE IF NOT EXISTS content_terms (
		content_id INTEGER NOT NULL,
		term_id INTEGER NOT NULL,
		UNIQUE(content_id, term_id),
		FOREIGN KEY (content_id) REFERENCES content_items(id) ON DELETE CASCADE,
		FOREIGN KEY (term_id) REFERENCES terms(id) ON DELETE CASCADE
	);

	-- Key/value options
	CREATE TABLE IF NOT EXISTS options (
		key TEXT PRIMARY KEY,
		value TEXT
	);

	-- Users table (single operator account, password only)
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	-- Sessions table
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL UNIQUE,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`

	_, err = d.db.ExecContext(ctx, schema)
	if err != nil {
		return err
	}

	return d.runMigrations(ctx)
}

// runMigrations applies database schema migrations
func (d *Database) runMigrations(ctx context.Context) error {
	// Migration 1: add width/height columns to attachments for databases
	// created before dimensions were recorded.
	var columnExists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('attachments')
		WHERE name='width'
	`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check for width column: %w", err)
	}

	if !columnExists {
		logging.Info("Migrating database: adding width/height columns to attachments table")

		for _, stmt := range []string{
			`ALTER TABLE attachments ADD COLUMN width INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE attachments ADD COLUMN height INTEGER NOT NULL DEFAULT 0`,
		} {
			if _, err = d.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to add dimension columns: %w", err)
			}
		}

		logging.Info("Migration complete: dimension columns added")
	}

	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logging.Error("error closing rows: %v", err)
	}
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection and file size metrics.
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))

	for suffix, label := range map[string]string{"": "main", "-wal": "wal", "-shm": "shm"} {
		if info, err := os.Stat(d.dbPath + suffix); err == nil {
			metrics.DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
		}
	}
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	// A read-only WAL or SHM file left behind by another process will
	// break all writes; fix permissions up front when possible.
	for _, suffix := range []string{"", "-wal", "-shm"} {
		path := dbPath + suffix
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("Database file %s is read-only (mode: %v)", path, info.Mode())
			if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
				logging.Error("Failed to fix permissions on %s: %v", path, chmodErr)
			} else {
				logging.Info("Fixed permissions on %s", path)
			}
		}
	}

	return nil
}
