package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"vsgtalent-backend/internal/logging"
)

const (
	// webAuthnUsername is the username for the single-operator passkey setup
	webAuthnUsername = "beheerder"
	// webAuthnDisplayName is the display name shown in authenticator prompts
	webAuthnDisplayName = "VSG Talent Beheer"
)

// WebAuthnUser implements webauthn.User for the single operator account.
type WebAuthnUser struct {
	user        *User
	credentials []webauthn.Credential
}

// WebAuthnID returns the user's ID as bytes
func (u *WebAuthnUser) WebAuthnID() []byte {
	return []byte(fmt.Sprintf("%d", u.user.ID))
}

// WebAuthnName returns a human-readable name
func (u *WebAuthnUser) WebAuthnName() string {
	return webAuthnUsername
}

// WebAuthnDisplayName returns the display name
func (u *WebAuthnUser) WebAuthnDisplayName() string {
	return webAuthnDisplayName
}

// WebAuthnCredentials returns all credentials for this user
func (u *WebAuthnUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}

// WebAuthnIcon returns an icon URL (deprecated but required by interface)
func (u *WebAuthnUser) WebAuthnIcon() string {
	return ""
}

// GetUser returns the underlying User
func (u *WebAuthnUser) GetUser() *User {
	return u.user
}

// InitWebAuthnSchema adds the passkey tables if they don't exist.
func (d *Database) InitWebAuthnSchema() error {
	logging.Debug("Initializing WebAuthn database schema...")

	schema := `
	CREATE TABLE IF NOT EXISTS webauthn_credentials (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		credential_id BLOB NOT NULL UNIQUE,
		public_key BLOB NOT NULL,
		attestation_type TEXT NOT NULL,
		aaguid BLOB,
		sign_count INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL DEFAULT 'Passkey',
		transports TEXT,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		last_used_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_webauthn_user ON webauthn_credentials(user_id);

	CREATE TABLE IF NOT EXISTS webauthn_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL UNIQUE,
		session_data BLOB NOT NULL,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_webauthn_session_expires ON webauthn_sessions(expires_at);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := d.db.ExecContext(ctx, schema)
	if err != nil {
		logging.Error("Failed to initialize WebAuthn schema: %v", err)
		return err
	}
	return nil
}

// GetWebAuthnUser returns the operator wrapped for the webauthn library,
// with stored credentials loaded.
func (d *Database) GetWebAuthnUser(ctx context.Context) (*WebAuthnUser, error) {
	d.mu.RLock()

	qctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var user User
	var createdAt, updatedAt int64
	err := d.db.QueryRowContext(qctx,
		"SELECT id, password_hash, created_at, updated_at FROM users LIMIT 1",
	).Scan(&user.ID, &user.PasswordHash, &createdAt, &updatedAt)
	d.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("no user account: %w", err)
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	creds, err := d.GetWebAuthnCredentials(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &WebAuthnUser{user: &user, credentials: creds}, nil
}

// SaveWebAuthnCredential stores a new passkey credential
func (d *Database) SaveWebAuthnCredential(ctx context.Context, userID int64, cred *webauthn.Credential, name string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_webauthn_credential", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	transports := make([]string, len(cred.Transport))
	for i, t := range cred.Transport {
		transports[i] = string(t)
	}
	transportsJSON, err := json.Marshal(transports)
	if err != nil {
		transportsJSON = []byte("[]")
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO webauthn_credentials
		(user_id, credential_id, public_key, attestation_type, aaguid, sign_count, name, transports)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID,
		cred.ID,
		cred.PublicKey,
		cred.AttestationType,
		cred.Authenticator.AAGUID,
		cred.Authenticator.SignCount,
		name,
		string(transportsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	logging.Info("Saved new WebAuthn credential for user %d: %s", userID, name)
	return nil
}

// GetWebAuthnCredentials returns all credentials for a user
func (d *Database) GetWebAuthnCredentials(ctx context.Context, userID int64) ([]webauthn.Credential, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_webauthn_credentials", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT credential_id, public_key, attestation_type, aaguid, sign_count, transports
		FROM webauthn_credentials
		WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer closeRows(rows)

	var creds []webauthn.Credential
	for rows.Next() {
		var cred webauthn.Credential
		var transportsJSON sql.NullString

		err = rows.Scan(&cred.ID, &cred.PublicKey, &cred.AttestationType,
			&cred.Authenticator.AAGUID, &cred.Authenticator.SignCount, &transportsJSON)
		if err != nil {
			return nil, err
		}

		if transportsJSON.Valid && transportsJSON.String != "" {
			var transports []string
			if json.Unmarshal([]byte(transportsJSON.String), &transports) == nil {
				for _, t := range transports {
					cred.Transport = append(cred.Transport, protocol.AuthenticatorTransport(t))
				}
			}
		}
		creds = append(creds, cred)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return creds, nil
}

// HasWebAuthnCredentials reports whether any passkey is registered.
func (d *Database) HasWebAuthnCredentials(ctx context.Context) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM webauthn_credentials").Scan(&count); err != nil {
		return false
	}
	return count > 0
}

// UpdateWebAuthnSignCount records the authenticator's new signature counter
// after a successful assertion.
func (d *Database) UpdateWebAuthnSignCount(ctx context.Context, credentialID []byte, signCount uint32) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_webauthn_credential", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		UPDATE webauthn_credentials
		SET sign_count = ?, last_used_at = strftime('%s', 'now')
		WHERE credential_id = ?`,
		signCount, credentialID,
	)
	return err
}

// webAuthnSessionTTL bounds how long a registration or login ceremony may
// take.
const webAuthnSessionTTL = 5 * time.Minute

// SaveWebAuthnSession stores in-progress ceremony state under a session id.
func (d *Database) SaveWebAuthnSession(ctx context.Context, sessionID string, data *webauthn.SessionData) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_webauthn_session", start, err) }()

	blob, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO webauthn_sessions (session_id, session_data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET session_data = excluded.session_data, expires_at = excluded.expires_at`,
		sessionID, blob, time.Now().Add(webAuthnSessionTTL).Unix(),
	)
	return err
}

// GetWebAuthnSession retrieves and removes in-progress ceremony state.
func (d *Database) GetWebAuthnSession(ctx context.Context, sessionID string) (*webauthn.SessionData, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_webauthn_session", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var blob []byte
	var expiresAt int64
	err = d.db.QueryRowContext(ctx,
		"SELECT session_data, expires_at FROM webauthn_sessions WHERE session_id = ?",
		sessionID,
	).Scan(&blob, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("unknown webauthn session")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	// Ceremony state is single-use.
	if _, delErr := d.db.ExecContext(ctx, "DELETE FROM webauthn_sessions WHERE session_id = ?", sessionID); delErr != nil {
		logging.Warn("failed to delete webauthn session: %v", delErr)
	}

	if time.Now().Unix() > expiresAt {
		err = fmt.Errorf("webauthn session expired")
		return nil, err
	}

	var data webauthn.SessionData
	if err = json.Unmarshal(blob, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &data, nil
}
