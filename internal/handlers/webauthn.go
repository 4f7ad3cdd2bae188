package handlers

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"vsgtalent-backend/internal/database"
	"vsgtalent-backend/internal/logging"
	"vsgtalent-backend/internal/startup"
)

// webAuthnInstance is the WebAuthn configuration instance
var webAuthnInstance *webauthn.WebAuthn

// webAuthnEnabled tracks whether WebAuthn is available
var webAuthnEnabled bool

// InitWebAuthn initializes the WebAuthn configuration
func InitWebAuthn(config *startup.Config, db *database.Database) error {
	if err := db.InitWebAuthnSchema(); err != nil {
		logging.Warn("passkey schema init failed, passkey login disabled: %v", err)
		webAuthnEnabled = false
		return nil
	}

	var err error
	webAuthnInstance, err = webauthn.New(&webauthn.Config{
		RPDisplayName:         "VSG Talent Beheer",
		RPID:                  config.WebAuthnRPID,
		RPOrigins:             []string{config.WebAuthnOrigin},
		AttestationPreference: protocol.PreferNoAttestation,
	})
	if err != nil {
		logging.Warn("passkey configuration invalid, passkey login disabled: %v", err)
		webAuthnEnabled = false
		return nil
	}

	webAuthnEnabled = true
	logging.Info("passkey login configured for RP %s", config.WebAuthnRPID)
	return nil
}

// credentialsToDescriptors converts credentials for the exclusion list
func credentialsToDescriptors(creds []webauthn.Credential) []protocol.CredentialDescriptor {
	descriptors := make([]protocol.CredentialDescriptor, len(creds))
	for i, cred := range creds {
		descriptors[i] = protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: cred.ID,
			Transport:    cred.Transport,
		}
	}
	return descriptors
}

// WebAuthnAvailable returns whether passkey login is available
func (h *Handlers) WebAuthnAvailable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	available := webAuthnEnabled && h.db.HasWebAuthnCredentials(ctx)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"available": available,
		"enabled":   webAuthnEnabled,
	})
}

// BeginWebAuthnRegistration starts the passkey registration process.
// Registration requires an existing password session.
func (h *Handlers) BeginWebAuthnRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !webAuthnEnabled {
		http.Error(w, "Passkeys not configured", http.StatusServiceUnavailable)
		return
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		http.Error(w, "Must be logged in to register passkey", http.StatusUnauthorized)
		return
	}
	if _, err = h.db.ValidateSession(cookie.Value); err != nil {
		http.Error(w, "Invalid session", http.StatusUnauthorized)
		return
	}

	user, err := h.db.GetWebAuthnUser(ctx)
	if err != nil {
		logging.Error("Failed to get WebAuthn user: %v", err)
		http.Error(w, "Failed to get user", http.StatusInternalServerError)
		return
	}

	authSelection := protocol.AuthenticatorSelection{
		AuthenticatorAttachment: protocol.Platform,
		UserVerification:        protocol.VerificationRequired,
		ResidentKey:             protocol.ResidentKeyRequirementPreferred,
	}

	options, session, err := webAuthnInstance.BeginRegistration(user,
		webauthn.WithExclusions(credentialsToDescriptors(user.WebAuthnCredentials())),
		webauthn.WithAuthenticatorSelection(authSelection),
	)
	if err != nil {
		logging.Error("Failed to begin passkey registration: %v", err)
		http.Error(w, "Failed to start registration", http.StatusInternalServerError)
		return
	}

	sessionID := generateWebAuthnSessionID()
	if sessionID == "" {
		http.Error(w, "Failed to store session", http.StatusInternalServerError)
		return
	}
	if err := h.db.SaveWebAuthnSession(ctx, sessionID, session); err != nil {
		http.Error(w, "Failed to store session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"options":   options,
		"sessionId": sessionID,
	})
}

// FinishWebAuthnRegistration completes the passkey registration
func (h *Handlers) FinishWebAuthnRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !webAuthnEnabled {
		http.Error(w, "Passkeys not configured", http.StatusServiceUnavailable)
		return
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		http.Error(w, "Must be logged in", http.StatusUnauthorized)
		return
	}
	if _, err = h.db.ValidateSession(cookie.Value); err != nil {
		http.Error(w, "Invalid session", http.StatusUnauthorized)
		return
	}

	var req struct {
		SessionID  string          `json:"sessionId"`
		Name       string          `json:"name"`
		Credential json.RawMessage `json:"credential"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		req.Name = "Passkey"
	}

	session, err := h.db.GetWebAuthnSession(ctx, req.SessionID)
	if err != nil {
		http.Error(w, "Invalid or expired session", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetWebAuthnUser(ctx)
	if err != nil {
		http.Error(w, "Failed to get user", http.StatusInternalServerError)
		return
	}

	credentialResponse, err := protocol.ParseCredentialCreationResponseBody(bytes.NewReader(req.Credential))
	if err != nil {
		logging.Warn("Failed to parse credential: %v", err)
		http.Error(w, "Invalid credential", http.StatusBadRequest)
		return
	}

	credential, err := webAuthnInstance.CreateCredential(user, *session, credentialResponse)
	if err != nil {
		logging.Warn("Failed to create credential: %v", err)
		http.Error(w, "Failed to verify credential", http.StatusBadRequest)
		return
	}

	if err := h.db.SaveWebAuthnCredential(ctx, user.GetUser().ID, credential, req.Name); err != nil {
		logging.Error("Failed to save credential: %v", err)
		http.Error(w, "Failed to save credential", http.StatusInternalServerError)
		return
	}

	logging.Info("Registered new passkey: %s", req.Name)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"success": true,
		"message": "Passkey registered successfully",
	})
}

// BeginWebAuthnLogin starts the passkey authentication process
func (h *Handlers) BeginWebAuthnLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !webAuthnEnabled {
		http.Error(w, "Passkeys not configured", http.StatusServiceUnavailable)
		return
	}
	if !h.db.HasWebAuthnCredentials(ctx) {
		http.Error(w, "No passkeys registered", http.StatusNotFound)
		return
	}

	user, err := h.db.GetWebAuthnUser(ctx)
	if err != nil {
		http.Error(w, "No user found", http.StatusNotFound)
		return
	}
	if len(user.WebAuthnCredentials()) == 0 {
		http.Error(w, "No passkeys registered", http.StatusNotFound)
		return
	}

	options, session, err := webAuthnInstance.BeginLogin(user,
		webauthn.WithUserVerification(protocol.VerificationRequired),
	)
	if err != nil {
		logging.Error("Failed to begin passkey login: %v", err)
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}

	sessionID := generateWebAuthnSessionID()
	if sessionID == "" {
		http.Error(w, "Failed to store session", http.StatusInternalServerError)
		return
	}
	if err := h.db.SaveWebAuthnSession(ctx, sessionID, session); err != nil {
		http.Error(w, "Failed to store session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"options":   options,
		"sessionId": sessionID,
	})
}

// FinishWebAuthnLogin completes the passkey authentication
func (h *Handlers) FinishWebAuthnLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !webAuthnEnabled {
		http.Error(w, "Passkeys not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		SessionID  string          `json:"sessionId"`
		Credential json.RawMessage `json:"credential"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	session, err := h.db.GetWebAuthnSession(ctx, req.SessionID)
	if err != nil {
		http.Error(w, "Invalid or expired session", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetWebAuthnUser(ctx)
	if err != nil {
		http.Error(w, "Failed to get user", http.StatusInternalServerError)
		return
	}

	credentialResponse, err := protocol.ParseCredentialRequestResponseBody(bytes.NewReader(req.Credential))
	if err != nil {
		logging.Warn("Failed to parse credential: %v", err)
		http.Error(w, "Invalid credential", http.StatusBadRequest)
		return
	}

	credential, err := webAuthnInstance.ValidateLogin(user, *session, credentialResponse)
	if err != nil {
		logging.Warn("Passkey login failed: %v", err)
		http.Error(w, "Authentication failed", http.StatusUnauthorized)
		return
	}

	if err := h.db.UpdateWebAuthnSignCount(ctx, credential.ID, credential.Authenticator.SignCount); err != nil {
		logging.Error("Failed to update credential sign count: %v", err)
	}

	authSession, err := h.db.CreateSession(user.GetUser().ID)
	if err != nil {
		logging.Error("Failed to create session: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    authSession.Token,
		Path:     "/",
		Expires:  authSession.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	logging.Info("User authenticated via passkey")

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success:   true,
		ExpiresIn: int(database.SessionDuration.Seconds()),
	})
}

// generateWebAuthnSessionID creates a random session ID
func generateWebAuthnSessionID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		logging.Error("Failed to generate random session ID: %v", err)
		return ""
	}
	return base64.URLEncoding.EncodeToString(b)
}
