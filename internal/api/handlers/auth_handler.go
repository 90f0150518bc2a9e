package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haneul-academy/portal-be/internal/apperr"
	"github.com/haneul-academy/portal-be/internal/auth"
	"github.com/haneul-academy/portal-be/internal/models"
	"github.com/haneul-academy/portal-be/internal/services"
)

// AuthHandler handles registration, login, and session endpoints.
type AuthHandler struct {
	service services.UserServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider) *AuthHandler {
	return &AuthHandler{service: service}
}

// CredentialsPayload defines the structure for register and login requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles new member registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.Username == "" || payload.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(payload.Username, payload.Password)
	if err != nil {
		if !errors.Is(err, apperr.ErrDuplicateUsername) {
			log.Error().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		}
		writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// Login resolves credentials (or an elevation passphrase) into a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ident, err := h.service.Authenticate(payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed authentication attempt")
		// The passphrase path reports a missing account distinctly; a plain
		// credential mismatch stays a 401.
		if errors.Is(err, apperr.ErrUnknownUser) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		writeServiceError(w, err)
		return
	}

	h.issueSession(w, ident)
}

// Guest issues a session for the shared guest identity.
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	h.issueSession(w, h.service.Guest())
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, ident models.Identity) {
	token, err := auth.GenerateToken(ident)
	if err != nil {
		log.Error().Err(err).Str("username", ident.Username).Msg("Failed to generate session token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	// Set Secure flag based on environment.
	isProd := os.Getenv("APP_ENV") == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":    token,
		"identity": ident,
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me returns the identity behind the current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve identity from token", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, ident)
}
