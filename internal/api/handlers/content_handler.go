package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/haneul-academy/portal-be/internal/auth"
	"github.com/haneul-academy/portal-be/internal/models"
	"github.com/haneul-academy/portal-be/internal/services"
)

// ContentHandler serves the per-kind content CRUD surface and the shared
// singleton items.
type ContentHandler struct {
	service services.ContentServiceProvider
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(service services.ContentServiceProvider) *ContentHandler {
	return &ContentHandler{service: service}
}

// ContentPayload defines the structure for content creation requests.
type ContentPayload struct {
	Title        string  `json:"title"`
	Body         string  `json:"body"`
	Rating       int     `json:"rating"`
	AttachmentID *string `json:"attachmentId"`
	EventDate    *string `json:"eventDate"` // RFC 3339, schedule kind only
}

// Create handles POST /content/{kind}.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve identity from token", http.StatusInternalServerError)
		return
	}

	kind := models.Kind(chi.URLParam(r, "kind"))
	if !models.ValidKind(kind) {
		http.Error(w, "Unknown content kind", http.StatusBadRequest)
		return
	}

	var payload ContentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item := models.ContentItem{
		Kind:         kind,
		Title:        payload.Title,
		Body:         payload.Body,
		Rating:       payload.Rating,
		AttachmentID: payload.AttachmentID,
	}
	if payload.EventDate != nil {
		t, err := time.Parse(time.RFC3339, *payload.EventDate)
		if err != nil {
			http.Error(w, "Invalid event date, want RFC 3339", http.StatusBadRequest)
			return
		}
		item.EventDate = &t
	}

	created, err := h.service.Create(ident, item)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Str("username", ident.Username).Msg("Failed to create content")
		writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// List handles GET /content/{kind}. Ordering is fixed per kind; an optional
// limit query caps the result below the default.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := models.Kind(chi.URLParam(r, "kind"))
	if !models.ValidKind(kind) {
		http.Error(w, "Unknown content kind", http.StatusBadRequest)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	items, err := h.service.List(kind, limit)
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("Failed to list content")
		writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []models.ContentItem{}
	}

	respondJSON(w, http.StatusOK, items)
}

// Delete handles DELETE /content/{kind}/{id}.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve identity from token", http.StatusInternalServerError)
		return
	}

	kind := models.Kind(chi.URLParam(r, "kind"))
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(ident, kind, id); err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Str("id", id).Str("username", ident.Username).Msg("Failed to delete content")
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SingletonPayload defines the structure for shared-content updates.
type SingletonPayload struct {
	Value string `json:"value"`
}

// GetSingleton handles GET /singletons/{key}.
func (h *ContentHandler) GetSingleton(w http.ResponseWriter, r *http.Request) {
	sg, err := h.service.GetSingleton(chi.URLParam(r, "key"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sg)
}

// SetSingleton handles PUT /singletons/{key}.
func (h *ContentHandler) SetSingleton(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve identity from token", http.StatusInternalServerError)
		return
	}

	var payload SingletonPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sg, err := h.service.SetSingleton(ident, chi.URLParam(r, "key"), payload.Value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sg)
}

// WordOfDayPayload defines the structure for word-of-the-day updates.
type WordOfDayPayload struct {
	Date  string `json:"date"` // YYYY-MM-DD, defaults to today
	Value string `json:"value"`
}

// GetWordOfDay handles GET /word-of-day?date=YYYY-MM-DD.
func (h *ContentHandler) GetWordOfDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	sg, err := h.service.GetWordOfDay(date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sg)
}

// SetWordOfDay handles POST /word-of-day. One entry per date: posting again
// for the same date overwrites it.
func (h *ContentHandler) SetWordOfDay(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve identity from token", http.StatusInternalServerError)
		return
	}

	var payload WordOfDayPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.Date == "" {
		payload.Date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", payload.Date); err != nil {
		http.Error(w, "Invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	sg, err := h.service.SetWordOfDay(ident, payload.Date, payload.Value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sg)
}
