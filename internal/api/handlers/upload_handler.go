package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/haneul-academy/portal-be/internal/services"
)

// maxUploadBytes caps attachment size at 32 MiB.
const maxUploadBytes = 32 << 20

// UploadHandler stores and serves file attachments.
type UploadHandler struct {
	service services.UploadServiceProvider
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(service services.UploadServiceProvider) *UploadHandler {
	return &UploadHandler{service: service}
}

// Upload handles POST /uploads with a multipart "file" field and returns the
// opaque identifier to reference from content items.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	id, err := h.service.Save(header.Filename, file)
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to store upload")
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Download handles GET /uploads/{id}, streaming the stored bytes back.
func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f, name, err := h.service.Open(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	if _, err := io.Copy(w, f); err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to stream upload")
	}
}
