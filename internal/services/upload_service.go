package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/haneul-academy/portal-be/internal/apperr"
)

// UploadServiceProvider defines the interface for attachment storage.
type UploadServiceProvider interface {
	Save(name string, r io.Reader) (string, error)
	Open(id string) (io.ReadCloser, string, error)
	Remove(id string) error
}

// UploadService stores attachment bytes on disk under opaque identifiers.
// Content rows only ever hold the identifier, never the bytes.
type UploadService struct {
	baseDir string
}

// NewUploadService creates an UploadService rooted at baseDir.
func NewUploadService(baseDir string) (*UploadService, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &UploadService{baseDir: baseDir}, nil
}

// Save writes the payload to disk and returns the generated identifier. The
// original extension is kept on the stored name so downloads carry a usable
// content type, but the identifier itself is opaque.
func (s *UploadService) Save(name string, r io.Reader) (string, error) {
	ext := filepath.Ext(name)
	if strings.ContainsAny(ext, "/\\") {
		ext = ""
	}
	id := uuid.New().String() + ext

	f, err := os.Create(filepath.Join(s.baseDir, id))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return id, nil
}

// Open returns a reader over the stored bytes and the stored filename.
func (s *UploadService) Open(id string) (io.ReadCloser, string, error) {
	clean := filepath.Base(id) // no path traversal through the identifier
	f, err := os.Open(filepath.Join(s.baseDir, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", &apperr.NotFoundError{Kind: "upload", ID: id}
		}
		return nil, "", err
	}
	return f, clean, nil
}

// Remove deletes the stored bytes for an identifier.
func (s *UploadService) Remove(id string) error {
	err := os.Remove(filepath.Join(s.baseDir, filepath.Base(id)))
	if os.IsNotExist(err) {
		return &apperr.NotFoundError{Kind: "upload", ID: id}
	}
	return err
}
