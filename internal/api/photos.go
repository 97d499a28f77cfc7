package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	photoDir       = "photos"
	maxUploadBytes = 50 << 20 // 50 MB
)

// PhotoHandler serves and accepts contact photo files. Photos live next to
// the contact files so a vault stays self-contained when copied around.
type PhotoHandler struct {
	vaultRoot string
}

// NewPhotoHandler creates a handler rooted at the vault directory.
func NewPhotoHandler(vaultRoot string) *PhotoHandler {
	return &PhotoHandler{vaultRoot: vaultRoot}
}

func (h *PhotoHandler) photoPath() string {
	return filepath.Join(h.vaultRoot, photoDir)
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the photos dir.
func (h *PhotoHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	// Reject anything with path separators or traversal.
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.photoPath(), cleaned)
	// Double-check the resolved path is under the photos dir.
	if !strings.HasPrefix(abs, h.photoPath()+string(os.PathSeparator)) && abs != h.photoPath() {
		return "", fmt.Errorf("path escapes photos directory")
	}
	return abs, nil
}

// ServeFile handles GET /photos/{filename}.
func (h *PhotoHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.safeName(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/photos (multipart/form-data, field "file").
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	abs, err := h.safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	// Ensure photos directory exists.
	if err := os.MkdirAll(h.photoPath(), 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create photos dir"))
		return
	}

	dst, err := os.Create(abs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create file"))
		return
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"filename": header.Filename,
		"size":     written,
		"url":      "/photos/" + header.Filename,
	})
}
