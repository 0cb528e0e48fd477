package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
)

// FileLocator resolves a served upload name to a path on disk.
type FileLocator interface {
	FilePath(name string) (string, error)
}

// UploadHandler serves locally stored portfolio media.
type UploadHandler struct {
	files FileLocator
}

// NewUploadHandler creates a handler backed by files.
func NewUploadHandler(files FileLocator) *UploadHandler {
	return &UploadHandler{files: files}
}

// ServeFile handles GET /uploads/portfolio/{filename}.
func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.files.FilePath(chi.URLParam(r, "filename"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid file name"))
		return
	}
	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		writeJSON(w, http.StatusNotFound, errorBody("File not found"))
		return
	}
	http.ServeFile(w, r, abs)
}
