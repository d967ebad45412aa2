package handlers

import (
	"net/http"

	"github.com/mylab/figlab/internal/storage"
)

// HandleImage serves a stored PNG or JPG
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	folder := storage.SanitizeFolder(urlParam(r, "folder"))
	if folder == "" {
		writeError(w, "Folder name is required", http.StatusBadRequest)
		return
	}

	path, err := h.library.ImagePath(folder, urlParam(r, "filename"))
	if err != nil {
		writeError(w, "Image not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}
