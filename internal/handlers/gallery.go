package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mylab/figlab/internal/models"
	"github.com/mylab/figlab/internal/storage"
)

func (h *Handler) HandleGallery(w http.ResponseWriter, r *http.Request) {
	folder := storage.SanitizeFolder(urlParam(r, "folder"))
	if folder == "" {
		writeError(w, "Folder name is required", http.StatusBadRequest)
		return
	}

	images, err := h.library.Images(folder)
	if errors.Is(err, storage.ErrFolderNotFound) {
		writeError(w, "Folder not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "Failed to read gallery: "+err.Error(), http.StatusInternalServerError)
		return
	}

	listing := models.GalleryListing{Success: true, Images: images, Count: len(images)}
	if len(images) == 0 {
		listing.Message = "No images found in this folder"
	} else {
		listing.Message = fmt.Sprintf("Found %d images", len(images))
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) HandleFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.library.Folders()
	if err != nil {
		writeError(w, "Failed to list folders: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.FolderList{Success: true, Folders: folders})
}

func (h *Handler) HandleDownloadOriginals(w http.ResponseWriter, r *http.Request) {
	folder := storage.SanitizeFolder(urlParam(r, "folder"))
	if folder == "" {
		writeError(w, "Folder name is required", http.StatusBadRequest)
		return
	}

	count, err := h.library.CountOriginals(folder)
	switch {
	case errors.Is(err, storage.ErrFolderNotFound):
		writeError(w, "Folder not found", http.StatusNotFound)
		return
	case err != nil:
		writeError(w, "Failed to read folder: "+err.Error(), http.StatusInternalServerError)
		return
	case count == 0:
		writeError(w, "No original images found in this folder", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+folder+`_originals.zip"`)

	// Headers are already sent once the archive starts streaming
	if err := h.library.WriteOriginals(w, folder); err != nil {
		slog.Error("Failed to stream originals", "folder", folder, "err", err)
		return
	}
	slog.Info("Originals downloaded", "folder", folder, "files", count)
}
