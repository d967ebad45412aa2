package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/mylab/figlab/internal/models"
	"github.com/mylab/figlab/internal/storage"
)

const (
	maxReferences  = 5
	referenceField = "reference_images[]"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if isTooLarge(err) {
			writeError(w, fmt.Sprintf("File too large. Maximum size is %dMB", h.maxBytes>>20), http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, "Invalid form data: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("Failed to remove multipart temp files", "err", err)
		}
	}()

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt == "" {
		writeError(w, "Prompt is required", http.StatusBadRequest)
		return
	}
	folder := storage.SanitizeFolder(r.FormValue("folder_type"))
	if folder == "" {
		writeError(w, "Folder name is required", http.StatusBadRequest)
		return
	}
	imageSize := r.FormValue("image_size")
	if imageSize != "2K" && imageSize != "4K" {
		imageSize = "2K"
	}

	refs, err := readReferences(r.MultipartForm.File[referenceField])
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := Job{Prompt: prompt, Folder: folder, ImageSize: imageSize, References: refs}
	slog.Info("Generating image", "folder", folder, "image_size", imageSize, "references", len(refs))

	img, err := h.generator.Generate(r.Context(), job)
	if err != nil {
		writeError(w, "Generation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	pngData, jpgData, err := encodeImage(img)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	name, err := h.library.Save(folder, h.now(), pngData, jpgData)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Image saved", "folder", folder, "filename", name)
	writeJSON(w, http.StatusOK, models.GenerateResult{
		Success: true,
		JPGPath: "/api/image/" + folder + "/" + name,
		Message: "Image generated and saved to " + folder,
	})
}

// readReferences takes the first five uploads and drops those without an image extension
func readReferences(headers []*multipart.FileHeader) ([]Reference, error) {
	if len(headers) > maxReferences {
		slog.Warn("Ignoring extra reference images", "received", len(headers), "limit", maxReferences)
		headers = headers[:maxReferences]
	}

	refs := []Reference{}
	for _, fh := range headers {
		if !allowedExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
			slog.Warn("Skipping reference with unsupported extension", "filename", fh.Filename)
			continue
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to read reference %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read reference %s: %w", fh.Filename, err)
		}
		refs = append(refs, Reference{Name: fh.Filename, Data: data})
	}
	return refs, nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}
