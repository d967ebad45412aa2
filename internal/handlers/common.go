package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mylab/figlab/internal/models"
	"github.com/mylab/figlab/internal/storage"
)

// MaxRequestBytes caps the size of a generation request
const MaxRequestBytes = 50 << 20

type Handler struct {
	library   *storage.Library
	generator Generator
	maxBytes  int64
	now       func() time.Time
}

func New(library *storage.Library, generator Generator) *Handler {
	if generator == nil {
		generator = NewPlaceholderGenerator()
	}
	return &Handler{
		library:   library,
		generator: generator,
		maxBytes:  MaxRequestBytes,
		now:       time.Now,
	}
}

// Routes wires every endpoint of the dev server
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
	)

	r.Post("/api/generate", h.HandleGenerate)
	r.Get("/api/gallery/{folder}", h.HandleGallery)
	r.Get("/api/image/{folder}/{filename}", h.HandleImage)
	r.Get("/api/download-originals/{folder}", h.HandleDownloadOriginals)
	r.Get("/api/folders", h.HandleFolders)
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Response helpers
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "status", code)
	}
	writeJSON(w, code, models.ErrorResponse{Success: false, Error: message})
}

// urlParam returns a decoded route parameter; chi matches on the raw path when one is set.
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
