package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"kudos-cafe/internal/middleware"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// multipartOverhead is allowed on top of the file size for form fields and
// part headers.
const multipartOverhead = 64 << 10

// GalleryHandler handles gallery uploads and serves stored media.
type GalleryHandler struct {
	service service.GalleryService
	maxSize int64
	logger  zerolog.Logger
}

// NewGalleryHandler creates a new gallery handler.
func NewGalleryHandler(service service.GalleryService, maxSize int64, logger zerolog.Logger) *GalleryHandler {
	return &GalleryHandler{
		service: service,
		maxSize: maxSize,
		logger:  logger.With().Str("handler", "gallery").Logger(),
	}
}

// List handles GET /api/gallery requests.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	images, err := h.service.List(r.Context(), page)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, images)
}

// Upload handles POST /api/admin/gallery multipart requests with a "file"
// part and an optional "title" field.
func (h *GalleryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, model.ErrUploadTooLarge, h.logger)
			return
		}
		writeError(w, r, model.NewValidationError("expected a multipart form"), h.logger)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, model.NewValidationError("file is required"), h.logger)
		return
	}
	defer file.Close()

	img, err := h.service.Upload(
		r.Context(),
		middleware.ActorFrom(r.Context()),
		r.FormValue("title"),
		header.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, img)
}

// Delete handles DELETE /api/admin/gallery/{id} requests.
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), middleware.ActorFrom(r.Context()), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Media handles GET /media/* requests for stored gallery objects.
func (h *GalleryHandler) Media(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	rc, err := h.service.Open(r.Context(), key)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn().Err(err).Str("object_key", key).Msg("failed to stream media")
	}
}
