package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"kudos-cafe/internal/model"
	"kudos-cafe/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// IdempotencyHeader lets clients retry a submission without duplicating it.
const IdempotencyHeader = "Idempotency-Key"

var statusByCode = map[string]int{
	model.ErrCodeInvalidJSON:         http.StatusBadRequest,
	model.ErrCodeValidation:          http.StatusBadRequest,
	model.ErrCodeMenuItemNotFound:    http.StatusBadRequest,
	model.ErrCodeMenuItemUnavailable: http.StatusBadRequest,
	model.ErrCodeUnauthorised:        http.StatusUnauthorized,
	model.ErrCodeForbidden:           http.StatusForbidden,
	model.ErrCodeOrderNotFound:       http.StatusNotFound,
	model.ErrCodeMessageNotFound:     http.StatusNotFound,
	model.ErrCodeReviewNotFound:      http.StatusNotFound,
	model.ErrCodeImageNotFound:       http.StatusNotFound,
	model.ErrCodeProfileNotFound:     http.StatusNotFound,
	model.ErrCodeNotCancellable:      http.StatusConflict,
	model.ErrCodeNotReorderable:      http.StatusConflict,
	model.ErrCodeNotReviewable:       http.StatusConflict,
	model.ErrCodeInvalidTransition:   http.StatusConflict,
	model.ErrCodeNotCancellationReq:  http.StatusConflict,
	model.ErrCodeReviewExists:        http.StatusConflict,
	model.ErrCodeDuplicateRequest:    http.StatusConflict,
	model.ErrCodeRequestResolved:     http.StatusConflict,
	model.ErrCodeUploadTooLarge:      http.StatusRequestEntityTooLarge,
	model.ErrCodeUnsupportedMedia:    http.StatusUnsupportedMediaType,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out, so an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err to a status and writes the standard error body. Domain
// errors keep their message; anything else is logged and hidden behind a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	reqID := middleware.GetReqID(r.Context())

	var de *model.DomainError
	if errors.As(err, &de) {
		status, ok := statusByCode[de.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		logger.Debug().
			Str("code", de.Code).
			Int("status", status).
			Str("request_id", reqID).
			Msg(de.Message)
		writeJSON(w, status, model.ErrorResponse{Error: de.Code, Message: de.Message, CorrelationID: reqID})
		return
	}

	logger.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", reqID).
		Msg("handler error")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:         model.ErrCodeInternalError,
		Message:       "internal server error",
		CorrelationID: reqID,
	})
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	return nil
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, model.NewValidationError("invalid id format")
	}
	return id, nil
}

// pageFromQuery reads limit and offset query parameters.
func pageFromQuery(r *http.Request) (repository.Page, error) {
	var page repository.Page
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return page, model.NewValidationError("invalid limit parameter")
		}
		page.Limit = limit
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil || offset < 0 {
			return page, model.NewValidationError("invalid offset parameter")
		}
		page.Offset = offset
	}
	return page, nil
}
