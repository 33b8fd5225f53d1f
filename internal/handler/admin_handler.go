package handler

import (
	"net/http"

	"kudos-cafe/internal/middleware"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/service"

	"github.com/rs/zerolog"
)

// AdminHandler handles user management and dashboard requests.
type AdminHandler struct {
	service service.AdminService
	logger  zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(service service.AdminService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.With().Str("handler", "admin").Logger(),
	}
}

// Users handles GET /api/admin/users requests.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	profiles, err := h.service.ListUsers(r.Context(), middleware.ActorFrom(r.Context()), page)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, profiles)
}

// UpdateRole handles PATCH /api/admin/users/{id}/role requests.
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.RoleUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	profile, err := h.service.UpdateRole(r.Context(), middleware.ActorFrom(r.Context()), id, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Analytics handles GET /api/admin/analytics requests.
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Analytics(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
