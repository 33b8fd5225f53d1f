package handler

import (
	"bytes"
	"net/http"

	"kudos-cafe/internal/middleware"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/service"

	"github.com/rs/zerolog"
)

// MenuHandler handles menu and inventory HTTP requests.
type MenuHandler struct {
	service service.MenuService
	logger  zerolog.Logger
}

// NewMenuHandler creates a new menu handler.
func NewMenuHandler(service service.MenuService, logger zerolog.Logger) *MenuHandler {
	return &MenuHandler{
		service: service,
		logger:  logger.With().Str("handler", "menu").Logger(),
	}
}

// List handles GET /api/menu requests, optionally filtered by ?category=.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListPublic(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// AdminList handles GET /api/admin/menu requests.
func (h *MenuHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListAll(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// Create handles POST /api/admin/menu requests.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.MenuItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	item, err := h.service.Create(r.Context(), middleware.ActorFrom(r.Context()), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// Update handles PUT /api/admin/menu/{id} requests.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.MenuItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	item, err := h.service.Update(r.Context(), middleware.ActorFrom(r.Context()), id, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/admin/menu/{id} requests.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

type stockResponse struct {
	StockQuantity int `json:"stockQuantity"`
}

// AdjustStock handles PATCH /api/admin/menu/{id}/stock requests.
func (h *MenuHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.StockAdjustment
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	qty, err := h.service.AdjustStock(r.Context(), middleware.ActorFrom(r.Context()), id, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, stockResponse{StockQuantity: qty})
}

// ExportInventory handles GET /api/admin/inventory.csv requests. The CSV is
// built in memory so a failure can still be reported as JSON.
func (h *MenuHandler) ExportInventory(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportInventory(r.Context(), middleware.ActorFrom(r.Context()), &buf); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
