package handler

import (
	"context"
	"net/http"
	"strings"

	"kudos-cafe/internal/middleware"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MessageHandler handles the order conversation endpoints.
type MessageHandler struct {
	service service.MessageService
	logger  zerolog.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(service service.MessageService, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		logger:  logger.With().Str("handler", "message").Logger(),
	}
}

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(IdempotencyHeader))
}

// RequestCancellation handles POST /api/orders/{id}/cancellation requests.
func (h *MessageHandler) RequestCancellation(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.CancellationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := h.service.RequestCancellation(r.Context(), middleware.ActorFrom(r.Context()), orderID, &req, idempotencyKey(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// RequestReorder handles POST /api/orders/{id}/reorder requests.
func (h *MessageHandler) RequestReorder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.ReorderRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, h.logger)
			return
		}
	}

	msg, err := h.service.RequestReorder(r.Context(), middleware.ActorFrom(r.Context()), orderID, &req, idempotencyKey(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// Reply handles POST /api/orders/{id}/messages requests.
func (h *MessageHandler) Reply(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.ReplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	msg, err := h.service.Reply(r.Context(), middleware.ActorFrom(r.Context()), orderID, &req, idempotencyKey(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// Threads handles GET /api/messages/threads requests.
func (h *MessageHandler) Threads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.service.ListThreads(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, threads)
}

// MarkRead handles POST /api/messages/{id}/read requests.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.MarkRead(r.Context(), middleware.ActorFrom(r.Context()), messageID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Approve handles POST /api/admin/messages/{id}/approve requests.
func (h *MessageHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.ApproveRefund)
}

// Deny handles POST /api/admin/messages/{id}/deny requests.
func (h *MessageHandler) Deny(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.DenyCancellation)
}

type decision func(ctx context.Context, actor model.Actor, requestID uuid.UUID, req *model.DecisionRequest) (*model.OrderMessage, error)

func (h *MessageHandler) decide(w http.ResponseWriter, r *http.Request, fn decision) {
	requestID, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.DecisionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, h.logger)
			return
		}
	}

	msg, err := fn(r.Context(), middleware.ActorFrom(r.Context()), requestID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// Contact handles POST /api/contact requests.
func (h *MessageHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var form model.ContactForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	msg, err := h.service.SubmitContactInquiry(r.Context(), &form)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// ContactInquiries handles GET /api/admin/contact requests.
func (h *MessageHandler) ContactInquiries(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	inquiries, err := h.service.ListContactInquiries(r.Context(), middleware.ActorFrom(r.Context()), page)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, inquiries)
}
