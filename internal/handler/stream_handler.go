package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kudos-cafe/internal/conversation"
	"kudos-cafe/internal/middleware"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/realtime"
	"kudos-cafe/internal/service"

	"github.com/rs/zerolog"
)

// Subscriber hands out per-client change subscriptions.
type Subscriber interface {
	Subscribe(actor model.Actor) *realtime.Subscription
	Unsubscribe(sub *realtime.Subscription)
}

// StreamHandler pushes conversation updates to a client over SSE.
type StreamHandler struct {
	messages  service.MessageService
	hub       Subscriber
	keepAlive time.Duration
	logger    zerolog.Logger
}

// NewStreamHandler creates a new stream handler. A comment line is sent
// every keepAlive to hold idle connections open.
func NewStreamHandler(messages service.MessageService, hub Subscriber, keepAlive time.Duration, logger zerolog.Logger) *StreamHandler {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &StreamHandler{
		messages:  messages,
		hub:       hub,
		keepAlive: keepAlive,
		logger:    logger.With().Str("handler", "stream").Logger(),
	}
}

// ServeHTTP handles GET /api/messages/stream. The first event carries every
// thread; each later event carries the one thread a change touched.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, fmt.Errorf("streaming unsupported"), h.logger)
		return
	}

	// Subscribe before taking the snapshot so no change falls between them.
	sub := h.hub.Subscribe(actor)
	defer h.hub.Unsubscribe(sub)

	snapshot, err := h.messages.Snapshot(ctx, actor)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	inbox := conversation.NewInbox(actor.ID, snapshot)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "retry: 2000\n\n")
	if err := h.send(w, "threads", inbox.Threads()); err != nil {
		return
	}
	flusher.Flush()

	h.logger.Debug().Str("actor_id", actor.ID.String()).Int("messages", inbox.Len()).Msg("stream opened")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug().Str("actor_id", actor.ID.String()).Msg("stream closed by client")
			return

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()

		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := h.apply(w, inbox, ev); err != nil {
				h.logger.Warn().Err(err).Str("actor_id", actor.ID.String()).Msg("failed to write stream event")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *StreamHandler) apply(w http.ResponseWriter, inbox *conversation.Inbox, ev realtime.ChangeEvent) error {
	thread, ok := inbox.Apply(ev.Message)
	if !ok {
		return nil
	}
	return h.send(w, "thread", thread)
}

func (h *StreamHandler) send(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return nil
}
