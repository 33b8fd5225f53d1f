// Package realtime fans message changes out to connected clients.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"kudos-cafe/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ChangeEvent reports that a message was created or updated. Messages are
// never deleted, so every event is an upsert. OwnerID is the customer who
// owns the message's order and decides who may see it.
type ChangeEvent struct {
	OwnerID uuid.UUID         `json:"ownerId"`
	Message model.MessageView `json:"message"`
}

// NewUpsert builds an upsert event for a message view.
func NewUpsert(v model.MessageView) ChangeEvent {
	return ChangeEvent{OwnerID: v.OrderOwner, Message: v}
}

// Notifier delivers change events to subscribers, possibly on other instances.
type Notifier interface {
	Notify(ctx context.Context, ev ChangeEvent) error
}

// Subscription is one client's view of the change stream.
type Subscription struct {
	C <-chan ChangeEvent

	actor model.Actor
	ch    chan ChangeEvent
}

// visible reports whether the subscriber may see the event.
func (s *Subscription) visible(ev ChangeEvent) bool {
	if ev.Message.OrderID == uuid.Nil {
		return false
	}
	if s.actor.IsAdmin() {
		return true
	}
	return ev.OwnerID == s.actor.ID
}

// Hub is an in-process broadcaster. A slow subscriber loses events rather
// than stalling the sender.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	buffer  int
	dropped atomic.Int64
	logger  zerolog.Logger
}

// NewHub creates a hub whose subscribers buffer up to buffer events.
func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger.With().Str("component", "realtime-hub").Logger(),
	}
}

// Subscribe registers a subscriber for the actor.
func (h *Hub) Subscribe(actor model.Actor) *Subscription {
	ch := make(chan ChangeEvent, h.buffer)
	sub := &Subscription{C: ch, actor: actor, ch: ch}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug().
		Str("actor_id", actor.ID.String()).
		Int("subscribers", n).
		Msg("subscriber registered")

	return sub
}

// Unsubscribe removes a subscriber and closes its channel. It is safe to
// call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}

// Broadcast delivers ev to every subscriber allowed to see it.
func (h *Hub) Broadcast(ev ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if !sub.visible(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.dropped.Add(1)
			h.logger.Warn().
				Str("actor_id", sub.actor.ID.String()).
				Str("message_id", ev.Message.ID.String()).
				Msg("subscriber buffer full, dropping event")
		}
	}
}

// Notify implements Notifier for a single instance.
func (h *Hub) Notify(_ context.Context, ev ChangeEvent) error {
	h.Broadcast(ev)
	return nil
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns the number of events discarded for slow subscribers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close unsubscribes everyone.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
}
