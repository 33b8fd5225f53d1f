// Package conversation turns flat order messages into per-order threads.
package conversation

import (
	"slices"
	"time"

	"kudos-cafe/internal/model"

	"github.com/google/uuid"
)

// Thread is every message of one order, oldest first.
type Thread struct {
	OrderID       uuid.UUID           `json:"orderId"`
	OrderNumber   int64               `json:"orderNumber"`
	Messages      []model.MessageView `json:"messages"`
	LastMessageAt time.Time           `json:"lastMessageAt"`
	HasUnread     bool                `json:"hasUnread"`
	HasUrgent     bool                `json:"hasUrgent"`
	UnreadCount   int                 `json:"unreadCount"`
}

// BuildThreads groups messages by order for the given viewer.
//
// Messages without an order reference cannot be placed in a thread and are
// returned in rejected instead. Every other message appears in exactly one
// thread. Within a thread messages are in ascending CreatedAt order; threads
// are in descending LastMessageAt order. Both sorts are stable, so equal
// timestamps keep input order.
func BuildThreads(messages []model.MessageView, viewerID uuid.UUID) (threads []Thread, rejected []model.MessageView) {
	byOrder := make(map[uuid.UUID]*Thread)
	var order []uuid.UUID

	for _, m := range messages {
		if m.OrderID == uuid.Nil {
			rejected = append(rejected, m)
			continue
		}

		t, ok := byOrder[m.OrderID]
		if !ok {
			t = &Thread{
				OrderID:       m.OrderID,
				OrderNumber:   m.OrderNumber,
				LastMessageAt: m.CreatedAt,
			}
			byOrder[m.OrderID] = t
			order = append(order, m.OrderID)
		}
		t.add(m, viewerID)
	}

	threads = make([]Thread, 0, len(order))
	for _, id := range order {
		t := byOrder[id]
		t.sortMessages()
		threads = append(threads, *t)
	}

	sortThreads(threads)

	return threads, rejected
}

func (t *Thread) add(m model.MessageView, viewerID uuid.UUID) {
	t.Messages = append(t.Messages, m)
	if m.CreatedAt.After(t.LastMessageAt) {
		t.LastMessageAt = m.CreatedAt
	}
	if t.OrderNumber == 0 {
		t.OrderNumber = m.OrderNumber
	}
	if unreadFor(m, viewerID) {
		t.HasUnread = true
		t.UnreadCount++
		if m.IsUrgent {
			t.HasUrgent = true
		}
	}
}

func (t *Thread) sortMessages() {
	slices.SortStableFunc(t.Messages, func(a, b model.MessageView) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func sortThreads(threads []Thread) {
	slices.SortStableFunc(threads, func(a, b Thread) int {
		return b.LastMessageAt.Compare(a.LastMessageAt)
	})
}

// unreadFor reports whether m counts as unread for the viewer. A viewer's
// own messages never do.
func unreadFor(m model.MessageView, viewerID uuid.UUID) bool {
	return !m.IsRead && m.SenderID != viewerID
}
