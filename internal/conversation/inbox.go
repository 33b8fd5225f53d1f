package conversation

import (
	"cmp"
	"slices"
	"sync"

	"kudos-cafe/internal/model"

	"github.com/google/uuid"
)

// Inbox keeps one viewer's messages in memory and rebuilds only the thread
// touched by a change. A change to a message already held replaces it, so
// redelivered or reordered notifications converge on the last write.
type Inbox struct {
	mu       sync.Mutex
	viewerID uuid.UUID
	entries  map[uuid.UUID]entry
	next     int
}

// entry remembers when a message was first seen so that ties on CreatedAt
// break the same way a fresh query would.
type entry struct {
	seq int
	msg model.MessageView
}

// NewInbox seeds an inbox with a snapshot of the viewer's messages.
func NewInbox(viewerID uuid.UUID, snapshot []model.MessageView) *Inbox {
	in := &Inbox{
		viewerID: viewerID,
		entries:  make(map[uuid.UUID]entry, len(snapshot)),
	}
	for _, m := range snapshot {
		if m.OrderID != uuid.Nil {
			in.put(m)
		}
	}
	return in
}

// Apply merges a single changed message and returns the rebuilt thread of
// its order. ok is false for messages that belong to no order.
func (in *Inbox) Apply(m model.MessageView) (thread Thread, ok bool) {
	if m.OrderID == uuid.Nil {
		return Thread{}, false
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	in.put(m)
	return in.thread(m.OrderID)
}

// Threads returns the full ordered view of the inbox.
func (in *Inbox) Threads() []Thread {
	in.mu.Lock()
	defer in.mu.Unlock()

	threads, _ := BuildThreads(in.collect(func(model.MessageView) bool { return true }), in.viewerID)
	return threads
}

// Len returns the number of messages held.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.entries)
}

func (in *Inbox) put(m model.MessageView) {
	e, exists := in.entries[m.ID]
	if !exists {
		e.seq = in.next
		in.next++
	}
	e.msg = m
	in.entries[m.ID] = e
}

func (in *Inbox) thread(orderID uuid.UUID) (Thread, bool) {
	msgs := in.collect(func(m model.MessageView) bool { return m.OrderID == orderID })
	if len(msgs) == 0 {
		return Thread{}, false
	}
	threads, _ := BuildThreads(msgs, in.viewerID)
	return threads[0], true
}

func (in *Inbox) collect(keep func(model.MessageView) bool) []model.MessageView {
	held := make([]entry, 0, len(in.entries))
	for _, e := range in.entries {
		if keep(e.msg) {
			held = append(held, e)
		}
	}
	slices.SortFunc(held, func(a, b entry) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]model.MessageView, len(held))
	for i, e := range held {
		out[i] = e.msg
	}
	return out
}
