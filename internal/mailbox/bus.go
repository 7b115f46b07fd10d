package mailbox

import (
	"context"
	"sync"
)

// UpdateReason identifies the mutation behind an update signal
type UpdateReason string

const (
	ReasonSend       UpdateReason = "send"
	ReasonDraftSaved UpdateReason = "draft_saved"
	ReasonArchive    UpdateReason = "archive"
	ReasonDelete     UpdateReason = "delete"
	ReasonReadToggle UpdateReason = "read_toggle"
)

// UpdateEvent is broadcast after a mutating Store call succeeds.
// Subscribers refetch their own counters and lists; the event carries
// no state, so no component can mutate another's view directly.
type UpdateEvent struct {
	Reason UpdateReason
}

// Bus is the single notify-and-refetch channel shared by the folder
// navigator, the message list and the reader. Dispatch is synchronous:
// the UI model is single-threaded and handlers run on the publishing
// call.
type Bus struct {
	mu   sync.Mutex
	subs map[int]func(context.Context, UpdateEvent)
	next int
}

// NewBus creates a new Bus instance
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(context.Context, UpdateEvent))}
}

// Subscribe registers a handler and returns its unsubscribe function
func (b *Bus) Subscribe(fn func(context.Context, UpdateEvent)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every subscriber
func (b *Bus) Publish(ctx context.Context, event UpdateEvent) {
	b.mu.Lock()
	handlers := make([]func(context.Context, UpdateEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(ctx, event)
	}
}
