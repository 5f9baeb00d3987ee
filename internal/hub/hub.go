// Package hub fans log events out to observers on named channels.
package hub

import (
	"sync"
	"sync/atomic"

	"github.com/atikulmunna/quill/internal/model"
)

// Channel identifies an observer notification path.
type Channel string

const (
	// EveryLog receives every published event regardless of level.
	EveryLog Channel = "every-log"
	// Broadcast receives events that meet their source threshold.
	Broadcast Channel = "broadcast"
	// DebugMirror receives every Debug-level event.
	DebugMirror Channel = "debug-mirror"
)

// Handler observes events. It runs on the publishing goroutine.
type Handler func(model.Event)

// PanicFunc is told about a handler that panicked.
type PanicFunc func(ch Channel, recovered any)

// Subscription identifies a registered handler.
type Subscription struct {
	id      uint64
	channel Channel
}

// Channel returns the channel the subscription belongs to.
func (s Subscription) Channel() Channel { return s.channel }

type entry struct {
	id uint64
	fn Handler
}

// Hub holds ordered handler lists per channel. Emit invokes handlers
// synchronously in registration order; a panicking handler is recovered and
// does not prevent the remaining handlers from running.
type Hub struct {
	mu       sync.RWMutex
	handlers map[Channel][]entry
	nextID   uint64
	onPanic  PanicFunc

	dropped atomic.Int64
	panics  atomic.Int64
}

// New creates an empty Hub. onPanic may be nil.
func New(onPanic PanicFunc) *Hub {
	return &Hub{
		handlers: make(map[Channel][]entry),
		onPanic:  onPanic,
	}
}

// On registers fn on ch.
func (h *Hub) On(ch Channel, fn Handler) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.handlers[ch] = append(h.handlers[ch], entry{id: h.nextID, fn: fn})
	return Subscription{id: h.nextID, channel: ch}
}

// Off removes a handler. It reports whether the subscription was active.
func (h *Hub) Off(sub Subscription) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.handlers[sub.channel]
	for i, e := range list {
		if e.id == sub.id {
			next := make([]entry, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			h.handlers[sub.channel] = next
			return true
		}
	}
	return false
}

// Len returns the number of handlers registered on ch.
func (h *Hub) Len(ch Channel) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers[ch])
}

// Emit delivers ev to every handler on ch. Handlers registered or removed
// during delivery take effect from the next Emit.
func (h *Hub) Emit(ch Channel, ev model.Event) {
	h.mu.RLock()
	list := h.handlers[ch]
	h.mu.RUnlock()

	for _, e := range list {
		h.invoke(ch, e.fn, ev)
	}
}

func (h *Hub) invoke(ch Channel, fn Handler, ev model.Event) {
	defer func() {
		if r := recover(); r != nil {
			h.panics.Add(1)
			if h.onPanic != nil {
				h.onPanic(ch, r)
			}
		}
	}()
	fn(ev)
}

// Panics returns the number of handler panics recovered so far.
func (h *Hub) Panics() int64 {
	return h.panics.Load()
}

// Dropped returns the total number of events dropped for slow channel subscribers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
