package hub

import (
	"sync"

	"github.com/atikulmunna/quill/internal/model"
)

// DefaultBuffer is the channel capacity used when Subscribe is given zero.
const DefaultBuffer = 1024

// chanSub adapts a buffered channel to a Handler.
type chanSub struct {
	mu     sync.Mutex
	ch     chan model.Event
	closed bool
}

// Subscribe returns a buffered channel fed from ch, for consumers that run on
// their own goroutine. If the buffer is full the event is dropped for that
// subscriber and counted in Dropped. cancel unregisters and closes the channel.
func (h *Hub) Subscribe(ch Channel, buffer int) (<-chan model.Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &chanSub{ch: make(chan model.Event, buffer)}

	sub := h.On(ch, func(ev model.Event) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		select {
		case s.ch <- ev:
		default:
			h.dropped.Add(1)
		}
	})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.Off(sub)
			s.mu.Lock()
			s.closed = true
			close(s.ch)
			s.mu.Unlock()
		})
	}
	return s.ch, cancel
}
