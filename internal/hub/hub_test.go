package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/quill/internal/model"
)

func event(level model.Level, msg string) model.Event {
	return model.Event{Source: "test", Level: level, Message: msg, Line: msg}
}

func TestEmitInRegistrationOrder(t *testing.T) {
	h := New(nil)

	var got []string
	h.On(Broadcast, func(e model.Event) { got = append(got, "first:"+e.Message) })
	h.On(Broadcast, func(e model.Event) { got = append(got, "second:"+e.Message) })
	h.On(EveryLog, func(e model.Event) { got = append(got, "every:"+e.Message) })

	h.Emit(Broadcast, event(model.Error, "disk full"))

	assert.Equal(t, []string{"first:disk full", "second:disk full"}, got)
}

func TestOff(t *testing.T) {
	h := New(nil)

	calls := 0
	sub := h.On(EveryLog, func(model.Event) { calls++ })
	assert.Equal(t, EveryLog, sub.Channel())
	assert.Equal(t, 1, h.Len(EveryLog))

	h.Emit(EveryLog, event(model.Info, "a"))
	assert.True(t, h.Off(sub))
	assert.False(t, h.Off(sub))
	h.Emit(EveryLog, event(model.Info, "b"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, h.Len(EveryLog))
}

func TestHandlerPanicIsIsolated(t *testing.T) {
	var (
		panicked  []Channel
		recovered any
	)
	h := New(func(ch Channel, r any) {
		panicked = append(panicked, ch)
		recovered = r
	})

	after := 0
	h.On(Broadcast, func(model.Event) { panic("observer bug") })
	h.On(Broadcast, func(model.Event) { after++ })

	require.NotPanics(t, func() { h.Emit(Broadcast, event(model.Warn, "x")) })

	assert.Equal(t, 1, after, "handlers after a panicking one still run")
	assert.Equal(t, []Channel{Broadcast}, panicked)
	assert.Equal(t, "observer bug", recovered)
	assert.Equal(t, int64(1), h.Panics())
}

func TestHandlerMayUnsubscribeDuringEmit(t *testing.T) {
	h := New(nil)

	var sub Subscription
	calls := 0
	sub = h.On(EveryLog, func(model.Event) {
		calls++
		h.Off(sub)
	})

	h.Emit(EveryLog, event(model.Info, "a"))
	h.Emit(EveryLog, event(model.Info, "b"))
	assert.Equal(t, 1, calls)
}

func TestSubscribeReceives(t *testing.T) {
	h := New(nil)

	sub1, cancel1 := h.Subscribe(Broadcast, 10)
	defer cancel1()
	sub2, cancel2 := h.Subscribe(Broadcast, 10)
	defer cancel2()

	h.Emit(Broadcast, event(model.Error, "disk full"))

	for i, sub := range []<-chan model.Event{sub1, sub2} {
		select {
		case e := <-sub:
			assert.Equal(t, model.Error, e.Level, "sub%d", i+1)
		case <-time.After(time.Second):
			t.Fatalf("sub%d: timed out", i+1)
		}
	}
}

func TestSubscribeSlowConsumer(t *testing.T) {
	h := New(nil)

	// Subscribe but never read.
	_, cancel := h.Subscribe(EveryLog, 4)
	defer cancel()

	for i := 0; i < 10; i++ {
		h.Emit(EveryLog, event(model.Info, "line"))
	}

	assert.Equal(t, int64(6), h.Dropped())
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	h := New(nil)

	ch, cancel := h.Subscribe(EveryLog, 0)
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Len(EveryLog))

	assert.NotPanics(t, func() { h.Emit(EveryLog, event(model.Info, "late")) })
}

func TestConcurrentEmitAndCancel(t *testing.T) {
	h := New(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		ch, cancel := h.Subscribe(EveryLog, 1)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Emit(EveryLog, event(model.Info, "x"))
			}
			cancel()
		}()
	}
	wg.Wait()
}
