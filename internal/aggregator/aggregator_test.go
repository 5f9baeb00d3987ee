package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/quill/internal/dispatch"
	"github.com/atikulmunna/quill/internal/hub"
	"github.com/atikulmunna/quill/internal/model"
)

func start(t *testing.T, ch <-chan model.Event, sources func() int) *Aggregator {
	t.Helper()
	agg := New(ch, func() int64 { return 3 }, sources)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go agg.Start(ctx)
	return agg
}

func TestEPSCalculation(t *testing.T) {
	ch := make(chan model.Event, 100)
	agg := start(t, ch, func() int { return 2 })

	for i := 0; i < 10; i++ {
		ch <- model.Event{Level: model.Info, Message: "test"}
	}

	require.Eventually(t, func() bool { return agg.Snapshot().TotalEvents == 10 },
		time.Second, 10*time.Millisecond)

	stats := agg.Snapshot()
	assert.Greater(t, stats.EPS, 0.0)
	assert.EqualValues(t, 3, stats.DroppedEvents)
	assert.Equal(t, 2, stats.Sources)
}

func TestLevelAndSourceCounts(t *testing.T) {
	ch := make(chan model.Event, 100)
	agg := start(t, ch, func() int { return 1 })

	ch <- model.Event{Source: "root", Level: model.Info}
	ch <- model.Event{Source: "root", Level: model.Info}
	ch <- model.Event{Source: "svc", Level: model.Error}
	ch <- model.Event{Source: "svc", Level: model.Warn}
	ch <- model.Event{Source: "root", Level: model.Error, Internal: true}

	require.Eventually(t, func() bool { return agg.Snapshot().TotalEvents == 5 },
		time.Second, 10*time.Millisecond)

	stats := agg.Snapshot()
	assert.Equal(t, map[string]int64{"INFO": 2, "ERROR": 2, "WARN": 1}, stats.LevelCounts)
	assert.Equal(t, map[string]int64{"root": 3, "svc": 2}, stats.SourceCounts)
	assert.EqualValues(t, 1, stats.InternalEvents)
}

func TestFromDispatcher(t *testing.T) {
	d := dispatch.New()
	ch, cancel := d.Hub().Subscribe(hub.EveryLog, 0)
	defer cancel()

	agg := start(t, ch, func() int { return len(d.Sources()) })

	d.Debug("below threshold still counted")
	d.Named("svc").Critical("down")

	require.Eventually(t, func() bool { return agg.Snapshot().TotalEvents == 2 },
		time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, agg.Snapshot().Sources)
}

func TestStopsOnClose(t *testing.T) {
	ch := make(chan model.Event)
	agg := New(ch, func() int64 { return 0 }, func() int { return 0 })

	done := make(chan struct{})
	go func() {
		agg.Start(context.Background())
		close(done)
	}()
	close(ch)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after channel close")
	}
}
