// Package aggregator keeps rolling counters over the event stream.
package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/atikulmunna/quill/internal/model"
)

// window is the span used for the events-per-second rate.
const window = 5 * time.Second

// Stats holds a point-in-time snapshot of aggregated counters.
type Stats struct {
	Uptime         string           `json:"uptime"`
	TotalEvents    int64            `json:"total_events"`
	InternalEvents int64            `json:"internal_events"`
	EPS            float64          `json:"eps"`
	LevelCounts    map[string]int64 `json:"level_counts"`
	SourceCounts   map[string]int64 `json:"source_counts"`
	DroppedEvents  int64            `json:"dropped_events"`
	Sources        int              `json:"sources"`
}

// Aggregator consumes a hub subscription and computes counters.
type Aggregator struct {
	mu           sync.RWMutex
	startTime    time.Time
	total        int64
	internal     int64
	levelCounts  map[string]int64
	sourceCounts map[string]int64
	recent       []time.Time // arrival times within the rate window
	dropped      func() int64
	sources      func() int
	events       <-chan model.Event
}

// New creates an Aggregator that reads from events. droppedFn and sourcesFn
// provide live values from the hub and registry respectively.
func New(events <-chan model.Event, droppedFn func() int64, sourcesFn func() int) *Aggregator {
	return &Aggregator{
		startTime:    time.Now(),
		levelCounts:  make(map[string]int64),
		sourceCounts: make(map[string]int64),
		dropped:      droppedFn,
		sources:      sourcesFn,
		events:       events,
	}
}

// Snapshot returns the current counters.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	levels := make(map[string]int64, len(a.levelCounts))
	for k, v := range a.levelCounts {
		levels[k] = v
	}
	sources := make(map[string]int64, len(a.sourceCounts))
	for k, v := range a.sourceCounts {
		sources[k] = v
	}

	cutoff := time.Now().Add(-window)
	var n int
	for _, t := range a.recent {
		if t.After(cutoff) {
			n++
		}
	}

	return Stats{
		Uptime:         time.Since(a.startTime).Truncate(time.Second).String(),
		TotalEvents:    a.total,
		InternalEvents: a.internal,
		EPS:            float64(n) / window.Seconds(),
		LevelCounts:    levels,
		SourceCounts:   sources,
		DroppedEvents:  a.dropped(),
		Sources:        a.sources(),
	}
}

// Start consumes events until ctx is cancelled or the channel closes.
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.events:
			if !ok {
				return
			}
			a.record(ev)
		case <-ticker.C:
			a.prune()
		}
	}
}

func (a *Aggregator) record(ev model.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	if ev.Internal {
		a.internal++
	}
	a.levelCounts[ev.Level.String()]++
	a.sourceCounts[ev.Source]++
	a.recent = append(a.recent, time.Now())
}

// prune drops arrival times that fell out of the rate window.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-window)
	i := 0
	for _, t := range a.recent {
		if t.After(cutoff) {
			a.recent[i] = t
			i++
		}
	}
	a.recent = a.recent[:i]
}
