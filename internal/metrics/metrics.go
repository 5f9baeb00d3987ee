// Package metrics exposes Prometheus collectors for the publish pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quill"

// Internal error kinds.
const (
	KindLineCount  = "line_count"
	KindAppend     = "append"
	KindRegister   = "register"
	KindUnregister = "unregister"
)

// Collectors groups the pipeline counters. A nil *Collectors is valid and
// records nothing.
type Collectors struct {
	// EventsTotal counts published events by source and level.
	EventsTotal *prometheus.CounterVec
	// BroadcastsTotal counts events that met their source threshold.
	BroadcastsTotal *prometheus.CounterVec
	// LinesWrittenTotal counts lines appended to destination files.
	LinesWrittenTotal *prometheus.CounterVec
	// InternalErrorsTotal counts internal error events by kind.
	InternalErrorsTotal *prometheus.CounterVec
	// ObserverPanicsTotal counts recovered observer panics by channel.
	ObserverPanicsTotal *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collectors {
	f := promauto.With(reg)
	return &Collectors{
		EventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total log events published, by source and level.",
			},
			[]string{"source", "level"},
		),
		BroadcastsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "broadcasts_total",
				Help:      "Total log events that met their source threshold.",
			},
			[]string{"source", "level"},
		),
		LinesWrittenTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lines_written_total",
				Help:      "Total lines appended to destination files.",
			},
			[]string{"source"},
		),
		InternalErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "internal_errors_total",
				Help:      "Total internal error events, by kind.",
			},
			[]string{"kind"},
		),
		ObserverPanicsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "observer_panics_total",
				Help:      "Total observer panics recovered, by channel.",
			},
			[]string{"channel"},
		),
	}
}

func (c *Collectors) Published(source, level string) {
	if c == nil {
		return
	}
	c.EventsTotal.WithLabelValues(source, level).Inc()
}

func (c *Collectors) Broadcast(source, level string) {
	if c == nil {
		return
	}
	c.BroadcastsTotal.WithLabelValues(source, level).Inc()
}

func (c *Collectors) Written(source string) {
	if c == nil {
		return
	}
	c.LinesWrittenTotal.WithLabelValues(source).Inc()
}

func (c *Collectors) InternalError(kind string) {
	if c == nil {
		return
	}
	c.InternalErrorsTotal.WithLabelValues(kind).Inc()
}

func (c *Collectors) ObserverPanic(channel string) {
	if c == nil {
		return
	}
	c.ObserverPanicsTotal.WithLabelValues(channel).Inc()
}
