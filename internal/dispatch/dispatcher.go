// Package dispatch implements the publish pipeline.
//
// A publish resolves the source, renders its line and, when the level meets
// the source threshold, appends the line to the source's file. Observers are
// then notified on the hub: every event on hub.EveryLog, thresholded events
// on hub.Broadcast, and Debug events additionally on hub.DebugMirror.
//
// Failures inside the pipeline are never returned to the publisher. Each one
// becomes a single Error-level internal event on the root source; internal
// events are not written to files, and failures while publishing them are
// only sent to the diagnostics logger.
package dispatch

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atikulmunna/quill/internal/hub"
	"github.com/atikulmunna/quill/internal/metrics"
	"github.com/atikulmunna/quill/internal/model"
	"github.com/atikulmunna/quill/internal/registry"
	"github.com/atikulmunna/quill/internal/sink"
	"github.com/atikulmunna/quill/internal/source"
)

// Dispatcher routes published messages through sources to observers and files.
type Dispatcher struct {
	registry *registry.Registry
	hub      *hub.Hub
	log      *zap.Logger
	metrics  *metrics.Collectors
	now      func() time.Time
}

// order serializes rendering (with its line counting) and appending across
// every Dispatcher in the process, so line numbers stay consistent with file
// contents even when sources of different dispatchers share a file.
var order sync.Mutex

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRegistry uses r instead of a fresh registry.
func WithRegistry(r *registry.Registry) Option {
	return func(d *Dispatcher) {
		d.registry = r
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// WithMetrics records pipeline counters on c.
func WithMetrics(c *metrics.Collectors) Option {
	return func(d *Dispatcher) {
		d.metrics = c
	}
}

// WithClock overrides the event time source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// New creates a Dispatcher. Without options it owns a fresh registry and
// discards diagnostics.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = registry.New()
	}
	d.hub = hub.New(d.observerPanic)
	return d
}

type failure struct {
	kind string
	msg  string
}

// Publish logs message at level against the named source, creating the
// source with defaults if needed. An empty name means root.
func (d *Dispatcher) Publish(name string, level model.Level, message string) {
	d.publish(name, level, message, false)
}

func (d *Dispatcher) publish(name string, level model.Level, message string, internal bool) {
	src := d.registry.Resolve(name)
	now := d.now()
	meets := src.Enabled(level)

	var failures []failure

	order.Lock()
	out, err := src.Render(level, message, now)
	line := out.Line
	if err != nil {
		failures = append(failures, failure{
			kind: metrics.KindLineCount,
			msg:  fmt.Sprintf("Failed to read the log file of source '%s': %v", src.Name(), err),
		})
	}
	if meets && !internal {
		if out.Path != "" {
			if err := sink.Append(out.Path, line); err != nil {
				failures = append(failures, failure{
					kind: metrics.KindAppend,
					msg:  fmt.Sprintf("Failed to write the log file of source '%s': %v", src.Name(), err),
				})
			} else {
				d.metrics.Written(src.Name())
			}
		}
	}
	order.Unlock()

	ev := model.NewEvent(now, src.Name(), level, message, line, internal)
	d.metrics.Published(src.Name(), level.String())

	if level == model.Debug {
		d.log.Debug(line, zap.String("source", src.Name()))
		d.hub.Emit(hub.DebugMirror, ev)
	}
	d.hub.Emit(hub.EveryLog, ev)
	if meets {
		d.metrics.Broadcast(src.Name(), level.String())
		d.hub.Emit(hub.Broadcast, ev)
	}

	for _, f := range failures {
		if internal {
			d.log.Error("internal error event failed",
				zap.String("kind", f.kind),
				zap.String("error", f.msg),
			)
			continue
		}
		d.internalError(f.kind, f.msg)
	}
}

// internalError publishes msg as an Error on root, bypassing file output.
func (d *Dispatcher) internalError(kind, msg string) {
	d.metrics.InternalError(kind)
	d.publish(registry.RootName, model.Error, msg, true)
}

func (d *Dispatcher) observerPanic(ch hub.Channel, recovered any) {
	d.metrics.ObserverPanic(string(ch))
	d.log.Error("observer panicked",
		zap.String("channel", string(ch)),
		zap.Any("panic", recovered),
		zap.Stack("stack"),
	)
}

// Log publishes against the root source.
func (d *Dispatcher) Log(level model.Level, message string) {
	d.publish(registry.RootName, level, message, false)
}

func (d *Dispatcher) Debug(message string)    { d.Log(model.Debug, message) }
func (d *Dispatcher) Info(message string)     { d.Log(model.Info, message) }
func (d *Dispatcher) Warn(message string)     { d.Log(model.Warn, message) }
func (d *Dispatcher) Error(message string)    { d.Log(model.Error, message) }
func (d *Dispatcher) Critical(message string) { d.Log(model.Critical, message) }

// ---------------------------------------------------------------------------
// Source configuration
// ---------------------------------------------------------------------------

// Source returns the named source, creating a default one if needed.
func (d *Dispatcher) Source(name string) *source.Source {
	return d.registry.Resolve(name)
}

// Root returns the root source.
func (d *Dispatcher) Root() *source.Source {
	return d.registry.Root()
}

// Lookup returns the named source without creating one.
func (d *Dispatcher) Lookup(name string) (*source.Source, bool) {
	return d.registry.Lookup(name)
}

// IsRegistered reports whether a source with that name exists.
func (d *Dispatcher) IsRegistered(name string) bool {
	return d.registry.Contains(name)
}

// Sources returns the registered source names, sorted.
func (d *Dispatcher) Sources() []string {
	return d.registry.Names()
}

// Register adds s. A duplicate name keeps the existing source; the failure is
// reported as an internal event and also returned.
func (d *Dispatcher) Register(s *source.Source) error {
	if err := d.registry.Register(s); err != nil {
		d.internalError(metrics.KindRegister, fmt.Sprintf("Failed to add source: %v", err))
		return err
	}
	return nil
}

// Unregister removes the named source. Removing root or an unknown name is
// reported as an internal event and also returned.
func (d *Dispatcher) Unregister(name string) error {
	if err := d.registry.Unregister(name); err != nil {
		d.internalError(metrics.KindUnregister, fmt.Sprintf("Failed to remove source: %v", err))
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Observers
// ---------------------------------------------------------------------------

// OnEvent registers fn for every published event.
func (d *Dispatcher) OnEvent(fn hub.Handler) hub.Subscription {
	return d.hub.On(hub.EveryLog, fn)
}

// OnBroadcast registers fn for events that meet their source threshold.
func (d *Dispatcher) OnBroadcast(fn hub.Handler) hub.Subscription {
	return d.hub.On(hub.Broadcast, fn)
}

// OnDebug registers fn for Debug-level events.
func (d *Dispatcher) OnDebug(fn hub.Handler) hub.Subscription {
	return d.hub.On(hub.DebugMirror, fn)
}

// Off removes an observer.
func (d *Dispatcher) Off(sub hub.Subscription) bool {
	return d.hub.Off(sub)
}

// Hub exposes the observer hub for channel subscribers.
func (d *Dispatcher) Hub() *hub.Hub {
	return d.hub
}
