// Package quill is a leveled text logging library with named sources.
//
// Every source has a threshold, an optional destination file and a line
// template. Publishing renders the template, notifies observers and appends
// the line to the destination when the level meets the threshold:
//
//	quill.OnBroadcast(func(e quill.Event) { fmt.Println(e.Line) })
//	quill.Root().SetPath("./logs/app.log")
//	quill.Warn("disk usage at 90%")
//
//	db := quill.Named("db")
//	db.Source().SetTemplate("(linenum)\t(time:T)\t(level)\t(name): (message)")
//	db.Error("connection lost")
//
// The package-level functions use a process-wide default engine whose root
// source always exists. Logging never fails the caller: internal problems are
// delivered to observers as Error events from the root source.
package quill

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/atikulmunna/quill/internal/dispatch"
	"github.com/atikulmunna/quill/internal/hub"
	"github.com/atikulmunna/quill/internal/metrics"
	"github.com/atikulmunna/quill/internal/model"
	"github.com/atikulmunna/quill/internal/registry"
	"github.com/atikulmunna/quill/internal/source"
)

type (
	// Level is a log severity.
	Level = model.Level
	// Event is a published log handed to observers.
	Event = model.Event
	// Source is a named logger configuration.
	Source = source.Source
	// SourceOption configures NewLogger.
	SourceOption = source.Option
	// Logger publishes against one named source.
	Logger = dispatch.Logger
	// Engine is an independent registry, observer set and publish pipeline.
	Engine = dispatch.Dispatcher
	// EngineOption configures NewEngine.
	EngineOption = dispatch.Option
	// Subscription identifies a registered observer.
	Subscription = hub.Subscription
)

const (
	LevelDebug    = model.Debug
	LevelInfo     = model.Info
	LevelWarn     = model.Warn
	LevelError    = model.Error
	LevelCritical = model.Critical
)

// RootName is the name of the root source.
const RootName = registry.RootName

// Errors returned by RegisterLogger and UnregisterLogger.
var (
	ErrExists    = registry.ErrExists
	ErrProtected = registry.ErrProtected
	ErrNotFound  = registry.ErrNotFound
	ErrEmptyName = registry.ErrEmptyName
)

var std atomic.Pointer[dispatch.Dispatcher]

func init() {
	std.Store(dispatch.New())
}

// Default returns the process-wide engine.
func Default() *Engine { return std.Load() }

// SetDefault replaces the process-wide engine.
func SetDefault(e *Engine) {
	if e != nil {
		std.Store(e)
	}
}

// NewEngine creates an engine independent of the default one.
func NewEngine(opts ...EngineOption) *Engine { return dispatch.New(opts...) }

// WithDiagnostics sends the engine's own diagnostics (observer panics,
// failures of internal error events, debug mirroring) to l.
func WithDiagnostics(l *zap.Logger) EngineOption { return dispatch.WithLogger(l) }

// WithMetrics registers the engine's Prometheus collectors on reg.
func WithMetrics(reg prometheus.Registerer) EngineOption {
	return dispatch.WithMetrics(metrics.New(reg))
}

// ParseLevel converts a level name such as "warn" or "critical" to a Level.
func ParseLevel(s string) (Level, error) { return model.ParseLevel(s) }

// Root returns the root source.
func Root() *Source { return Default().Root() }

// GetLogger returns the named source, registering a default one if needed.
func GetLogger(name string) *Source { return Default().Source(name) }

// NewLogger creates an unregistered source; see RegisterLogger.
func NewLogger(name string, opts ...SourceOption) *Source { return source.New(name, opts...) }

// WithThreshold, WithPath and WithTemplate configure NewLogger.
func WithThreshold(level Level) SourceOption { return source.WithThreshold(level) }
func WithPath(path string) SourceOption      { return source.WithPath(path) }
func WithTemplate(tmpl string) SourceOption  { return source.WithTemplate(tmpl) }

// RegisterLogger adds s to the default engine.
func RegisterLogger(s *Source) error { return Default().Register(s) }

// UnregisterLogger removes a source. The root source cannot be removed.
func UnregisterLogger(name string) error { return Default().Unregister(name) }

// IsRegistered reports whether a source with that name exists.
func IsRegistered(name string) bool { return Default().IsRegistered(name) }

// Named returns a Logger publishing against the named source.
func Named(name string) *Logger { return Default().Named(name) }

// Publish logs against the named source.
func Publish(name string, level Level, message string) { Default().Publish(name, level, message) }

// Log logs against the root source.
func Log(level Level, message string) { Default().Log(level, message) }

func Debug(message string)    { Default().Debug(message) }
func Info(message string)     { Default().Info(message) }
func Warn(message string)     { Default().Warn(message) }
func Error(message string)    { Default().Error(message) }
func Critical(message string) { Default().Critical(message) }

// OnEvent observes every published event.
func OnEvent(fn func(Event)) Subscription { return Default().OnEvent(fn) }

// OnBroadcast observes events that meet their source threshold.
func OnBroadcast(fn func(Event)) Subscription { return Default().OnBroadcast(fn) }

// OnDebug observes Debug-level events.
func OnDebug(fn func(Event)) Subscription { return Default().OnDebug(fn) }

// Off removes an observer.
func Off(sub Subscription) bool { return Default().Off(sub) }
