package dispatch

import (
	"github.com/atikulmunna/quill/internal/model"
	"github.com/atikulmunna/quill/internal/source"
)

// Logger publishes against one named source. The source is resolved on each
// call, so a Logger stays valid across unregistering and re-creating its name.
type Logger struct {
	d    *Dispatcher
	name string
}

// Named returns a Logger for the named source.
func (d *Dispatcher) Named(name string) *Logger {
	return &Logger{d: d, name: name}
}

func (l *Logger) Name() string { return l.name }

// Source returns the underlying source, creating it if needed.
func (l *Logger) Source() *source.Source {
	return l.d.Source(l.name)
}

func (l *Logger) Log(level model.Level, message string) {
	l.d.Publish(l.name, level, message)
}

func (l *Logger) Debug(message string)    { l.Log(model.Debug, message) }
func (l *Logger) Info(message string)     { l.Log(model.Info, message) }
func (l *Logger) Warn(message string)     { l.Log(model.Warn, message) }
func (l *Logger) Error(message string)    { l.Log(model.Error, message) }
func (l *Logger) Critical(message string) { l.Log(model.Critical, message) }
