// Package source implements named log sources.
package source

import (
	"sync"
	"time"

	"github.com/atikulmunna/quill/internal/format"
	"github.com/atikulmunna/quill/internal/model"
	"github.com/atikulmunna/quill/internal/sink"
)

// Default configuration for new sources.
const (
	DefaultThreshold    = model.Warn
	DefaultTemplate     = "(linenum)\t(level)\t(name): (message)"
	DefaultRootTemplate = "(level) (name): (message)"
)

// Source is a named emission point with its own threshold, destination and
// template. The name is fixed; the other fields may change at any time and
// each write is visible to subsequent renders independently.
type Source struct {
	name string

	mu        sync.RWMutex
	threshold model.Level
	path      string
	template  *format.Template
}

// Option configures a Source.
type Option func(*Source)

// WithThreshold sets the minimum level that is broadcast and persisted.
func WithThreshold(level model.Level) Option {
	return func(s *Source) {
		s.threshold = level
	}
}

// WithPath sets the file destination. An empty path disables file output.
func WithPath(path string) Option {
	return func(s *Source) {
		s.path = path
	}
}

// WithTemplate sets the line template.
func WithTemplate(tmpl string) Option {
	return func(s *Source) {
		s.template = format.Parse(tmpl)
	}
}

// New creates a source with default settings, then applies opts.
func New(name string, opts ...Option) *Source {
	s := &Source{
		name:      name,
		threshold: DefaultThreshold,
		template:  format.Parse(DefaultTemplate),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure applies opts atomically with respect to concurrent renders.
func (s *Source) Configure(opts ...Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, opt := range opts {
		opt(s)
	}
}

// Name returns the source name.
func (s *Source) Name() string {
	return s.name
}

func (s *Source) Threshold() model.Level {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold
}

func (s *Source) SetThreshold(level model.Level) {
	s.mu.Lock()
	s.threshold = level
	s.mu.Unlock()
}

// Path returns the file destination, or "" when file output is disabled.
func (s *Source) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

func (s *Source) SetPath(path string) {
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
}

func (s *Source) Template() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.template.String()
}

func (s *Source) SetTemplate(tmpl string) {
	parsed := format.Parse(tmpl)
	s.mu.Lock()
	s.template = parsed
	s.mu.Unlock()
}

// Enabled reports whether level meets the source threshold.
func (s *Source) Enabled(level model.Level) bool {
	return level.AtLeast(s.Threshold())
}

// Rendered is a rendered line with the destination read in the same
// snapshot. Path is empty when file output is disabled.
type Rendered struct {
	Line string
	Path string
}

// Render produces the line for level and message. When a destination is set,
// line-number placeholders count the lines already in that file; the line
// belongs in that same file, so callers append to Rendered.Path. A failure
// to count renders as zero existing lines and is returned alongside the line.
func (s *Source) Render(level model.Level, message string, now time.Time) (Rendered, error) {
	s.mu.RLock()
	tmpl, path := s.template, s.path
	s.mu.RUnlock()

	f := format.Fields{
		Level:   level,
		Name:    s.name,
		Message: message,
		Now:     now,
	}

	var countErr error
	if path != "" {
		f.LineCount = func() int {
			n, err := sink.CountLines(path)
			if err != nil {
				countErr = err
				return 0
			}
			return n
		}
	}

	return Rendered{Line: tmpl.Render(f), Path: path}, countErr
}
