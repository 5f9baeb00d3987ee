// Package output writes published events to a terminal or a pipe.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/atikulmunna/quill/internal/model"
)

// Renderer writes events to an output stream.
type Renderer interface {
	Render(ev model.Event) error
}

// New returns the renderer named by kind ("text" or "json") writing to w.
// A nil w means stdout.
func New(kind string, w io.Writer) (Renderer, error) {
	if w == nil {
		w = os.Stdout
	}
	switch kind {
	case "", "text":
		return NewTextRenderer(w), nil
	case "json":
		return NewJSONRenderer(w), nil
	default:
		return nil, errors.Errorf("unknown output %q", kind)
	}
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleDebug    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleInfo     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))            // gray
	styleWarn     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
	styleError    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red bold
	styleCritical = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")).
			Bold(true) // white on red
	styleInternal = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Italic(true) // cyan
)

// TextRenderer prints each event's rendered line colored by severity.
type TextRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextRenderer returns a Renderer that writes colorized lines to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) Render(ev model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := fmt.Fprintln(r.w, Style(ev).Render(ev.Line))
	return err
}

// Style picks the terminal style for ev.
func Style(ev model.Event) lipgloss.Style {
	if ev.Internal {
		return styleInternal
	}
	switch ev.Level {
	case model.Debug:
		return styleDebug
	case model.Warn:
		return styleWarn
	case model.Error:
		return styleError
	case model.Critical:
		return styleCritical
	default:
		return styleInfo
	}
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each event as a single JSON object per line.
type JSONRenderer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(ev model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(ev)
}
