package model

import (
	"time"

	"github.com/google/uuid"
)

// Event is a single published log, handed to observers by value.
type Event struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Source   string    `json:"source"`  // name of the publishing source
	Level    Level     `json:"level"`
	Message  string    `json:"message"` // raw message text
	Line     string    `json:"line"`    // rendered line
	Internal bool      `json:"internal,omitempty"`
}

// NewEvent stamps a fresh event id.
func NewEvent(at time.Time, source string, level Level, message, line string, internal bool) Event {
	return Event{
		ID:       uuid.NewString(),
		Time:     at,
		Source:   source,
		Level:    level,
		Message:  message,
		Line:     line,
		Internal: internal,
	}
}

// RawLine is an unparsed line read from an ingested file.
type RawLine struct {
	Text   string
	Source string // originating file path
}
