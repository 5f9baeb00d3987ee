package model

import (
	"fmt"
	"strings"
)

// Level is the severity of a log event. Levels are totally ordered by rank.
type Level int

const (
	// Debug is detailed information, typically of interest only when diagnosing problems.
	Debug Level = iota
	// Info confirms that things are working as expected.
	Info
	// Warn indicates something unexpected happened; the software still works.
	Warn
	// Error means a function could not be performed.
	Error
	// Critical means the program itself may be unable to continue running.
	Critical
)

// Levels lists every level in ascending rank.
var Levels = []Level{Debug, Info, Warn, Error, Critical}

// String returns the upper-cased level name.
func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case Critical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= Debug && l <= Critical
}

// AtLeast reports whether l ranks at or above min.
func (l Level) AtLeast(min Level) bool {
	return l >= min
}

// ParseLevel converts a level name to a Level. Matching is case-insensitive
// and accepts common aliases (warning, err, crit, fatal, trace).
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "TRACE":
		return Debug, nil
	case "INFO":
		return Info, nil
	case "WARN", "WARNING":
		return Warn, nil
	case "ERROR", "ERR":
		return Error, nil
	case "CRITICAL", "CRIT", "FATAL":
		return Critical, nil
	default:
		return Debug, fmt.Errorf("unknown log level %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid log level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
