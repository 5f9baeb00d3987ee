package format

import "time"

// shortcuts maps single-letter specifiers to Go layouts.
var shortcuts = map[string]string{
	"T": "15:04:05",
	"t": "15:04",
	"d": "01/02/2006",
	"D": "Monday, January 2, 2006",
	"s": "2006-01-02T15:04:05",
	"u": "2006-01-02 15:04:05Z",
	"o": "2006-01-02T15:04:05.0000000-07:00",
}

var named = map[string]string{
	"ANSIC":       time.ANSIC,
	"UnixDate":    time.UnixDate,
	"RubyDate":    time.RubyDate,
	"RFC822":      time.RFC822,
	"RFC822Z":     time.RFC822Z,
	"RFC850":      time.RFC850,
	"RFC1123":     time.RFC1123,
	"RFC1123Z":    time.RFC1123Z,
	"RFC3339":     time.RFC3339,
	"RFC3339Nano": time.RFC3339Nano,
	"Kitchen":     time.Kitchen,
	"Stamp":       time.Stamp,
	"StampMilli":  time.StampMilli,
	"StampMicro":  time.StampMicro,
	"StampNano":   time.StampNano,
	"DateTime":    time.DateTime,
	"DateOnly":    time.DateOnly,
	"TimeOnly":    time.TimeOnly,
}

// Layout resolves a (time:...) argument to a Go time layout. Single-letter
// shortcuts and layout constant names are expanded; anything else is used as
// a reference-time layout directly.
func Layout(pattern string) string {
	if l, ok := shortcuts[pattern]; ok {
		return l
	}
	if l, ok := named[pattern]; ok {
		return l
	}
	return pattern
}
