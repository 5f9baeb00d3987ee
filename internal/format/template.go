// Package format parses and renders line templates.
//
// A template is plain text with parenthesized placeholders:
//
//	(level) (name) (message) (linenum) (lineno)
//	(time) (time:utc) (time:offset) (time:LAYOUT) (time:"LAYOUT")
//
// A placeholder token runs from an opening parenthesis to the first closing
// parenthesis at least one character later, on the same line. Tokens that are
// not placeholders are kept verbatim, so literal parenthesized text is safe.
package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/atikulmunna/quill/internal/model"
)

// Default layouts for the time family.
const (
	TimeLayout       = "2006-01-02 15:04:05"
	TimeOffsetLayout = "2006-01-02 15:04:05 -07:00"
)

type kind int

const (
	literal kind = iota
	levelToken
	nameToken
	messageToken
	lineToken
	timeToken
)

type segment struct {
	kind kind
	text string // literal text, or the time layout
	utc  bool
}

// Template is a parsed, immutable line template.
type Template struct {
	raw      string
	segments []segment
}

// Fields carries the values substituted into a template.
type Fields struct {
	Level   model.Level
	Name    string
	Message string
	// LineCount returns the number of lines already present at the
	// destination. Nil means the source has no file destination, in which
	// case line-number placeholders render empty.
	LineCount func() int
	// Now is sampled once by the caller; zero means time.Now().
	Now time.Time
}

// Parse splits s into literal and placeholder segments. It never fails.
func Parse(s string) *Template {
	t := &Template{raw: s}

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{kind: literal, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		if s[i] == '(' {
			if end := tokenEnd(s, i); end > 0 {
				tok := s[i:end]
				if seg, ok := placeholder(tok); ok {
					flush()
					t.segments = append(t.segments, seg)
				} else {
					lit.WriteString(tok)
				}
				i = end
				continue
			}
		}
		lit.WriteByte(s[i])
		i++
	}
	flush()

	return t
}

// String returns the template text as given to Parse.
func (t *Template) String() string {
	return t.raw
}

// HasLineNumber reports whether the template contains a line-number placeholder.
func (t *Template) HasLineNumber() bool {
	for _, seg := range t.segments {
		if seg.kind == lineToken {
			return true
		}
	}
	return false
}

// Render substitutes f into the template. Each placeholder value is computed
// once and reused at every occurrence.
func (t *Template) Render(f Fields) string {
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}

	var (
		b        strings.Builder
		lineNum  string
		lineDone bool
	)
	b.Grow(len(t.raw) + len(f.Message))

	for _, seg := range t.segments {
		switch seg.kind {
		case literal:
			b.WriteString(seg.text)
		case levelToken:
			b.WriteString(f.Level.String())
		case nameToken:
			b.WriteString(f.Name)
		case messageToken:
			b.WriteString(f.Message)
		case lineToken:
			if !lineDone {
				if f.LineCount != nil {
					lineNum = strconv.Itoa(f.LineCount() + 1)
				}
				lineDone = true
			}
			b.WriteString(lineNum)
		case timeToken:
			ts := now
			if seg.utc {
				ts = ts.UTC()
			}
			b.WriteString(ts.Format(seg.text))
		}
	}

	return b.String()
}

// Render parses tmpl and renders it in one step.
func Render(tmpl string, f Fields) string {
	return Parse(tmpl).Render(f)
}

// tokenEnd returns the index just past the token opening at s[start], or -1.
// It mirrors the non-greedy pattern \(.+?\) without crossing newlines.
func tokenEnd(s string, start int) int {
	if start+1 >= len(s) || s[start+1] == '\n' {
		return -1
	}
	for j := start + 2; j < len(s); j++ {
		switch s[j] {
		case ')':
			return j + 1
		case '\n':
			return -1
		}
	}
	return -1
}

func placeholder(tok string) (segment, bool) {
	switch tok {
	case "(level)":
		return segment{kind: levelToken}, true
	case "(name)":
		return segment{kind: nameToken}, true
	case "(message)":
		return segment{kind: messageToken}, true
	case "(linenum)", "(lineno)":
		return segment{kind: lineToken}, true
	case "(time)":
		return segment{kind: timeToken, text: TimeLayout}, true
	}

	arg, ok := strings.CutPrefix(tok, "(time:")
	if !ok {
		return segment{}, false
	}
	arg = arg[:len(arg)-1]
	switch arg {
	case "":
		return segment{}, false
	case "utc":
		return segment{kind: timeToken, text: TimeLayout, utc: true}, true
	case "offset":
		return segment{kind: timeToken, text: TimeOffsetLayout}, true
	}
	return segment{kind: timeToken, text: Layout(unquote(arg))}, true
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
