// Package parser extracts a level and message from externally produced log
// lines so they can be republished through a source.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/atikulmunna/quill/internal/model"
)

// Record is the publishable part of a raw line.
type Record struct {
	Level   model.Level
	Message string
}

// Parser converts a raw log line into a Record.
type Parser interface {
	Parse(raw string) Record
}

// New returns the parser named by kind: "auto" (or empty), "json", "clf" or
// "regex".
func New(kind, pattern string) (Parser, error) {
	switch strings.ToLower(kind) {
	case "", "auto":
		return NewAutoParser(), nil
	case "json":
		return NewJSONParser(), nil
	case "clf":
		return NewCLFParser(), nil
	case "regex":
		return NewRegexParser(pattern)
	default:
		return nil, errors.Errorf("unknown parser %q", kind)
	}
}

// ---------------------------------------------------------------------------
// JSON Parser
// ---------------------------------------------------------------------------

// JSONParser handles JSON-formatted log lines.
// Recognizes common field names: level/severity and message/msg.
type JSONParser struct{}

func NewJSONParser() *JSONParser { return &JSONParser{} }

func (p *JSONParser) Parse(raw string) Record {
	rec := base(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return rec // not valid JSON, return as-is
	}

	if v, ok := strField(data, "level", "severity"); ok {
		rec.Level = normalizeLevel(v)
	}
	if v, ok := strField(data, "message", "msg"); ok {
		rec.Message = v
	}
	return rec
}

// ---------------------------------------------------------------------------
// CLF Parser (Common Log Format)
// ---------------------------------------------------------------------------

// CLFParser handles Apache/Nginx Common Log Format lines.
// Format: host ident authuser [date] "request" status bytes
type CLFParser struct {
	re *regexp.Regexp
}

func NewCLFParser() *CLFParser {
	return &CLFParser{
		re: regexp.MustCompile(`^(\S+) \S+ \S+ \[[^\]]+\] "([^"]*)" (\d{3}) \S+`),
	}
}

// Parse publishes `host "request" status`, leveled by the status class.
func (p *CLFParser) Parse(raw string) Record {
	matches := p.re.FindStringSubmatch(raw)
	if matches == nil {
		return base(raw)
	}
	return Record{
		Level:   statusToLevel(matches[3]),
		Message: fmt.Sprintf("%s %q %s", matches[1], matches[2], matches[3]),
	}
}

// statusToLevel maps HTTP status codes to severity: 5xx Error, 4xx Warn.
func statusToLevel(status string) model.Level {
	switch status[0] {
	case '5':
		return model.Error
	case '4':
		return model.Warn
	default:
		return model.Info
	}
}

// ---------------------------------------------------------------------------
// Regex Parser (user-defined patterns)
// ---------------------------------------------------------------------------

// RegexParser uses a user-supplied regex with named capture groups.
// Recognized groups: level, message (both optional).
type RegexParser struct {
	re *regexp.Regexp
}

func NewRegexParser(pattern string) (*RegexParser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "invalid regex pattern")
	}
	return &RegexParser{re: re}, nil
}

func (p *RegexParser) Parse(raw string) Record {
	rec := base(raw)

	matches := p.re.FindStringSubmatch(raw)
	if matches == nil {
		return keywordParse(raw)
	}

	for i, name := range p.re.SubexpNames() {
		switch name {
		case "level":
			rec.Level = normalizeLevel(matches[i])
		case "message":
			rec.Message = matches[i]
		}
	}
	return rec
}

// ---------------------------------------------------------------------------
// Auto Parser (format auto-detection)
// ---------------------------------------------------------------------------

// AutoParser tries JSON, then CLF, and falls back to keyword detection.
type AutoParser struct {
	jsonParser *JSONParser
	clfParser  *CLFParser
}

func NewAutoParser() *AutoParser {
	return &AutoParser{
		jsonParser: NewJSONParser(),
		clfParser:  NewCLFParser(),
	}
}

func (p *AutoParser) Parse(raw string) Record {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		rec := p.jsonParser.Parse(raw)
		if rec.Message != raw { // parsing extracted something
			return rec
		}
	}
	if rec := p.clfParser.Parse(raw); rec.Message != raw {
		return rec
	}
	return keywordParse(raw)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func base(raw string) Record {
	return Record{Level: model.Info, Message: raw}
}

// keywordParse detects severity from keywords in the line.
func keywordParse(line string) Record {
	rec := base(line)
	upper := strings.ToUpper(line)

	switch {
	case strings.Contains(upper, "CRITICAL"), strings.Contains(upper, "FATAL"):
		rec.Level = model.Critical
	case strings.Contains(upper, "ERROR"):
		rec.Level = model.Error
	case strings.Contains(upper, "WARN"):
		rec.Level = model.Warn
	case strings.Contains(upper, "DEBUG"):
		rec.Level = model.Debug
	}
	return rec
}

// normalizeLevel maps a level string to a Level, defaulting to Info.
func normalizeLevel(s string) model.Level {
	level, err := model.ParseLevel(s)
	if err != nil {
		return model.Info
	}
	return level
}

// strField returns the first non-empty value among keys.
func strField(data map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := data[k]; ok {
			if s := fmt.Sprintf("%v", v); s != "" {
				return s, true
			}
		}
	}
	return "", false
}
