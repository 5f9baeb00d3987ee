package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/quill/internal/model"
)

func TestJSONParser(t *testing.T) {
	p := NewJSONParser()

	rec := p.Parse(`{"level":"error","message":"disk full","timestamp":"2026-02-17T12:00:00Z"}`)
	assert.Equal(t, model.Error, rec.Level)
	assert.Equal(t, "disk full", rec.Message)
}

func TestJSONParserAltFields(t *testing.T) {
	p := NewJSONParser()

	rec := p.Parse(`{"severity":"warning","msg":"high latency"}`)
	assert.Equal(t, model.Warn, rec.Level)
	assert.Equal(t, "high latency", rec.Message)
}

func TestJSONParserInvalidJSON(t *testing.T) {
	rec := NewJSONParser().Parse("not json at all")

	assert.Equal(t, "not json at all", rec.Message)
	assert.Equal(t, model.Info, rec.Level)
}

func TestJSONParserUnknownLevel(t *testing.T) {
	rec := NewJSONParser().Parse(`{"level":"notice","msg":"x"}`)
	assert.Equal(t, model.Info, rec.Level)
}

func TestCLFParser(t *testing.T) {
	p := NewCLFParser()

	rec := p.Parse(`127.0.0.1 - frank [17/Feb/2026:12:00:00 +0000] "GET /api/users HTTP/1.1" 503 2326`)
	assert.Equal(t, model.Error, rec.Level)
	assert.Equal(t, `127.0.0.1 "GET /api/users HTTP/1.1" 503`, rec.Message)

	rec = p.Parse(`10.0.0.2 - - [17/Feb/2026:12:00:01 +0000] "POST /login HTTP/1.1" 401 -`)
	assert.Equal(t, model.Warn, rec.Level)

	rec = p.Parse(`10.0.0.2 - - [17/Feb/2026:12:00:01 +0000] "GET / HTTP/1.1" 200 512`)
	assert.Equal(t, model.Info, rec.Level)

	rec = p.Parse("not a clf line")
	assert.Equal(t, "not a clf line", rec.Message)
}

func TestRegexParser(t *testing.T) {
	p, err := NewRegexParser(`^(?P<timestamp>\S+) (?P<level>\w+) (?P<message>.+)$`)
	require.NoError(t, err)

	rec := p.Parse("2026-02-17T12:00:00Z CRIT something failed badly")
	assert.Equal(t, model.Critical, rec.Level)
	assert.Equal(t, "something failed badly", rec.Message)
}

func TestRegexParserNoMatchFallsBack(t *testing.T) {
	p, err := NewRegexParser(`^\[(?P<level>\w+)\] (?P<message>.+)$`)
	require.NoError(t, err)

	rec := p.Parse("plain ERROR line")
	assert.Equal(t, model.Error, rec.Level)
	assert.Equal(t, "plain ERROR line", rec.Message)
}

func TestRegexParserInvalidPattern(t *testing.T) {
	_, err := NewRegexParser(`[invalid`)
	assert.Error(t, err)
}

func TestAutoParser(t *testing.T) {
	p := NewAutoParser()

	cases := []struct {
		raw     string
		level   model.Level
		message string
	}{
		{`{"level":"error","message":"oom killed"}`, model.Error, "oom killed"},
		{"2026-02-17 WARN disk usage at 90%", model.Warn, "2026-02-17 WARN disk usage at 90%"},
		{"FATAL: cannot continue", model.Critical, "FATAL: cannot continue"},
		{"debug: cache miss", model.Debug, "debug: cache miss"},
		{"all good", model.Info, "all good"},
		{`1.2.3.4 - - [17/Feb/2026:12:00:00 +0000] "GET /x HTTP/1.1" 404 0`, model.Warn, `1.2.3.4 "GET /x HTTP/1.1" 404`},
		{`{"unrelated":true}`, model.Info, `{"unrelated":true}`},
	}
	for _, c := range cases {
		rec := p.Parse(c.raw)
		assert.Equal(t, c.level, rec.Level, c.raw)
		assert.Equal(t, c.message, rec.Message, c.raw)
	}
}

func TestNew(t *testing.T) {
	for _, kind := range []string{"", "auto", "JSON", "clf"} {
		p, err := New(kind, "")
		require.NoError(t, err, kind)
		assert.NotNil(t, p)
	}

	p, err := New("regex", `(?P<message>.+)`)
	require.NoError(t, err)
	assert.IsType(t, &RegexParser{}, p)

	_, err = New("regex", `(`)
	assert.Error(t, err)

	_, err = New("xml", "")
	assert.Error(t, err)
}
