package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/quill/internal/dispatch"
	"github.com/atikulmunna/quill/internal/model"
	"github.com/atikulmunna/quill/internal/parser"
)

func TestRunPublishesParsedLines(t *testing.T) {
	d := dispatch.New()
	var got []model.Event
	d.OnEvent(func(ev model.Event) { got = append(got, ev) })

	lines := make(chan model.RawLine, 4)
	lines <- model.RawLine{Text: `{"level":"error","msg":"disk full"}`, Source: "/var/log/app.log"}
	lines <- model.RawLine{Text: "   ", Source: "/var/log/app.log"}
	lines <- model.RawLine{Text: "WARN slow", Source: "/var/log/app.log"}
	close(lines)

	n := New(d, parser.NewAutoParser(), "ingest").Run(context.Background(), lines)
	assert.Equal(t, 2, n)

	require.Len(t, got, 2)
	assert.Equal(t, "ingest", got[0].Source)
	assert.Equal(t, model.Error, got[0].Level)
	assert.Equal(t, "disk full", got[0].Message)
	assert.Equal(t, model.Warn, got[1].Level)
	assert.True(t, d.IsRegistered("ingest"))
}

func TestSourceForPath(t *testing.T) {
	p := New(dispatch.New(), parser.NewAutoParser(), "")
	assert.Equal(t, "nginx", p.SourceFor("/var/log/nginx.log"))
	assert.Equal(t, "app", p.SourceFor("app"))

	assert.Equal(t, "fixed", New(nil, nil, "fixed").SourceFor("/x/y.log"))
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Zero(t, New(dispatch.New(), parser.NewAutoParser(), "x").Run(ctx, make(chan model.RawLine)))
}
