// Package ingest republishes lines tailed from external files through
// named sources.
package ingest

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/atikulmunna/quill/internal/model"
	"github.com/atikulmunna/quill/internal/parser"
)

// Publisher is the subset of the dispatcher the pipeline needs.
type Publisher interface {
	Publish(name string, level model.Level, message string)
}

// Pipeline parses raw lines and publishes them.
type Pipeline struct {
	pub    Publisher
	parser parser.Parser
	source string
}

// New returns a Pipeline publishing through source. An empty source
// publishes each line through a source named after its file.
func New(pub Publisher, p parser.Parser, source string) *Pipeline {
	return &Pipeline{pub: pub, parser: p, source: source}
}

// Run consumes lines until the channel closes or ctx is cancelled, and
// returns the number of lines published.
func (p *Pipeline) Run(ctx context.Context, lines <-chan model.RawLine) int {
	var n int
	for {
		select {
		case <-ctx.Done():
			return n
		case raw, ok := <-lines:
			if !ok {
				return n
			}
			if p.Handle(raw) {
				n++
			}
		}
	}
}

// Handle publishes a single line. Blank lines are skipped.
func (p *Pipeline) Handle(raw model.RawLine) bool {
	if strings.TrimSpace(raw.Text) == "" {
		return false
	}
	rec := p.parser.Parse(raw.Text)
	p.pub.Publish(p.SourceFor(raw.Source), rec.Level, rec.Message)
	return true
}

// SourceFor returns the source name used for lines read from path.
func (p *Pipeline) SourceFor(path string) string {
	if p.source != "" {
		return p.source
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
