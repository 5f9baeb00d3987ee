package cmd

import (
	"strings"

	"github.com/atikulmunna/quill/internal/model"
)

// levelFilter restricts rendered output to a set of levels. Empty allows all.
type levelFilter map[model.Level]bool

// parseLevelFilter parses a comma-separated list such as "warn,error".
func parseLevelFilter(s string) (levelFilter, error) {
	f := make(levelFilter)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		level, err := model.ParseLevel(part)
		if err != nil {
			return nil, err
		}
		f[level] = true
	}
	return f, nil
}

func (f levelFilter) allows(level model.Level) bool {
	return len(f) == 0 || f[level]
}
