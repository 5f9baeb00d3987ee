package quill

import "github.com/atikulmunna/quill/internal/source"

// BasicConfig is a one-shot configuration for the root source.
type BasicConfig struct {
	// Level is the lowest level recorded. Default Warn.
	Level Level
	// FileName is the destination file; relative paths resolve against the
	// working directory. Empty disables file output.
	FileName string
	// Format is the line template. Default "(level) (name): (message)".
	Format string
}

// DefaultBasicConfig returns the root source defaults.
func DefaultBasicConfig() BasicConfig {
	return BasicConfig{
		Level:  source.DefaultThreshold,
		Format: source.DefaultRootTemplate,
	}
}

// ApplyBasicConfig configures the root source of the default engine.
// An empty Format keeps the current template.
func ApplyBasicConfig(cfg BasicConfig) {
	root := Root()
	root.SetThreshold(cfg.Level)
	root.SetPath(cfg.FileName)
	if cfg.Format != "" {
		root.SetTemplate(cfg.Format)
	}
}
