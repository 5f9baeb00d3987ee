// Package diag builds the engine's own diagnostics logger.
//
// Diagnostics cover what cannot be reported through the engine itself:
// observer panics, failures while publishing internal error events, and the
// lifecycle messages of the CLI and HTTP server.
package diag

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the diagnostics level and encoder.
type Config struct {
	Level       string   `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Development bool     `mapstructure:"development"`
	OutputPaths []string `mapstructure:"outputs"`
}

// New builds a zap logger from cfg. Output goes to stderr unless
// cfg.OutputPaths says otherwise.
func New(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, errors.Wrapf(err, "diagnostics level %q", cfg.Level)
		}
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build diagnostics logger")
	}
	return logger.Named("quill"), nil
}

// Must is New that panics on error, for process start-up.
func Must(cfg Config) *zap.Logger {
	logger, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return logger
}
