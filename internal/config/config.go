// Package config loads declarative source configuration.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/atikulmunna/quill/internal/diag"
	"github.com/atikulmunna/quill/internal/dispatch"
	"github.com/atikulmunna/quill/internal/model"
)

// EnvPrefix prefixes environment overrides, e.g. QUILL_SERVER_ADDR.
const EnvPrefix = "QUILL"

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Sources     []SourceConfig `mapstructure:"sources" validate:"unique=Name,dive"`
	Diagnostics diag.Config    `mapstructure:"diagnostics"`
	Server      ServerConfig   `mapstructure:"server"`
	Ingest      IngestConfig   `mapstructure:"ingest"`
}

// SourceConfig describes one named source. The name "root" configures the
// root source.
type SourceConfig struct {
	Name   string `mapstructure:"name" validate:"required"`
	Level  string `mapstructure:"level" validate:"omitempty,loglevel"`
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// IngestConfig configures republishing of tailed files.
type IngestConfig struct {
	Source     string `mapstructure:"source"`
	Parser     string `mapstructure:"parser" validate:"omitempty,oneof=auto json clf regex"`
	Pattern    string `mapstructure:"pattern" validate:"required_if=Parser regex"`
	Checkpoint string `mapstructure:"checkpoint"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Diagnostics: diag.Config{Level: "info"},
		Server:      ServerConfig{Addr: ":7070"},
		Ingest: IngestConfig{
			Source:     "ingest",
			Parser:     "auto",
			Checkpoint: ".quill-state.json",
		},
	}
}

// SetDefaults registers defaults on v so that environment overrides of
// nested keys are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("diagnostics.level", d.Diagnostics.Level)
	v.SetDefault("diagnostics.development", d.Diagnostics.Development)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("ingest.source", d.Ingest.Source)
	v.SetDefault("ingest.parser", d.Ingest.Parser)
	v.SetDefault("ingest.pattern", d.Ingest.Pattern)
	v.SetDefault("ingest.checkpoint", d.Ingest.Checkpoint)
}

// BindEnv enables QUILL_* overrides on v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a YAML, JSON or TOML file (by extension) with environment
// overrides. An empty path yields defaults plus environment overrides.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}
	return Load(v)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		_, err := model.ParseLevel(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field constraints and source name uniqueness.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// Apply configures d from cfg. Sources are created as needed; the root
// source is configured in place.
func Apply(cfg Config, d *dispatch.Dispatcher) error {
	for _, sc := range cfg.Sources {
		src := d.Source(sc.Name)
		if sc.Level != "" {
			level, err := model.ParseLevel(sc.Level)
			if err != nil {
				return errors.Wrapf(err, "source %q", sc.Name)
			}
			src.SetThreshold(level)
		}
		src.SetPath(sc.Path)
		if sc.Format != "" {
			src.SetTemplate(sc.Format)
		}
	}
	return nil
}
