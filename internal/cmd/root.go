package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/atikulmunna/quill/internal/config"
	"github.com/atikulmunna/quill/internal/diag"
	"github.com/atikulmunna/quill/internal/dispatch"
	"github.com/atikulmunna/quill/internal/metrics"
	"github.com/atikulmunna/quill/internal/model"
	"github.com/atikulmunna/quill/internal/output"
)

var (
	cfgFile   string
	outputFmt string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Quill: leveled logging with named sources",
	Long: `Quill publishes log messages through named sources. Each source has a
severity threshold, an optional destination file and a line template.

Sources are configured from a YAML, JSON or TOML file (default .quill.yaml in
the working or home directory) and QUILL_* environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./.quill.yaml or $HOME/.quill.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "output format: text, json")
}

// loadConfig reads cfgFile, or searches the default locations when it is
// empty. A missing default file is not an error.
func loadConfig() (config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".quill")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return config.Config{}, errors.Wrap(err, "read config")
		}
	}
	return config.Load(v)
}

// app bundles what every command needs.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	dispatch *dispatch.Dispatcher
	render   output.Renderer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := diag.New(cfg.Diagnostics)
	if err != nil {
		return nil, err
	}

	render, err := output.New(outputFmt, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	d := dispatch.New(
		dispatch.WithLogger(log),
		dispatch.WithMetrics(metrics.New(reg)),
	)
	if err := config.Apply(cfg, d); err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, registry: reg, dispatch: d, render: render}, nil
}

// renderBroadcasts writes every broadcast event to the configured output.
func (a *app) renderBroadcasts(filter levelFilter) {
	a.dispatch.OnBroadcast(func(ev model.Event) {
		if !filter.allows(ev.Level) {
			return
		}
		if err := a.render.Render(ev); err != nil {
			a.log.Warn("render failed", zap.Error(err))
		}
	})
}

func (a *app) close() {
	_ = a.log.Sync()
}
