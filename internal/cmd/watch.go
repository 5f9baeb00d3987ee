package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atikulmunna/quill/internal/aggregator"
	"github.com/atikulmunna/quill/internal/hub"
	"github.com/atikulmunna/quill/internal/ingest"
	"github.com/atikulmunna/quill/internal/parser"
	"github.com/atikulmunna/quill/internal/server"
	"github.com/atikulmunna/quill/internal/tailer"
	"github.com/atikulmunna/quill/internal/watcher"
)

var (
	watchSource    string
	watchParser    string
	watchPattern   string
	watchOnly      string
	watchServe     bool
	watchAddr      string
	watchFromStart bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Republish lines appended to log files",
	Long: `Watch one or more files (or glob patterns), parse each appended line into
a level and message, and publish it through a source. Broadcast lines are
printed; with --serve the HTTP API and live stream are started as well.

Examples:
  quill watch /var/log/app.log
  quill watch "/var/log/**/*.log" --source "" --output json
  quill watch app.log --parser regex --pattern '^(?P<level>\w+) (?P<message>.*)$'
  quill watch app.log --serve --addr :7070`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringVarP(&watchSource, "source", "s", "", "publishing source; empty names sources after files (default from config)")
	f.StringVarP(&watchParser, "parser", "p", "", "line parser: auto, json, clf, regex (default from config)")
	f.StringVar(&watchPattern, "pattern", "", "regex with named groups level and message")
	f.StringVar(&watchOnly, "only", "", "render only these levels (comma-separated: warn,error)")
	f.BoolVar(&watchServe, "serve", false, "start the HTTP API")
	f.StringVar(&watchAddr, "addr", "", "HTTP listen address (default from config)")
	f.BoolVar(&watchFromStart, "from-start", false, "read files without a checkpoint from the beginning")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ic := a.cfg.Ingest
	if cmd.Flags().Changed("source") {
		ic.Source = watchSource
	}
	if watchParser != "" {
		ic.Parser = watchParser
	}
	if watchPattern != "" {
		ic.Pattern = watchPattern
	}
	addr := a.cfg.Server.Addr
	if watchAddr != "" {
		addr = watchAddr
	}

	p, err := parser.New(ic.Parser, ic.Pattern)
	if err != nil {
		return err
	}
	only, err := parseLevelFilter(watchOnly)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(args, a.log)
	if err != nil {
		return err
	}
	if w.Count() == 0 {
		return errors.Errorf("no files matched the given patterns: %v", args)
	}
	a.log.Info("watching files", zap.Strings("paths", w.Paths()))

	ckpt, err := tailer.NewCheckpoint(ic.Checkpoint)
	if err != nil {
		return errors.Wrap(err, "load checkpoint")
	}
	opts := []tailer.Option{tailer.WithLogger(a.log)}
	if watchFromStart {
		opts = append(opts, tailer.FromStart())
	}
	t := tailer.New(w, ckpt, opts...)

	a.renderBroadcasts(only)
	pipeline := ingest.New(a.dispatch, p, ic.Source)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { w.Start(ctx); return nil })
	g.Go(func() error { t.Start(ctx); return nil })
	g.Go(func() error {
		n := pipeline.Run(ctx, t.Lines())
		a.log.Info("ingest stopped", zap.Int("lines", n))
		return nil
	})

	if watchServe {
		events, cancel := a.dispatch.Hub().Subscribe(hub.EveryLog, 0)
		defer cancel()
		agg := aggregator.New(events, a.dispatch.Hub().Dropped, func() int { return len(a.dispatch.Sources()) })
		srv := server.New(a.dispatch, agg,
			server.WithAddr(addr),
			server.WithGatherer(a.registry),
			server.WithLogger(a.log),
		)
		g.Go(func() error { agg.Start(ctx); return nil })
		g.Go(func() error { return srv.Start(ctx) })
	}

	return g.Wait()
}
