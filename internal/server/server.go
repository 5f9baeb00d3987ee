// Package server exposes source configuration, publishing, statistics and a
// live event stream over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atikulmunna/quill/internal/aggregator"
	"github.com/atikulmunna/quill/internal/dispatch"
)

const shutdownTimeout = 5 * time.Second

// Server holds the Gin engine and its dependencies.
type Server struct {
	engine     *gin.Engine
	dispatch   *dispatch.Dispatcher
	aggregator *aggregator.Aggregator
	gatherer   prometheus.Gatherer
	log        *zap.Logger
	addr       string
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l.Named("server")
		}
	}
}

// New creates a server for d. agg supplies /api/stats and /healthz.
func New(d *dispatch.Dispatcher, agg *aggregator.Aggregator, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		dispatch:   d,
		aggregator: agg,
		gatherer:   prometheus.DefaultGatherer,
		log:        zap.NewNop(),
		addr:       ":7070",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine.Use(s.accessLog())
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})

	api := s.engine.Group("/api/sources")
	api.GET("", s.listSources)
	api.POST("", s.createSource)
	api.GET("/:name", s.getSource)
	api.PUT("/:name", s.updateSource)
	api.DELETE("/:name", s.deleteSource)
	api.POST("/:name/logs", s.publish)

	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	s.engine.GET("/ws", s.handleWebSocket)
}

func (s *Server) handleHealth(c *gin.Context) {
	stats := s.aggregator.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime":         stats.Uptime,
		"sources":        stats.Sources,
		"eps":            stats.EPS,
		"dropped_events": stats.DroppedEvents,
	})
}

// accessLog logs each request at debug level.
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
	}
}
