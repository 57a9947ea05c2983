// Package server exposes the query surface over HTTP: current state, bounded
// history, summary statistics, calibration, export, health and metrics.
//
// The server only reads from the store (exports included); the acquisition
// loop is the sole writer. WAL isolation lets these reads interleave with an
// in-flight batch transaction.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agriscan/agriscan/internal/export"
	"github.com/agriscan/agriscan/internal/logging"
	"github.com/agriscan/agriscan/internal/metrics"
	"github.com/agriscan/agriscan/internal/store"
)

var log = logging.Component("server")

// Config holds HTTP server configuration.
type Config struct {
	// Listen is the address to bind, e.g. "0.0.0.0:8080".
	Listen string

	// StaticDir is served at the site root (dashboard assets). Empty
	// disables static serving.
	StaticDir string

	// ShutdownTimeout bounds how long in-flight requests get to finish.
	ShutdownTimeout time.Duration
}

// Server bundles router and dependencies for the query surface.
type Server struct {
	cfg      Config
	store    *store.Store
	exporter *export.Exporter
	engine   *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg Config, st *store.Store, exp *export.Exporter) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(latencyMiddleware())

	s := &Server{cfg: cfg, store: st, exporter: exp, engine: engine}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info("query surface listening", "addr", s.cfg.Listen)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.GET("/api/current", s.handleCurrent)
	s.engine.GET("/api/series", s.handleSeries)
	s.engine.GET("/api/stats", s.handleStats)
	s.engine.GET("/api/calibration", s.handleCalibration)
	s.engine.POST("/api/export", s.handleExport)

	if s.cfg.StaticDir != "" {
		s.engine.StaticFS("/www", http.Dir(s.cfg.StaticDir))
	}
}

// latencyMiddleware records per-endpoint latency.
func latencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.QueryLatencySeconds.WithLabelValues(endpoint).
			Observe(time.Since(start).Seconds())
	}
}
