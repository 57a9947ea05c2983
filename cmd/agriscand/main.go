// agriscand is the soil sensor node daemon: it samples the moisture probe on
// a fixed cadence, derives agronomic state through the physics model, persists
// batches to the on-flash database, and serves the HTTP query surface.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agriscan/agriscan/config"
	"github.com/agriscan/agriscan/internal/acquire"
	"github.com/agriscan/agriscan/internal/batch"
	"github.com/agriscan/agriscan/internal/export"
	"github.com/agriscan/agriscan/internal/loader"
	"github.com/agriscan/agriscan/internal/logging"
	"github.com/agriscan/agriscan/internal/model"
	"github.com/agriscan/agriscan/internal/sensor"
	"github.com/agriscan/agriscan/internal/server"
	"github.com/agriscan/agriscan/internal/store"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// CLI flags
	cfgPath := flag.String("config", "config.yaml", "config file path")
	dbPath := flag.String("db", "", "database path (overrides config)")
	listen := flag.String("listen", "", "listen address (overrides config)")
	modelPath := flag.String("model", "", "model script path (overrides config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Load config
	cfg, err := loader.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = loader.DefaultConfig()
		} else {
			logging.Error("load config failed", "error", err)
			os.Exit(1)
		}
	}

	// CLI overrides
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *listen != "" {
		cfg.HTTP.Listen = *listen
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}

	level := parseLevel(cfg.Log.Level)
	if *debug {
		level = slog.LevelDebug
	}
	logging.Init(level, cfg.Log.JSON)
	log := logging.Component("main")
	log.Info("agriscand starting", "version", Version)

	// =========================================================================
	// Persistence Engine (fatal on failure)
	// =========================================================================

	storeCfg := store.DefaultConfig()
	storeCfg.Path = cfg.Storage.Path
	storeCfg.BusyTimeout = time.Duration(cfg.Storage.BusyTimeoutMs) * time.Millisecond

	st, err := store.Open(storeCfg)
	if err != nil {
		log.Error("open store failed", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// =========================================================================
	// Computation Model (load failure degrades, never halts)
	// =========================================================================

	var engine model.Engine
	if js, err := model.LoadScript(cfg.Model.Path); err != nil {
		log.Error("model load failed, samples will be flagged invalid", "error", err)
	} else {
		engine = js
	}
	bridge := model.NewBridge(engine)

	// =========================================================================
	// Write Path
	// =========================================================================

	if !cfg.Sensor.Simulate {
		// TODO(hw): ADS1115 reader, pending the probe carrier board.
		log.Warn("no hardware sensor driver in this build, using simulator",
			"adc_pin", cfg.Sensor.ADCPin)
	}
	reader := sensor.NewSimReader(cfg.Sensor.SimSeed)

	batcher := batch.New(cfg.Sampling.BatchSize, st.WriteBatch)

	loop := acquire.New(acquire.Config{
		Interval: cfg.Sampling.Interval.Duration(),
		Reader:   reader,
		Bridge:   bridge,
		Batcher:  batcher,
	})

	janitor := acquire.NewJanitor(st, cfg.Storage.RetentionDays,
		cfg.Storage.PruneInterval.Duration())

	// =========================================================================
	// Query Surface
	// =========================================================================

	exporter := export.New(st, cfg.Export.Dir)

	srv := server.New(server.Config{
		Listen:          cfg.HTTP.Listen,
		StaticDir:       cfg.HTTP.StaticDir,
		ShutdownTimeout: config.DefaultShutdownTimeout,
	}, st, exporter)

	// =========================================================================
	// Run
	// =========================================================================

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(ctx) })
	g.Go(func() error { return janitor.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })

	if err := g.Wait(); err != nil {
		log.Error("daemon error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
