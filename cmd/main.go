package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jittakal/streamtee/internal/alloc"
	"github.com/jittakal/streamtee/internal/config"
	"github.com/jittakal/streamtee/internal/engine"
	"github.com/jittakal/streamtee/internal/observability"
	"github.com/jittakal/streamtee/internal/pool"
	"github.com/jittakal/streamtee/internal/server"
	"github.com/jittakal/streamtee/internal/sinks"
	"github.com/jittakal/streamtee/pkg/fanout"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

func run() error {
	// Parse command-line flags
	blockSize := flag.Int64("b", 0, "block size in bytes (overrides configuration)")
	scatter := flag.Bool("s", false, "scatter input across sinks instead of copying")
	lineAligned := flag.Bool("l", false, "align scatter boundaries to newlines")
	configPath := flag.String("config", "", "path to configuration file")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	if flag.NArg() == 0 {
		return fmt.Errorf("usage: %s [-b size] [-s] [-l] sink...", os.Args[0])
	}

	// Load configuration
	// Priority: CLI flag > CONFIG_PATH env var > default path
	var cfgPath string
	if *configPath != "" {
		cfgPath = *configPath
	} else if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		cfgPath = envPath
	} else {
		cfgPath = "config/application.yaml"
	}

	loader := config.NewLoader()
	cfg, err := loader.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Command-line flags override file and environment settings.
	if *blockSize != 0 {
		cfg.Stream.BlockSizeBytes = *blockSize
	}
	if *scatter {
		cfg.Stream.Mode = string(fanout.ModeScatter)
	}
	if *lineAligned {
		cfg.Stream.LineAligned = true
	}
	if *logLevel != "" {
		cfg.Observability.Logging.Level = *logLevel
	}
	if err := loader.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	mode, err := fanout.ParseMode(cfg.Stream.Mode)
	if err != nil {
		return err
	}

	// Initialize observability
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
		Output: cfg.Observability.Logging.Output,
	})
	logger.Info("starting streamtee",
		"version", cfg.Application.Version,
		"mode", mode,
		"line_aligned", cfg.Stream.LineAligned,
		"block_size", cfg.Stream.BlockSizeBytes,
		"sinks", flag.NArg(),
	)

	var metrics *observability.Metrics
	if cfg.Observability.Metrics.Enabled || cfg.Observability.Health.Enabled {
		registry := prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)

		healthChecker := &streamHealthChecker{healthy: true}
		httpServer := server.NewServer(
			cfg.Observability.Health.Port,
			cfg.Observability.Metrics.Port,
			healthChecker,
			registry,
			logger,
		)
		if err := httpServer.Start(); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Shutdown.GracePeriodSeconds)*time.Second)
			defer cancel()
			httpServer.Shutdown(ctx)
		}()
	}

	// Open the sink table
	table, err := sinks.Open(flag.Args())
	if err != nil {
		return err
	}
	defer table.Close()

	// Wire the engine
	var poolMetrics pool.MetricsCollector
	var engineMetrics engine.MetricsCollector
	if metrics != nil {
		poolMetrics = metrics
		engineMetrics = metrics
		metrics.SetSinksActive(table.ActiveCount())
	}

	blockPool := pool.New(cfg.Stream.BlockSizeBytes, poolMetrics)
	allocator := alloc.New(mode, cfg.Stream.LineAligned, blockPool)
	eng := engine.New(blockPool, allocator, table.Sinks(), engine.Config{
		SourceFD: int(os.Stdin.Fd()),
		Logger:   logger,
		Metrics:  engineMetrics,
	})

	// Run the engine; cancellation is signal-driven process termination
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- eng.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received termination signal", "signal", sig.String())
		cancel()
		return fmt.Errorf("terminated by signal %s", sig)
	case err := <-runErr:
		if err != nil {
			logger.Error("stream failed", "error", err)
			return err
		}
	}

	logger.Info("streamtee finished", "bytes_read", eng.BytesRead())
	return nil
}

// streamHealthChecker implements server.HealthChecker. The engine has no
// mutable state safe to read from another goroutine, so the probes report
// process-level health only.
type streamHealthChecker struct {
	healthy bool
}

func (h *streamHealthChecker) Liveness() bool {
	return h.healthy
}

func (h *streamHealthChecker) Readiness(ctx context.Context) bool {
	return h.healthy
}

func (h *streamHealthChecker) GetStatus() map[string]string {
	return map[string]string{
		"status": "streaming",
	}
}
