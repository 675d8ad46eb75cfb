package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/termgen/internal/analysis"
	"github.com/kailas-cloud/termgen/internal/chain"
	"github.com/kailas-cloud/termgen/internal/chain/export"
	"github.com/kailas-cloud/termgen/internal/config"
	dbRedis "github.com/kailas-cloud/termgen/internal/db/redis"
	"github.com/kailas-cloud/termgen/internal/domain/event"
	logpkg "github.com/kailas-cloud/termgen/internal/logger"
	"github.com/kailas-cloud/termgen/internal/metrics"
	sourcerepo "github.com/kailas-cloud/termgen/internal/repository/source"
	tasterepo "github.com/kailas-cloud/termgen/internal/repository/taste"
	chiTransport "github.com/kailas-cloud/termgen/internal/transport/chi"
	healthuc "github.com/kailas-cloud/termgen/internal/usecase/health"
	tasteuc "github.com/kailas-cloud/termgen/internal/usecase/taste"
	"github.com/kailas-cloud/termgen/internal/usecase/termgen"
	"github.com/kailas-cloud/termgen/internal/version"
)

const (
	opsShutdownTimeout = 5 * time.Second
	drainTimeout       = time.Minute
)

func main() {
	app := &cli.App{
		Name:    "termgen",
		Usage:   "Generate preference events from the term vectors of indexed documents",
		Version: version.String(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Scan the configured index once and push every term event through the chain",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "env",
						Aliases: []string{"e"},
						Usage:   "Config environment: loads config/<env>.yaml (default: $ENV or local)",
						Value:   config.GetEnv(),
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "Explicit config file path; overrides --env lookup",
					},
				},
				Action: runAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "termgen: %v\n", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	env := c.String("env")

	var (
		cfg config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	base, err := logpkg.NewLogger(cfg.Logging.LoggerEnv(env), cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = base.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.ContextWithRunID(logpkg.ContextWithLogger(ctx, base), logpkg.NewRunID())
	logger := logpkg.FromContext(ctx)

	logger.Info("Starting termgen",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("index", cfg.Source.Index),
		zap.String("type", cfg.Source.Type),
		zap.Strings("fields", cfg.Source.Fields),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return fmt.Errorf("failed to create database store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterTermgenMetrics()

	// Dispatch chain: user -> item -> preference [-> parquet export]
	taste := tasterepo.New(store, tasterepo.Namespaces{
		User:       cfg.Event.UserIndex,
		Item:       cfg.Event.ItemIndex,
		Preference: cfg.Event.PreferenceIndex,
	})
	handlers := tasteuc.Handlers(taste, taste)

	var exporter *export.Writer
	if cfg.Export.ParquetPath != "" {
		exporter, err = export.Create(cfg.Export.ParquetPath)
		if err != nil {
			return fmt.Errorf("failed to create export: %w", err)
		}
		handlers = append(handlers, exporter)
		logger.Info("Parquet export enabled", zap.String("path", cfg.Export.ParquetPath))
	}

	pool := chain.NewPool(cfg.Dispatch.Workers)
	params := event.NewParams(cfg.Event.Settings())
	dispatcher := chain.NewDispatcher(chain.New(handlers...), pool, params)

	// Scan pipeline
	source := sourcerepo.New(store, analysis.New(analysis.Options{
		MinTokenLength: cfg.Analysis.MinTokenLength,
		Stopwords:      cfg.Analysis.Stopwords,
	}))
	opts := termgen.Options{
		Index:     cfg.Source.Index,
		Type:      cfg.Source.Type,
		Fields:    cfg.Source.Fields,
		IDField:   cfg.Source.IDField,
		PageSize:  cfg.Scroll.Size,
		KeepAlive: cfg.Scroll.KeepAlive(),
		Names:     params.FieldNames(),
	}
	fetcher := termgen.NewFetcher(source, dispatcher, opts, logger)
	driver := termgen.NewDriver(source, fetcher, opts, logger)

	stopOps := startOpsServer(cfg.Metrics, healthuc.New(store, driver), logger)
	defer stopOps()

	start := time.Now()
	runErr := driver.Run(ctx)

	// After a cursor failure or a soft stop the last submitted page may still
	// be in flight; let it reach the chain before the pool and store close.
	drainCtx, cancelDrain := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	if err := driver.Drain(drainCtx); err != nil {
		logger.Warn("Last page did not drain", zap.Error(err))
	}
	cancelDrain()
	pool.Close()
	if exporter != nil {
		if err := exporter.Close(); err != nil {
			logger.Error("Failed to close export", zap.Error(err))
			if runErr == nil {
				runErr = err
			}
		} else {
			logger.Info("Export written", zap.Int("rows", exporter.Rows()))
		}
	}

	stats := driver.Stats()
	if runErr != nil {
		logger.Error("Scan failed",
			zap.Error(runErr),
			zap.Int("pages", stats.Pages),
			zap.Int("hits", stats.Hits),
		)
		return runErr
	}

	logger.Info("Scan finished",
		zap.String("state", driver.State().String()),
		zap.Int("pages", stats.Pages),
		zap.Int("hits", stats.Hits),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// startOpsServer serves /metrics and /healthz while the scan runs. Returns a stop func.
func startOpsServer(cfg config.MetricsConfig, health *healthuc.Service, logger *zap.Logger) func() {
	if cfg.Addr == "" {
		return func() {}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           chiTransport.NewServer(health, logger).Router(cfg.APIKeys),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Starting ops server", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ops server error", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error during ops server shutdown", zap.Error(err))
		}
	}
}
