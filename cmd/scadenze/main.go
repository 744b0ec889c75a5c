package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"scadenze/internal/backend"
	"scadenze/internal/cache"
	"scadenze/internal/cli"
	apphttp "scadenze/internal/http"
	applog "scadenze/internal/log"
	"scadenze/internal/middleware/ratelimit"
	"scadenze/internal/recurrence"
	"scadenze/internal/source"
)

const memoEntries = 16

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	engine := recurrence.NewEngine(be.Source,
		recurrence.WithOptions(cfg.Detection.Options()),
		recurrence.WithMemo(memoEntries, cfg.CacheTTL),
		recurrence.WithLogger(logger))

	caches := cache.NewManager()
	caches.Register("engine_memo", engine.Memo())

	importer, err := source.Importer(be.Source)
	if err != nil {
		logger.Info("Backend is read-only, import endpoint disabled", "backend", cfg.DataBackend)
		importer = nil
	}

	srv := apphttp.NewServer(engine, apphttp.Config{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimit:          ratelimit.DefaultConfig(),
		Importer:           importer,
		Ready:              be.Ping,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting scadenze server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"min_occurrences", cfg.Detection.MinOccurrences)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		caches.StartCleanup(cfg.CacheTTL)
		<-gctx.Done()
		caches.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	<-done
	logger.Info("Server stopped gracefully")
}
