package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"tierquery/internal/api"
	"tierquery/internal/app"
	"tierquery/internal/config"
	internaldb "tierquery/internal/db"
	"tierquery/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	hotDB, err := internaldb.OpenHotStore(cfg.HotDBPath, 4)
	if err != nil {
		return err
	}
	defer hotDB.Close() //nolint:errcheck

	coldDB, err := internaldb.OpenColdStore(cfg.ColdDBPath)
	if err != nil {
		return err
	}
	defer coldDB.Close() //nolint:errcheck

	logger.Info("running hot store migrations")
	if err := internaldb.RunMigrations(hotDB); err != nil {
		return err
	}

	application, err := app.New(ctx, app.Deps{
		Cfg:    cfg,
		HotDB:  hotDB,
		ColdDB: coldDB,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if !cfg.IsProduction() {
		if err := app.SeedDev(ctx, hotDB, coldDB, cfg.HotWindowDays); err != nil {
			return err
		}
		logger.Info("development seed data loaded")
	}

	application.Maintenance.Start()
	defer application.Maintenance.Stop()

	handler := api.NewHandler(application.Federation, application.Maintenance,
		application.Recorder, logger.With("component", "api"))

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger.With("component", "http")))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	r.Mount("/", handler.Routes())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
