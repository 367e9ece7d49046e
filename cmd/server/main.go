// Package main is the entrypoint for the Foresight API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/foresight/internal/ai"
	"github.com/kiranshivaraju/foresight/internal/api"
	"github.com/kiranshivaraju/foresight/internal/api/handler"
	mw "github.com/kiranshivaraju/foresight/internal/api/middleware"
	"github.com/kiranshivaraju/foresight/internal/api/response"
	"github.com/kiranshivaraju/foresight/internal/cache"
	"github.com/kiranshivaraju/foresight/internal/config"
	"github.com/kiranshivaraju/foresight/internal/prediction"
	"github.com/kiranshivaraju/foresight/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create advisory oracle, optional
	advisor, err := newAdvisor(cfg, redisCache)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}

	// 6. Create store and services
	pgStore := store.NewPostgresStore(pool)

	predictions := prediction.NewService(pgStore, redisCache, advisor, prediction.Options{
		LookbackDays:    cfg.Prediction.LookbackDays,
		MaxHorizonHours: cfg.Prediction.MaxHorizonHours,
		RecordLimit:     cfg.Prediction.RecordLimit,
	})
	executor := prediction.NewExecutor(pgStore, redisCache, cfg.Prediction.Capabilities)
	validator := prediction.NewValidator(pgStore, cfg.Prediction.ValidationBatchSize)
	correlations := prediction.NewCorrelationService(pgStore)

	// 7. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(pgStore),
		RateLimit: mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMinute),

		HealthHandler:      healthHandler(pgStore, redisCache),
		CreatePredictions:  handler.NewCreatePredictionsHandler(predictions),
		ListPredictions:    handler.NewListPredictionsHandler(predictions),
		GetPrediction:      handler.NewGetPredictionHandler(predictions),
		PreventPrediction:  handler.NewPreventHandler(predictions, executor),
		ValidatePrediction: handler.NewValidateHandler(validator),
		Correlations:       handler.NewCorrelationsHandler(correlations),
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newAdvisor wraps the configured provider in a cached advisory service
// bounded by the prediction advisor timeout. It returns a nil Advisor when no
// provider is configured.
func newAdvisor(cfg *config.Config, c cache.Cache) (prediction.Advisor, error) {
	if !cfg.AdvisoryEnabled() {
		slog.Info("advisory oracle disabled")
		return nil, nil
	}
	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return nil, err
	}
	slog.Info("AI provider initialized", "provider", provider.Name(), "inference_timeout", cfg.AI.InferenceTimeout)
	return ai.NewAdvisoryService(provider, c, cfg.AI.CacheTTL, cfg.Prediction.AdvisorTimeout), nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
