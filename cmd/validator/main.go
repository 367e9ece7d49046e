// Package main runs a single prediction validation pass and exits.
// It is meant to be scheduled (cron, Kubernetes CronJob) alongside the server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiranshivaraju/foresight/internal/config"
	"github.com/kiranshivaraju/foresight/internal/prediction"
	"github.com/kiranshivaraju/foresight/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(); err != nil {
		slog.Error("validation failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return validate(ctx, prediction.NewValidator(store.NewPostgresStore(pool), cfg.Prediction.ValidationBatchSize))
}

type validator interface {
	Validate(ctx context.Context) (prediction.ValidationResult, error)
}

func validate(ctx context.Context, v validator) error {
	res, err := v.Validate(ctx)
	if err != nil {
		return fmt.Errorf("validate predictions: %w", err)
	}
	slog.Info("validation complete", "validated", res.Validated, "accuracy", res.Accuracy)
	return nil
}
