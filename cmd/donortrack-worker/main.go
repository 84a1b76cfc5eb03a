package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"donortrack/internal/cli"
	"donortrack/internal/log"
	"donortrack/internal/services"
	"donortrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	logger.Info("Starting donortrack-worker",
		"reconcile_interval", cfg.ReconcileInterval,
		"reconcile_concurrency", cfg.ReconcileConcurrency,
		log.FieldOperation, log.OpStartup)

	store := cli.OpenStore(context.Background(), logger, cfg)
	defer store.Close()

	// the worker only reads events; reconciliation publishes nothing
	reconciler := worker.NewReconcileWorker(
		services.NewDonationService(store, nil),
		cfg.ReconcileConcurrency,
		cfg.ReconcileInterval,
		logger,
	)

	events := cli.ConnectEvents(logger, cfg)
	if events != nil {
		defer events.Close()
	} else {
		logger.Warn("Running periodic sweeps only, no event consumption")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reconciler.RunSweeps(gctx)
		return nil
	})
	if events != nil {
		g.Go(func() error {
			err := events.Consume(gctx, reconciler.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
