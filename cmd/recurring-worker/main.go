package main

import (
	"context"
	"os"
	"time"
	_ "time/tzdata"

	"fluxo/internal/amqp"
	"fluxo/internal/cli"
	"fluxo/internal/log"
	"fluxo/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting recurring-worker")

	matCfg, err := cfg.Materializer()
	if err != nil {
		logger.Error("Invalid recurrence settings", log.FieldError, err.Error())
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Materialized entries are announced so the sheets worker can export them.
	var notifier services.Notifier
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, sweeping without export notifications", log.FieldError, err.Error())
		} else {
			defer client.Close()
			notifier = amqp.NewNotifier(client, logger)
			logger.Info("AMQP notifications enabled", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled, materialized entries will not be exported")
	}

	materializer := services.NewRecurrenceMaterializer(repo, repo, matCfg,
		services.WithNotifier(notifier),
		services.WithLogger(logger))

	scheduler := services.NewSweepScheduler(materializer, services.SweepSchedulerConfig{
		Interval:   cfg.SweepInterval,
		RunOnStart: cfg.SweepOnStart,
	}, logger)

	logger.Info("Recurrence sweep configured",
		"interval", cfg.SweepInterval.String(),
		"run_on_start", cfg.SweepOnStart,
		"timezone", cfg.Timezone,
		"sqlite_db", cfg.SQLiteDBPath)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("Sweep scheduler did not stop cleanly", log.FieldError, err.Error())
		}
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Sweep scheduler failed to start", log.FieldError, err.Error())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Recurring-worker shutdown complete")
}
