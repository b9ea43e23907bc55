package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"fluxo/internal/amqp"
	"fluxo/internal/cache"
	"fluxo/internal/cli"
	apphttp "fluxo/internal/http"
	"fluxo/internal/log"
	"fluxo/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	logger.Info("Starting fluxo")

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", log.FieldError, err.Error())
		os.Exit(1)
	}
	matCfg, err := cfg.Materializer()
	if err != nil {
		logger.Error("Invalid recurrence settings", log.FieldError, err.Error())
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	dashboard := services.NewDashboardService(repo, cfg.CacheTTL, logger)
	notifiers := services.MultiNotifier{dashboard}

	// Ledger changes fan out to the sheets worker when a broker is configured.
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without export notifications", log.FieldError, err.Error())
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			notifiers = append(notifiers, amqp.NewNotifier(amqpClient, logger))
			logger.Info("AMQP notifications enabled", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled, ledger changes stay local")
	}

	materializer := services.NewRecurrenceMaterializer(repo, repo, matCfg,
		services.WithNotifier(notifiers),
		services.WithLogger(logger))

	var cacheManager *cache.Manager
	if c := dashboard.Cache(); c != nil {
		cacheManager = cache.NewManager(logger)
		cacheManager.Register(c)
		cacheManager.StartCleanup(cfg.CacheTTL)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:           net.JoinHostPort("", cfg.Port),
		DefaultOwnerID: cfg.DefaultOwnerID,
		Location:       loc,
		RateLimitRPS:   cfg.RateLimitRPS,
		Logger:         logger,
	}, apphttp.Services{
		Entries:    services.NewEntryService(repo, notifiers, logger),
		Categories: services.NewCategoryService(repo, logger),
		Cards:      services.NewCardService(repo),
		Rules:      services.NewRuleService(repo, loc, logger),
		Dashboard:  dashboard,
		Sweeper:    materializer,
		DB:         repo,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if cacheManager != nil {
			cacheManager.Stop()
		}
	})

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err.Error(), "addr", srv.Addr)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
