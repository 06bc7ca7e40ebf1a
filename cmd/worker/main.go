package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bizledger/bizledger/internal/app"
	"github.com/bizledger/bizledger/internal/ar/invoices"
	"github.com/bizledger/bizledger/internal/finance"
	"github.com/bizledger/bizledger/internal/inventory"
	"github.com/bizledger/bizledger/internal/ledger/pgstore"
	"github.com/bizledger/bizledger/internal/observability"
	"github.com/bizledger/bizledger/internal/platform/cache"
	"github.com/bizledger/bizledger/internal/platform/db"
	"github.com/bizledger/bizledger/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	store := pgstore.New(pool)

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	financeService := finance.NewService(store, finance.ServiceConfig{
		Cache:    cache.NewVersioned(redisClient, "finance", cfg.SummaryCacheTTL),
		Logger:   logger,
		Observer: metrics,
	})
	invoiceService := invoices.NewService(store, invoices.ServiceConfig{
		DefaultDueDays: cfg.InvoiceDueDays,
		Observer:       metrics,
		Invalidator:    financeService,
	})
	inventoryService := inventory.NewService(store, inventory.ServiceConfig{Observer: metrics})

	sweepJob := jobs.NewOverdueSweepJob(invoiceService, logger, metrics.Jobs())
	snapshotJob := jobs.NewStockSnapshotJob(inventoryService, logger, metrics.Jobs())

	sweepTask, err := jobs.NewOverdueSweepTask(time.Time{})
	if err != nil {
		logger.Error("build overdue sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	snapshotTask, err := jobs.NewStockSnapshotTask(time.Time{})
	if err != nil {
		logger.Error("build stock snapshot task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskInvoicesOverdueSweep, Handler: sweepJob.Handle},
			{Type: jobs.TaskInventoryStockSnapshot, Handler: snapshotJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.OverdueSweepCron, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.StockSnapshotCron, Task: snapshotTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
