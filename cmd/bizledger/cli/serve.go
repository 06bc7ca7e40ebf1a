package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bizledger/bizledger/internal/app"
	"github.com/bizledger/bizledger/internal/ar/invoices"
	"github.com/bizledger/bizledger/internal/ar/payments"
	"github.com/bizledger/bizledger/internal/finance"
	"github.com/bizledger/bizledger/internal/inventory"
	"github.com/bizledger/bizledger/internal/ledger/pgstore"
	"github.com/bizledger/bizledger/internal/masterdata/suppliers"
	"github.com/bizledger/bizledger/internal/observability"
	"github.com/bizledger/bizledger/internal/platform/cache"
	"github.com/bizledger/bizledger/internal/platform/db"
	"github.com/bizledger/bizledger/internal/sales/activities"
	"github.com/bizledger/bizledger/internal/sales/customers"
	"github.com/bizledger/bizledger/internal/sales/quotations"
	"github.com/bizledger/bizledger/internal/shared"
	"github.com/bizledger/bizledger/jobs"
)

const shutdownTimeout = 10 * time.Second

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := app.NewLogger(cfg)
			if err := db.Migrate(cfg.PGDSN); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.PGDSN); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()
	store := pgstore.New(pool)

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	idempotency := shared.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)

	financeService := finance.NewService(store, finance.ServiceConfig{
		Cache:    cache.NewVersioned(redisClient, "finance", cfg.SummaryCacheTTL),
		Logger:   logger,
		Observer: metrics,
	})
	inventoryService := inventory.NewService(store, inventory.ServiceConfig{Observer: metrics})
	supplierService := suppliers.NewService(store, nil, metrics)
	customerService := customers.NewService(store, nil)
	activityService := activities.NewService(store, activities.ServiceConfig{Observer: metrics})
	quotationService := quotations.NewService(store, quotations.ServiceConfig{
		DefaultDueDays: cfg.InvoiceDueDays,
		Observer:       metrics,
		Invalidator:    financeService,
	})
	invoiceService := invoices.NewService(store, invoices.ServiceConfig{
		DefaultDueDays: cfg.InvoiceDueDays,
		Observer:       metrics,
		Invalidator:    financeService,
	})
	paymentService := payments.NewService(store, payments.ServiceConfig{
		Guard:       idempotency,
		Observer:    metrics,
		Invalidator: financeService,
	})

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		return err
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		Database:          pool,
		InventoryHandler:  inventory.NewHandler(logger, inventoryService),
		SuppliersHandler:  suppliers.NewHandler(logger, supplierService),
		CustomersHandler:  customers.NewHandler(logger, customerService),
		ActivitiesHandler: activities.NewHandler(logger, activityService),
		QuotationsHandler: quotations.NewHandler(logger, quotationService),
		InvoicesHandler:   invoices.NewHandler(logger, invoiceService),
		PaymentsHandler:   payments.NewHandler(logger, paymentService),
		FinanceHandler:    finance.NewHandler(logger, financeService),
		JobsHandler:       jobs.NewHandler(inspector, jobClient, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
