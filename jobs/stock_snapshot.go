package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/bizledger/bizledger/internal/inventory"
	jobmetrics "github.com/bizledger/bizledger/internal/jobs"
	"github.com/bizledger/bizledger/internal/ledger"
)

// StockReader is the part of the inventory service the snapshot reads.
type StockReader interface {
	Valuate(ctx context.Context) ([]inventory.Valuation, error)
	LowStock(ctx context.Context) ([]ledger.InventoryItem, error)
}

// StockSnapshot summarises stock on hand at one point in time.
type StockSnapshot struct {
	Items     int
	Units     int
	CostValue decimal.Decimal
	SaleValue decimal.Decimal
	LowStock  []ledger.InventoryItem
}

// StockSnapshotJob logs the value of stock on hand and the items that need
// replenishing.
type StockSnapshotJob struct {
	Inventory StockReader
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewStockSnapshotJob wires dependencies for the snapshot handler.
func NewStockSnapshotJob(svc StockReader, logger *slog.Logger, metrics *jobmetrics.Metrics) *StockSnapshotJob {
	return &StockSnapshotJob{Inventory: svc, Logger: logger, Metrics: metrics}
}

// Handle processes stock snapshot tasks.
func (j *StockSnapshotJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Inventory == nil {
		return errors.New("stock snapshot: handler not configured")
	}
	var payload StockSnapshotPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("stock snapshot payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if payload.ScheduledFor.IsZero() {
		payload.ScheduledFor = time.Now().UTC()
	}

	tracker := j.Metrics.Track(TaskInventoryStockSnapshot)
	defer func() { err = tracker.End(err) }()

	logger := loggerOrDefault(j.Logger).With(slog.String("task", TaskInventoryStockSnapshot))
	snap, err := j.Snapshot(ctx)
	if err != nil {
		logger.Error("stock snapshot failed", slog.Any("error", err))
		return err
	}
	logger.Info("stock snapshot",
		slog.Time("scheduled_for", payload.ScheduledFor),
		slog.Int("items", snap.Items),
		slog.Int("units", snap.Units),
		slog.String("cost_value", snap.CostValue.StringFixed(2)),
		slog.String("sale_value", snap.SaleValue.StringFixed(2)),
		slog.Int("low_stock", len(snap.LowStock)),
	)
	for _, item := range snap.LowStock {
		logger.Warn("low stock",
			slog.Int64("item_id", item.ID),
			slog.String("name", item.Name),
			slog.Int("quantity", item.Quantity),
			slog.Int("minimum", item.MinimumStockLevel),
		)
	}
	return nil
}

// Snapshot totals the current valuation.
func (j *StockSnapshotJob) Snapshot(ctx context.Context) (StockSnapshot, error) {
	values, err := j.Inventory.Valuate(ctx)
	if err != nil {
		return StockSnapshot{}, fmt.Errorf("valuate stock: %w", err)
	}
	low, err := j.Inventory.LowStock(ctx)
	if err != nil {
		return StockSnapshot{}, fmt.Errorf("low stock: %w", err)
	}
	snap := StockSnapshot{Items: len(values), CostValue: decimal.Zero, SaleValue: decimal.Zero, LowStock: low}
	for _, v := range values {
		snap.Units += v.Quantity
		snap.CostValue = snap.CostValue.Add(v.CostValue)
		snap.SaleValue = snap.SaleValue.Add(v.SaleValue)
	}
	return snap, nil
}
