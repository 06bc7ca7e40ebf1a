package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bizledger/bizledger/internal/ar/invoices"
	jobmetrics "github.com/bizledger/bizledger/internal/jobs"
)

// OverdueMarker is the part of the invoice service the sweep needs.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (invoices.SweepResult, error)
}

// OverdueSweepJob marks invoices with an unpaid balance past their due date.
type OverdueSweepJob struct {
	Invoices OverdueMarker
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewOverdueSweepJob wires dependencies for the sweep handler.
func NewOverdueSweepJob(svc OverdueMarker, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueSweepJob {
	return &OverdueSweepJob{Invoices: svc, Logger: logger, Metrics: metrics}
}

// Handle processes overdue sweep tasks.
func (j *OverdueSweepJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Invoices == nil {
		return errors.New("overdue sweep: handler not configured")
	}
	var payload OverdueSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("overdue sweep payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	tracker := j.Metrics.Track(TaskInvoicesOverdueSweep)
	defer func() { err = tracker.End(err) }()

	logger := loggerOrDefault(j.Logger).With(slog.String("task", TaskInvoicesOverdueSweep))
	res, err := j.Invoices.MarkOverdue(ctx, payload.AsOf)
	if err != nil {
		logger.Error("overdue sweep failed", slog.Any("error", err))
		return err
	}
	j.Metrics.AddOverdue(len(res.Marked))
	logger.Info("overdue sweep completed",
		slog.Time("as_of", res.AsOf),
		slog.Int("marked", len(res.Marked)),
		slog.Any("numbers", res.Marked),
	)
	return nil
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
