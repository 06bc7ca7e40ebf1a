package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoicesOverdueSweep moves invoices past their due date to OVERDUE.
	TaskInvoicesOverdueSweep = "invoices:overdue_sweep"
	// TaskInventoryStockSnapshot logs stock value and low stock items.
	TaskInventoryStockSnapshot = "inventory:stock_snapshot"
)

// OverdueSweepPayload carries the instant the sweep compares due dates with.
// A zero AsOf means the time the task runs.
type OverdueSweepPayload struct {
	AsOf time.Time `json:"as_of,omitempty"`
}

// NewOverdueSweepTask constructs an Asynq task for the overdue sweep.
func NewOverdueSweepTask(asOf time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OverdueSweepPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoicesOverdueSweep, body, asynq.Queue(QueueDefault)), nil
}

// StockSnapshotPayload carries scheduling metadata.
type StockSnapshotPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewStockSnapshotTask constructs an Asynq task for the stock snapshot.
func NewStockSnapshotTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(StockSnapshotPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInventoryStockSnapshot, body, asynq.Queue(QueueDefault)), nil
}
