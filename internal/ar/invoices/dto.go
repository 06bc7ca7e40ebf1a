package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizledger/bizledger/internal/ledger"
)

// CreateInvoiceRequest bills a customer directly, without a quotation.
type CreateInvoiceRequest struct {
	CustomerID     string             `json:"customer_id" validate:"required,max=64"`
	ActivityTypeID *int64             `json:"activity_type_id" validate:"omitempty,gt=0"`
	Lines          []ledger.LineInput `json:"lines"`
	DueDate        *time.Time         `json:"due_date"`
	Notes          string             `json:"notes" validate:"max=1000"`
}

// UpdateInvoiceRequest replaces the lines of an invoice. Nil fields keep
// their current value.
type UpdateInvoiceRequest struct {
	Lines          []ledger.LineInput `json:"lines"`
	ActivityTypeID *int64             `json:"activity_type_id" validate:"omitempty,gt=0"`
	DueDate        *time.Time         `json:"due_date"`
	Notes          *string            `json:"notes" validate:"omitempty,max=1000"`
}

// ListInvoicesRequest filters invoice listings.
type ListInvoicesRequest struct {
	CustomerID string
	Status     string
}

// CreateActivityTypeRequest registers an activity type.
type CreateActivityTypeRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// SweepResult reports an overdue sweep.
type SweepResult struct {
	AsOf   time.Time `json:"as_of"`
	Marked []string  `json:"marked"`
}

// AgingBucket groups open balances by days past due.
type AgingBucket struct {
	Current   decimal.Decimal `json:"current"`
	Bucket30  decimal.Decimal `json:"bucket_30"`
	Bucket60  decimal.Decimal `json:"bucket_60"`
	Bucket90  decimal.Decimal `json:"bucket_90"`
	Bucket90P decimal.Decimal `json:"bucket_90_plus"`
	Total     decimal.Decimal `json:"total"`
}
