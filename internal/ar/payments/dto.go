package payments

import "github.com/shopspring/decimal"

// RecordPaymentRequest registers money received against an invoice.
type RecordPaymentRequest struct {
	InvoiceID int64           `json:"invoice_id" validate:"required,gt=0"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required"`
	PayerName string          `json:"payer_name" validate:"max=200"`
	Reference string          `json:"reference" validate:"max=100"`
	Notes     string          `json:"notes" validate:"max=1000"`
	// IdempotencyKey makes a retried request a no-op. Optional.
	IdempotencyKey string `json:"-"`
}

// EditPaymentRequest changes a recorded payment. Nil fields keep their value.
type EditPaymentRequest struct {
	Amount    *decimal.Decimal `json:"amount"`
	Method    *string          `json:"method"`
	PayerName *string          `json:"payer_name" validate:"omitempty,max=200"`
	Reference *string          `json:"reference" validate:"omitempty,max=100"`
	Notes     *string          `json:"notes" validate:"omitempty,max=1000"`
}
