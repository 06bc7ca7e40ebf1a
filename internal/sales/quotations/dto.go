package quotations

import "github.com/bizledger/bizledger/internal/ledger"

// CreateQuotationRequest opens a quotation for a customer.
type CreateQuotationRequest struct {
	CustomerID string             `json:"customer_id" validate:"required,max=64"`
	Lines      []ledger.LineInput `json:"lines"`
	Notes      string             `json:"notes" validate:"max=1000"`
}

// UpdateQuotationRequest replaces the lines of a pending quotation.
type UpdateQuotationRequest struct {
	Lines []ledger.LineInput `json:"lines"`
	Notes *string            `json:"notes" validate:"omitempty,max=1000"`
}

// ListQuotationsRequest filters quotation listings.
type ListQuotationsRequest struct {
	CustomerID string
	Status     string
}
