package inventory

import (
	"github.com/shopspring/decimal"
)

// CreateItemInput registers a new stocked product with an opening balance.
type CreateItemInput struct {
	Name              string          `json:"name" validate:"required,max=200"`
	Brand             string          `json:"brand" validate:"max=100"`
	Category          string          `json:"category" validate:"max=100"`
	Specifications    string          `json:"specifications" validate:"max=255"`
	Quantity          int             `json:"quantity" validate:"gte=0"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	MinimumStockLevel int             `json:"minimum_stock_level" validate:"gte=0"`
	Currency          string          `json:"currency"`
	SupplierID        *int64          `json:"supplier_id"`
}

// UpdateItemInput changes descriptive fields and prices. Quantity is not editable here.
type UpdateItemInput struct {
	Name              string          `json:"name" validate:"required,max=200"`
	Brand             string          `json:"brand" validate:"max=100"`
	Category          string          `json:"category" validate:"max=100"`
	Specifications    string          `json:"specifications" validate:"max=255"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	MinimumStockLevel int             `json:"minimum_stock_level" validate:"gte=0"`
	// SupplierID nil clears the supplier.
	SupplierID *int64 `json:"supplier_id"`
}

// StockInInput receives goods. A cost price replaces the item's cost price.
type StockInInput struct {
	Quantity  int              `json:"quantity" validate:"gt=0"`
	CostPrice *decimal.Decimal `json:"cost_price"`
	Currency  string           `json:"currency"`
	Notes     string           `json:"notes" validate:"max=500"`
}

// StockOutInput issues goods outside the invoice flow.
type StockOutInput struct {
	Quantity     int    `json:"quantity" validate:"gt=0"`
	Reason       string `json:"reason" validate:"required"`
	CustomerName string `json:"customer_name" validate:"max=200"`
	Notes        string `json:"notes" validate:"max=500"`
}

// AdjustInput corrects the quantity on hand after a count.
type AdjustInput struct {
	Delta int    `json:"delta" validate:"ne=0"`
	Notes string `json:"notes" validate:"max=500"`
}
