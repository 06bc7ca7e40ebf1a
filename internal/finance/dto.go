package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordEntryRequest books a manual income or expense.
type RecordEntryRequest struct {
	Type        string          `json:"type" validate:"required"`
	Category    string          `json:"category" validate:"required,max=100"`
	Description string          `json:"description" validate:"required,max=255"`
	Amount      decimal.Decimal `json:"amount"`
	// Date defaults to now.
	Date  *time.Time `json:"date"`
	Notes string     `json:"notes" validate:"max=1000"`
}

// CreateCategoryRequest adds an income or expense category.
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Type        string `json:"type" validate:"required"`
	Description string `json:"description" validate:"max=255"`
}

// ListEntriesRequest filters financial records. Zero bounds are open.
type ListEntriesRequest struct {
	Type string
	From time.Time
	To   time.Time
}

// Summary is the profit picture of [From, To).
type Summary struct {
	From        time.Time                  `json:"from"`
	To          time.Time                  `json:"to"`
	Income      decimal.Decimal            `json:"income"`
	SalesIncome decimal.Decimal            `json:"sales_income"`
	Expense     decimal.Decimal            `json:"expense"`
	Net         decimal.Decimal            `json:"net"`
	CostOfGoods decimal.Decimal            `json:"cost_of_goods"`
	GrossProfit decimal.Decimal            `json:"gross_profit"`
	ByCategory  map[string]decimal.Decimal `json:"by_category"`
}
