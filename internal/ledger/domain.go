// Package ledger holds the business records shared by the stock, sales and
// receivables lifecycles together with the unit-of-work ports they run on.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is identified by its business identification code.
type Customer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Surname     string    `json:"surname,omitempty"`
	Citizenship string    `json:"citizenship,omitempty"`
	Address     string    `json:"address,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DisplayName joins name and surname the way stock transactions record buyers.
func (c Customer) DisplayName() string {
	if c.Surname == "" {
		return c.Name
	}
	return c.Name + " " + c.Surname
}

// ActivityType classifies the work an invoice bills for.
type ActivityType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Activity is a scheduled or completed job done for a customer.
type Activity struct {
	ID             int64           `json:"id"`
	CustomerID     *string         `json:"customer_id,omitempty"`
	ActivityTypeID *int64          `json:"activity_type_id,omitempty"`
	Description    string          `json:"description"`
	Status         ActivityStatus  `json:"status"`
	Date           time.Time       `json:"date"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	Technician     string          `json:"technician,omitempty"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Currency       Currency        `json:"currency"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ActivityFilter narrows activity listings.
type ActivityFilter struct {
	CustomerID string
	Status     ActivityStatus
}

// Supplier is a vendor inventory items are bought from.
type Supplier struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	PaymentTerms  string    `json:"payment_terms,omitempty"`
	Currency      Currency  `json:"currency"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// InventoryItem is a stocked product. Quantity changes only through the stock ledger.
type InventoryItem struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Brand             string          `json:"brand,omitempty"`
	Category          string          `json:"category,omitempty"`
	Specifications    string          `json:"specifications,omitempty"`
	SupplierID        *int64          `json:"supplier_id,omitempty"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	MinimumStockLevel int             `json:"minimum_stock_level"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ItemCode is the code printed on document lines for this item.
func (i InventoryItem) ItemCode() string {
	if i.Specifications != "" {
		return i.Specifications
	}
	return "INV-ITM"
}

// DocumentRef points a stock movement at the document that caused it.
type DocumentRef struct {
	ID   int64   `json:"id"`
	Type RefType `json:"type"`
}

// StockTransaction is an append-only record of one quantity change.
type StockTransaction struct {
	ID           int64           `json:"id"`
	ItemID       int64           `json:"item_id"`
	Type         TransactionType `json:"type"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Currency     Currency        `json:"currency"`
	Reason       StockReason     `json:"reason"`
	Ref          *DocumentRef    `json:"ref,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// StockTransactionFilter narrows stock history reads.
type StockTransactionFilter struct {
	ItemID  *int64
	RefID   *int64
	RefType RefType
}

// Quotation is a priced offer that never touches stock.
type Quotation struct {
	ID          int64           `json:"id"`
	Number      string          `json:"number"`
	CustomerID  *string         `json:"customer_id,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      QuotationStatus `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Items       []QuotationItem `json:"items,omitempty"`
}

// QuotationItem is one ordered line of a quotation.
type QuotationItem struct {
	ID          int64           `json:"id"`
	QuotationID int64           `json:"quotation_id"`
	Position    int             `json:"position"`
	InventoryID *int64          `json:"inventory_id,omitempty"`
	ItemCode    string          `json:"item_code"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// QuotationFilter narrows quotation listings.
type QuotationFilter struct {
	CustomerID string
	Status     QuotationStatus
}

// Invoice is a bill. PaidAmount plus BalanceDue always equals TotalAmount.
type Invoice struct {
	ID             int64           `json:"id"`
	Number         string          `json:"number"`
	CustomerID     *string         `json:"customer_id,omitempty"`
	QuotationID    *int64          `json:"quotation_id,omitempty"`
	ActivityTypeID *int64          `json:"activity_type_id,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	Status         InvoiceStatus   `json:"status"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Items          []InvoiceItem   `json:"items,omitempty"`
	Payments       []Payment       `json:"payments,omitempty"`
}

// InvoiceItem is one ordered line of an invoice.
type InvoiceItem struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	Position    int             `json:"position"`
	InventoryID *int64          `json:"inventory_id,omitempty"`
	ItemCode    string          `json:"item_code"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	CustomerID string
	Status     InvoiceStatus
	// DueBefore selects open invoices whose due date lies before the instant.
	DueBefore *time.Time
}

// Payment is money received against one invoice.
type Payment struct {
	ID              int64           `json:"id"`
	InvoiceID       int64           `json:"invoice_id"`
	Amount          decimal.Decimal `json:"amount"`
	Method          PaymentMethod   `json:"method"`
	PayerName       string          `json:"payer_name,omitempty"`
	TransactionID   string          `json:"transaction_id"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	PaidAt          time.Time       `json:"paid_at"`
}

// FinancialRecord is an append-only income or expense entry.
type FinancialRecord struct {
	ID          int64           `json:"id"`
	Type        FinancialType   `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	InvoiceID   *int64          `json:"invoice_id,omitempty"`
	PaymentID   *int64          `json:"payment_id,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// FinancialCategory is a named bucket financial records are booked under.
type FinancialCategory struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Type        FinancialType `json:"type"`
	Description string        `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// FinancialFilter narrows financial record reads. Zero bounds are open.
type FinancialFilter struct {
	Type FinancialType
	From time.Time
	To   time.Time
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// StringPtr returns a pointer to v, or nil for an empty string.
func StringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
