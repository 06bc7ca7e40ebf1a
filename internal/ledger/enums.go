package ledger

import (
	"fmt"
	"strings"
)

// QuotationStatus enumerates quotation states.
type QuotationStatus string

const (
	QuotationPending   QuotationStatus = "PENDING"
	QuotationProcessed QuotationStatus = "PROCESSED"
	QuotationCancelled QuotationStatus = "CANCELLED"
)

// InvoiceStatus enumerates invoice states.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceSent      InvoiceStatus = "SENT"
	InvoicePartial   InvoiceStatus = "PARTIAL"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

// ActivityStatus enumerates activity states.
type ActivityStatus string

const (
	ActivityScheduled  ActivityStatus = "SCHEDULED"
	ActivityInProgress ActivityStatus = "IN_PROGRESS"
	ActivityCompleted  ActivityStatus = "COMPLETED"
	ActivityCancelled  ActivityStatus = "CANCELLED"
)

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodEcocash  PaymentMethod = "ECOCASH"
	MethodSwipe    PaymentMethod = "SWIPE"
	MethodTransfer PaymentMethod = "TRANSFER"
	MethodCredit   PaymentMethod = "CREDIT"
)

// Currency enumerates currencies recorded on stock movements.
type Currency string

const (
	CurrencyUSD  Currency = "USD"
	CurrencyZWL  Currency = "ZWL"
	CurrencyRand Currency = "RAND"
)

// TransactionType classifies a stock movement by direction.
type TransactionType string

const (
	StockIn         TransactionType = "STOCK_IN"
	StockOut        TransactionType = "STOCK_OUT"
	StockAdjustment TransactionType = "ADJUSTMENT"
)

// StockReason records why stock moved.
type StockReason string

const (
	ReasonPurchase          StockReason = "PURCHASE"
	ReasonSoldToCustomer    StockReason = "SOLD_TO_CUSTOMER"
	ReasonInstalledToClient StockReason = "INSTALLED_TO_CLIENT"
	ReasonDamaged           StockReason = "DAMAGED"
	ReasonReturned          StockReason = "RETURNED"
	ReasonAdjustment        StockReason = "ADJUSTMENT"
	ReasonRestock           StockReason = "RESTOCK"
)

// RefType names the kind of document a stock movement points at.
type RefType string

const (
	RefInvoice             RefType = "INVOICE"
	RefInvoiceEditRevert   RefType = "INVOICE_EDIT_REVERT"
	RefInvoiceEditDeduct   RefType = "INVOICE_EDIT_DEDUCT"
	RefInvoiceDeletion     RefType = "INVOICE_DELETION"
	RefInvoiceCancellation RefType = "INVOICE_CANCELLATION"
)

// FinancialType splits financial records into income and expense.
type FinancialType string

const (
	Income  FinancialType = "INCOME"
	Expense FinancialType = "EXPENSE"
)

// DocumentKind selects which numbered document family a number belongs to.
type DocumentKind string

const (
	KindQuotation DocumentKind = "QUOTATION"
	KindInvoice   DocumentKind = "INVOICE"
)

// CategorySales is the income category payments are booked under.
const CategorySales = "Sales"

// DefaultExpenseCategories are the expense categories a new ledger starts with.
var DefaultExpenseCategories = []string{
	"Fuel",
	"Car Maintenance",
	"Rent",
	"Solar Maintenance",
	"Services",
	"Employee Payments",
	"Utilities",
	"Equipment Purchase",
	"Other Expenses",
}

// ParseQuotationStatus rejects values outside the closed set.
func ParseQuotationStatus(v string) (QuotationStatus, error) {
	return parseEnum(v, "quotation status", QuotationPending, QuotationProcessed, QuotationCancelled)
}

// ParseInvoiceStatus rejects values outside the closed set.
func ParseInvoiceStatus(v string) (InvoiceStatus, error) {
	return parseEnum(v, "invoice status", InvoiceDraft, InvoiceSent, InvoicePartial, InvoicePaid, InvoiceOverdue, InvoiceCancelled)
}

// ParsePaymentMethod rejects values outside the closed set.
func ParsePaymentMethod(v string) (PaymentMethod, error) {
	return parseEnum(v, "payment method", MethodCash, MethodEcocash, MethodSwipe, MethodTransfer, MethodCredit)
}

// ParseCurrency rejects values outside the closed set. Empty defaults to USD.
func ParseCurrency(v string) (Currency, error) {
	if strings.TrimSpace(v) == "" {
		return CurrencyUSD, nil
	}
	return parseEnum(v, "currency", CurrencyUSD, CurrencyZWL, CurrencyRand)
}

// ParseStockReason rejects values outside the closed set.
func ParseStockReason(v string) (StockReason, error) {
	return parseEnum(v, "stock reason",
		ReasonPurchase, ReasonSoldToCustomer, ReasonInstalledToClient,
		ReasonDamaged, ReasonReturned, ReasonAdjustment, ReasonRestock)
}

// ParseFinancialType rejects values outside the closed set.
func ParseFinancialType(v string) (FinancialType, error) {
	return parseEnum(v, "financial type", Income, Expense)
}

// ParseActivityStatus rejects values outside the closed set. Empty defaults to SCHEDULED.
func ParseActivityStatus(v string) (ActivityStatus, error) {
	if strings.TrimSpace(v) == "" {
		return ActivityScheduled, nil
	}
	return parseEnum(v, "activity status", ActivityScheduled, ActivityInProgress, ActivityCompleted, ActivityCancelled)
}

func parseEnum[T ~string](v, field string, allowed ...T) (T, error) {
	candidate := T(strings.ToUpper(strings.TrimSpace(v)))
	for _, a := range allowed {
		if candidate == a {
			return a, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrInvalidValue, field, v)
}
