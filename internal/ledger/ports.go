package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Store runs units of work. Everything fn does commits together or not at all.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}

// Tx is the transactional handle handed to a unit of work.
type Tx interface {
	CustomerTx
	ActivityTx
	SupplierTx
	InventoryTx
	NumberingTx
	QuotationTx
	InvoiceTx
	PaymentTx
	FinanceTx
}

// CustomerTx covers customers and activity types.
type CustomerTx interface {
	GetCustomer(ctx context.Context, id string) (Customer, error)
	// GetCustomerForUpdate locks the customer row for the rest of the unit of work.
	GetCustomerForUpdate(ctx context.Context, id string) (Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	InsertCustomer(ctx context.Context, c Customer) error
	// UpdateCustomer rewrites the descriptive fields; the id never changes.
	UpdateCustomer(ctx context.Context, c Customer) error
	// DetachCustomer clears the customer reference on quotations, invoices and activities.
	DetachCustomer(ctx context.Context, id string) error
	DeleteCustomer(ctx context.Context, id string) error

	GetActivityType(ctx context.Context, id int64) (ActivityType, error)
	ListActivityTypes(ctx context.Context) ([]ActivityType, error)
	InsertActivityType(ctx context.Context, name string) (int64, error)
	// DetachActivityType clears the type on activities and invoices.
	DetachActivityType(ctx context.Context, id int64) error
	DeleteActivityType(ctx context.Context, id int64) error
}

// ActivityTx covers customer activities.
type ActivityTx interface {
	// InsertActivity fails with ErrCustomerNotFound or ErrActivityTypeNotFound
	// when a reference points nowhere.
	InsertActivity(ctx context.Context, a Activity) (int64, error)
	GetActivity(ctx context.Context, id int64) (Activity, error)
	GetActivityForUpdate(ctx context.Context, id int64) (Activity, error)
	ListActivities(ctx context.Context, filter ActivityFilter) ([]Activity, error)
	UpdateActivity(ctx context.Context, a Activity) error
	DeleteActivity(ctx context.Context, id int64) error
}

// SupplierTx covers suppliers.
type SupplierTx interface {
	InsertSupplier(ctx context.Context, s Supplier) (int64, error)
	GetSupplier(ctx context.Context, id int64) (Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	UpdateSupplier(ctx context.Context, s Supplier) error
	// DetachSupplier clears the supplier reference on inventory items.
	DetachSupplier(ctx context.Context, id int64) error
	DeleteSupplier(ctx context.Context, id int64) error
}

// InventoryTx covers inventory items and their stock history.
type InventoryTx interface {
	GetItem(ctx context.Context, id int64) (InventoryItem, error)
	GetItemForUpdate(ctx context.Context, id int64) (InventoryItem, error)
	ListItems(ctx context.Context) ([]InventoryItem, error)
	InsertItem(ctx context.Context, item InventoryItem) (int64, error)
	// UpdateItem writes descriptive fields and prices. Quantity is ignored.
	UpdateItem(ctx context.Context, item InventoryItem) error
	SetItemQuantity(ctx context.Context, id int64, quantity int) error
	DeleteItem(ctx context.Context, id int64) error
	// DetachItem clears the item reference on quotation and invoice lines.
	DetachItem(ctx context.Context, id int64) error

	InsertStockTransaction(ctx context.Context, st StockTransaction) (int64, error)
	ListStockTransactions(ctx context.Context, filter StockTransactionFilter) ([]StockTransaction, error)
	DeleteStockTransactions(ctx context.Context, itemID int64) error
}

// NumberingTx answers the questions document numbering asks.
type NumberingTx interface {
	CountDocuments(ctx context.Context, kind DocumentKind, customerID string) (int, error)
	DocumentNumberExists(ctx context.Context, kind DocumentKind, number string) (bool, error)
}

// QuotationTx covers quotations and their lines.
type QuotationTx interface {
	// InsertQuotation fails with ErrDuplicateDocumentNumber when the number is taken.
	InsertQuotation(ctx context.Context, q Quotation) (int64, error)
	GetQuotation(ctx context.Context, id int64) (Quotation, error)
	GetQuotationForUpdate(ctx context.Context, id int64) (Quotation, error)
	ListQuotations(ctx context.Context, filter QuotationFilter) ([]Quotation, error)
	UpdateQuotation(ctx context.Context, q Quotation) error
	DeleteQuotation(ctx context.Context, id int64) error

	InsertQuotationItems(ctx context.Context, quotationID int64, items []QuotationItem) error
	ListQuotationItems(ctx context.Context, quotationID int64) ([]QuotationItem, error)
	DeleteQuotationItems(ctx context.Context, quotationID int64) error
}

// InvoiceTx covers invoices and their lines.
type InvoiceTx interface {
	// InsertInvoice fails with ErrDuplicateDocumentNumber when the number is taken.
	InsertInvoice(ctx context.Context, inv Invoice) (int64, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	GetInvoiceForUpdate(ctx context.Context, id int64) (Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)
	UpdateInvoice(ctx context.Context, inv Invoice) error
	DeleteInvoice(ctx context.Context, id int64) error

	InsertInvoiceItems(ctx context.Context, invoiceID int64, items []InvoiceItem) error
	ListInvoiceItems(ctx context.Context, invoiceID int64) ([]InvoiceItem, error)
	DeleteInvoiceItems(ctx context.Context, invoiceID int64) error
}

// PaymentTx covers payments.
type PaymentTx interface {
	// InsertPayment fails with ErrDuplicateTransactionID when the transaction id is taken.
	InsertPayment(ctx context.Context, p Payment) (int64, error)
	GetPayment(ctx context.Context, id int64) (Payment, error)
	GetPaymentForUpdate(ctx context.Context, id int64) (Payment, error)
	ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error)
	UpdatePayment(ctx context.Context, p Payment) error
	// DeletePayment removes the payment and clears references held by financial records.
	DeletePayment(ctx context.Context, id int64) error
	DeletePaymentsForInvoice(ctx context.Context, invoiceID int64) error
}

// FinanceTx covers financial records.
type FinanceTx interface {
	InsertFinancialRecord(ctx context.Context, r FinancialRecord) (int64, error)
	GetFinancialRecord(ctx context.Context, id int64) (FinancialRecord, error)
	ListFinancialRecords(ctx context.Context, filter FinancialFilter) ([]FinancialRecord, error)
	DeleteFinancialRecord(ctx context.Context, id int64) error

	// InsertFinancialCategory fails with ErrInvalidValue when the name is
	// taken for the same type.
	InsertFinancialCategory(ctx context.Context, c FinancialCategory) (int64, error)
	GetFinancialCategory(ctx context.Context, id int64) (FinancialCategory, error)
	// ListFinancialCategories returns categories of typ, or all when typ is empty.
	ListFinancialCategories(ctx context.Context, typ FinancialType) ([]FinancialCategory, error)
	DeleteFinancialCategory(ctx context.Context, id int64) error
	// CostOfGoods sums cost price times quantity over lines of non-cancelled
	// invoices created in [from, to).
	CostOfGoods(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// RunWithRetry runs fn in a fresh unit of work until it stops failing with
// retryOn or attempts are exhausted. The last error is returned.
func RunWithRetry(ctx context.Context, store Store, attempts int, retryOn error, fn func(context.Context, Tx) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = store.WithTx(ctx, fn)
		if err == nil || !errors.Is(err, retryOn) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

// Observer is told the outcome of every finished operation.
type Observer interface {
	Observe(operation string, err error)
}

// NopObserver discards observations.
type NopObserver struct{}

// Observe does nothing.
func (NopObserver) Observe(string, error) {}

// Invalidator drops cached reports after a committed write changed their inputs.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// NopInvalidator caches nothing.
type NopInvalidator struct{}

// Invalidate does nothing.
func (NopInvalidator) Invalidate(context.Context) {}
