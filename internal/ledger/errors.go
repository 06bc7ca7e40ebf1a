package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrCustomerNotFound indicates a referenced customer does not exist.
	ErrCustomerNotFound = errors.New("ledger: customer not found")
	// ErrDuplicateCustomer indicates the identification code is taken.
	ErrDuplicateCustomer = errors.New("ledger: customer already exists")
	// ErrItemNotFound indicates an inventory item does not exist.
	ErrItemNotFound = errors.New("ledger: inventory item not found")
	// ErrInvalidItem indicates a malformed document line.
	ErrInvalidItem = errors.New("ledger: invalid line item")
	// ErrInsufficientStock indicates a stock-out larger than the quantity on hand.
	ErrInsufficientStock = errors.New("ledger: insufficient stock")
	// ErrQuotationNotFound indicates a quotation does not exist.
	ErrQuotationNotFound = errors.New("ledger: quotation not found")
	// ErrQuotationLocked indicates a quotation is no longer pending.
	ErrQuotationLocked = errors.New("ledger: quotation is not pending")
	// ErrInvoiceNotFound indicates an invoice does not exist.
	ErrInvoiceNotFound = errors.New("ledger: invoice not found")
	// ErrInvoiceLocked indicates a cancelled invoice was asked to change.
	ErrInvoiceLocked = errors.New("ledger: invoice is cancelled")
	// ErrInvoiceHasPayments indicates an invoice with payments cannot be cancelled.
	ErrInvoiceHasPayments = errors.New("ledger: invoice has payments")
	// ErrPaymentNotFound indicates a payment does not exist.
	ErrPaymentNotFound = errors.New("ledger: payment not found")
	// ErrOverPayment indicates a payment would push the balance below zero.
	ErrOverPayment = errors.New("ledger: payment exceeds balance due")
	// ErrInvalidAmount indicates a non-positive money amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrInvalidValue indicates a value outside a closed enumeration or a missing field.
	ErrInvalidValue = errors.New("ledger: invalid value")
	// ErrActivityTypeNotFound indicates a referenced activity type does not exist.
	ErrActivityTypeNotFound = errors.New("ledger: activity type not found")
	// ErrActivityNotFound indicates an activity does not exist.
	ErrActivityNotFound = errors.New("ledger: activity not found")
	// ErrSupplierNotFound indicates a referenced supplier does not exist.
	ErrSupplierNotFound = errors.New("ledger: supplier not found")
	// ErrCategoryNotFound indicates a financial category does not exist.
	ErrCategoryNotFound = errors.New("ledger: financial category not found")
	// ErrRecordNotFound indicates a financial record does not exist.
	ErrRecordNotFound = errors.New("ledger: financial record not found")
	// ErrRecordLocked indicates a financial record booked by a payment was asked to go away.
	ErrRecordLocked = errors.New("ledger: financial record belongs to a payment")
	// ErrDuplicateDocumentNumber indicates a generated number was taken concurrently.
	ErrDuplicateDocumentNumber = errors.New("ledger: duplicate document number")
	// ErrDuplicateTransactionID indicates a generated payment id was taken.
	ErrDuplicateTransactionID = errors.New("ledger: duplicate payment transaction id")
	// ErrPersistence indicates the store failed and the unit of work was rolled back.
	ErrPersistence = errors.New("ledger: persistence failure")
)

// InsufficientStockError carries the shortage details.
type InsufficientStockError struct {
	ItemID    int64
	ItemName  string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("ledger: insufficient stock for item %d (%s): requested %d, available %d",
		e.ItemID, e.ItemName, e.Requested, e.Available)
}

// Is matches ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// OverPaymentError carries the rejected amount and the balance it exceeded.
type OverPaymentError struct {
	Amount     decimal.Decimal
	BalanceDue decimal.Decimal
}

func (e *OverPaymentError) Error() string {
	return fmt.Sprintf("ledger: payment %s exceeds balance due %s", e.Amount.StringFixed(2), e.BalanceDue.StringFixed(2))
}

// Is matches ErrOverPayment.
func (e *OverPaymentError) Is(target error) bool {
	return target == ErrOverPayment
}

// PersistenceError wraps a driver failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the driver error.
func (e *PersistenceError) Unwrap() error { return e.Err }

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Persistence wraps err unless it already belongs to the ledger taxonomy.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

var domainErrors = []error{
	ErrCustomerNotFound, ErrDuplicateCustomer, ErrItemNotFound, ErrInvalidItem,
	ErrInsufficientStock, ErrQuotationNotFound, ErrQuotationLocked, ErrInvoiceNotFound,
	ErrInvoiceLocked, ErrInvoiceHasPayments, ErrPaymentNotFound, ErrOverPayment,
	ErrInvalidAmount, ErrInvalidValue, ErrActivityTypeNotFound, ErrActivityNotFound,
	ErrSupplierNotFound, ErrCategoryNotFound, ErrRecordNotFound, ErrRecordLocked,
	ErrDuplicateDocumentNumber, ErrDuplicateTransactionID, ErrPersistence,
}

// IsDomainError reports whether err is one of the ledger error kinds.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
