// Package httpx provides HTTP response utilities.
package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/shared"
)

// Sentinel errors for transport-level failures.
var (
	ErrBadRequest = errors.New("malformed request")
	ErrNotFound   = errors.New("resource not found")
)

type errorMapping struct {
	target error
	status int
	title  string
}

var mappings = []errorMapping{
	{ErrBadRequest, http.StatusBadRequest, "Bad Request"},
	{ErrNotFound, http.StatusNotFound, "Not Found"},
	{ledger.ErrCustomerNotFound, http.StatusNotFound, "Customer Not Found"},
	{ledger.ErrItemNotFound, http.StatusNotFound, "Item Not Found"},
	{ledger.ErrQuotationNotFound, http.StatusNotFound, "Quotation Not Found"},
	{ledger.ErrInvoiceNotFound, http.StatusNotFound, "Invoice Not Found"},
	{ledger.ErrPaymentNotFound, http.StatusNotFound, "Payment Not Found"},
	{ledger.ErrActivityTypeNotFound, http.StatusNotFound, "Activity Type Not Found"},
	{ledger.ErrActivityNotFound, http.StatusNotFound, "Activity Not Found"},
	{ledger.ErrSupplierNotFound, http.StatusNotFound, "Supplier Not Found"},
	{ledger.ErrCategoryNotFound, http.StatusNotFound, "Category Not Found"},
	{ledger.ErrRecordNotFound, http.StatusNotFound, "Financial Record Not Found"},
	{ledger.ErrInvalidItem, http.StatusUnprocessableEntity, "Invalid Line Item"},
	{ledger.ErrInvalidAmount, http.StatusUnprocessableEntity, "Invalid Amount"},
	{ledger.ErrInvalidValue, http.StatusUnprocessableEntity, "Validation Failed"},
	{ledger.ErrInsufficientStock, http.StatusConflict, "Insufficient Stock"},
	{ledger.ErrOverPayment, http.StatusConflict, "Over Payment"},
	{ledger.ErrQuotationLocked, http.StatusConflict, "Quotation Locked"},
	{ledger.ErrInvoiceLocked, http.StatusConflict, "Invoice Locked"},
	{ledger.ErrInvoiceHasPayments, http.StatusConflict, "Invoice Has Payments"},
	{ledger.ErrRecordLocked, http.StatusConflict, "Record Locked"},
	{ledger.ErrDuplicateCustomer, http.StatusConflict, "Duplicate Customer"},
	{ledger.ErrDuplicateDocumentNumber, http.StatusConflict, "Duplicate Document Number"},
	{ledger.ErrDuplicateTransactionID, http.StatusConflict, "Duplicate Transaction"},
	{shared.ErrIdempotencyConflict, http.StatusConflict, "Duplicate Request"},
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var stockErr *ledger.InsufficientStockError
	if errors.As(err, &stockErr) {
		WriteProblem(w, ProblemDetail{
			Title:  "Insufficient Stock",
			Status: http.StatusConflict,
			Detail: stockErr.Error(),
			Extensions: map[string]any{
				"item_id":   stockErr.ItemID,
				"requested": stockErr.Requested,
				"available": stockErr.Available,
			},
		})
		return
	}
	var payErr *ledger.OverPaymentError
	if errors.As(err, &payErr) {
		WriteProblem(w, ProblemDetail{
			Title:  "Over Payment",
			Status: http.StatusConflict,
			Detail: payErr.Error(),
			Extensions: map[string]any{
				"amount":      payErr.Amount.StringFixed(2),
				"balance_due": payErr.BalanceDue.StringFixed(2),
			},
		})
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		Problem(w, http.StatusGatewayTimeout, "Timeout", "")
		return
	}
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			Problem(w, m.status, m.title, err.Error())
			return
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

// Fail logs unexpected failures of op and responds with the mapped problem.
func Fail(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	if logger != nil && (!ledger.IsDomainError(err) || errors.Is(err, ledger.ErrPersistence)) {
		logger.Error(op, slog.Any("error", err))
	}
	RespondError(w, err)
}
