package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeriveStatus computes an invoice status from its money and due date.
// Cancelled stays cancelled. A fully paid invoice is PAID; an unpaid
// remainder past the due date is OVERDUE; a partly paid one is PARTIAL.
// An untouched invoice keeps SENT if it was sent and is DRAFT otherwise.
func DeriveStatus(current InvoiceStatus, total, balance decimal.Decimal, due *time.Time, now time.Time) InvoiceStatus {
	switch {
	case current == InvoiceCancelled:
		return InvoiceCancelled
	case !balance.IsPositive():
		return InvoicePaid
	case due != nil && due.Before(now):
		return InvoiceOverdue
	case balance.LessThan(total):
		return InvoicePartial
	case current == InvoiceSent:
		return InvoiceSent
	default:
		return InvoiceDraft
	}
}

// Refresh re-derives inv.Status in place.
func (inv *Invoice) Refresh(now time.Time) {
	inv.Status = DeriveStatus(inv.Status, inv.TotalAmount, inv.BalanceDue, inv.DueDate, now)
}

// AlreadyPaid is the amount received so far, derived from total and balance.
func (inv Invoice) AlreadyPaid() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.BalanceDue)
}
