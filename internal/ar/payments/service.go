// Package payments keeps invoice balances in step with the money received.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizledger/bizledger/internal/ledger"
)

// MaxTransactionIDAttempts bounds retries after a generated transaction id collided.
const MaxTransactionIDAttempts = 3

const idempotencyModule = "payments"

// IdempotencyGuard claims request keys so a replayed request is refused.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Service handles payment business logic.
type Service struct {
	store       ledger.Store
	now         func() time.Time
	newTxID     func(time.Time) string
	guard       IdempotencyGuard
	observer    ledger.Observer
	invalidator ledger.Invalidator
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Now func() time.Time
	// TransactionID generates payment transaction ids. Defaults to NewTransactionID.
	TransactionID func(time.Time) string
	// Guard enables idempotency keys on Record.
	Guard       IdempotencyGuard
	Observer    ledger.Observer
	Invalidator ledger.Invalidator
}

// NewService builds Service instance.
func NewService(store ledger.Store, cfg ServiceConfig) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TransactionID == nil {
		cfg.TransactionID = NewTransactionID
	}
	if cfg.Observer == nil {
		cfg.Observer = ledger.NopObserver{}
	}
	if cfg.Invalidator == nil {
		cfg.Invalidator = ledger.NopInvalidator{}
	}
	return &Service{
		store:       store,
		now:         cfg.Now,
		newTxID:     cfg.TransactionID,
		guard:       cfg.Guard,
		observer:    cfg.Observer,
		invalidator: cfg.Invalidator,
	}
}

// Record books a payment, lowers the invoice balance, re-derives its status
// and appends the matching income record.
func (s *Service) Record(ctx context.Context, req RecordPaymentRequest) (p ledger.Payment, err error) {
	defer func() { s.observer.Observe("payments.record", err) }()
	if err := ledger.Validate(req); err != nil {
		return ledger.Payment{}, err
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return ledger.Payment{}, fmt.Errorf("%w: got %s", ledger.ErrInvalidAmount, req.Amount.String())
	}
	method, err := ledger.ParsePaymentMethod(req.Method)
	if err != nil {
		return ledger.Payment{}, err
	}

	if req.IdempotencyKey != "" && s.guard != nil {
		if err := s.guard.CheckAndInsert(ctx, req.IdempotencyKey, idempotencyModule); err != nil {
			return ledger.Payment{}, err
		}
		defer func() {
			if err != nil {
				_ = s.guard.Delete(context.WithoutCancel(ctx), req.IdempotencyKey, idempotencyModule)
			}
		}()
	}

	err = ledger.RunWithRetry(ctx, s.store, MaxTransactionIDAttempts, ledger.ErrDuplicateTransactionID, func(ctx context.Context, tx ledger.Tx) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == ledger.InvoiceCancelled {
			return fmt.Errorf("%w: invoice %s", ledger.ErrInvoiceLocked, inv.Number)
		}
		if amount.GreaterThan(inv.BalanceDue) {
			return &ledger.OverPaymentError{Amount: amount, BalanceDue: inv.BalanceDue}
		}

		now := s.now().UTC()
		p = ledger.Payment{
			InvoiceID:       inv.ID,
			Amount:          amount,
			Method:          method,
			PayerName:       req.PayerName,
			TransactionID:   s.newTxID(now),
			ReferenceNumber: req.Reference,
			Notes:           req.Notes,
			PaidAt:          now,
		}
		id, err := tx.InsertPayment(ctx, p)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		p.ID = id

		inv.PaidAmount = inv.PaidAmount.Add(amount)
		inv.BalanceDue = inv.BalanceDue.Sub(amount)
		inv.UpdatedAt = now
		inv.Refresh(now)
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		if _, err := tx.InsertFinancialRecord(ctx, ledger.FinancialRecord{
			Type:        ledger.Income,
			Category:    ledger.CategorySales,
			Description: "Payment for Invoice #" + inv.Number,
			Amount:      amount,
			Date:        now,
			InvoiceID:   ledger.Int64Ptr(inv.ID),
			PaymentID:   ledger.Int64Ptr(id),
			Notes:       fmt.Sprintf("Payer: %s | Method: %s | Ref: %s", req.PayerName, method, req.Reference),
		}); err != nil {
			return fmt.Errorf("record income: %w", err)
		}
		return nil
	})
	if err != nil {
		return ledger.Payment{}, err
	}
	s.invalidator.Invalidate(ctx)
	return p, nil
}

// Edit changes a payment and moves the invoice balance by the difference.
func (s *Service) Edit(ctx context.Context, id int64, req EditPaymentRequest) (p ledger.Payment, err error) {
	defer func() { s.observer.Observe("payments.edit", err) }()
	if err := ledger.Validate(req); err != nil {
		return ledger.Payment{}, err
	}
	var method ledger.PaymentMethod
	if req.Method != nil {
		if method, err = ledger.ParsePaymentMethod(*req.Method); err != nil {
			return ledger.Payment{}, err
		}
	}
	var amount decimal.Decimal
	if req.Amount != nil {
		amount = req.Amount.Round(2)
		if !amount.IsPositive() {
			return ledger.Payment{}, fmt.Errorf("%w: got %s", ledger.ErrInvalidAmount, req.Amount.String())
		}
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		current, err := tx.GetPaymentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		inv, err := tx.GetInvoiceForUpdate(ctx, current.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == ledger.InvoiceCancelled {
			return fmt.Errorf("%w: invoice %s", ledger.ErrInvoiceLocked, inv.Number)
		}

		if req.Amount != nil {
			diff := amount.Sub(current.Amount)
			if inv.BalanceDue.Sub(diff).IsNegative() {
				return &ledger.OverPaymentError{Amount: amount, BalanceDue: inv.BalanceDue.Add(current.Amount)}
			}
			current.Amount = amount
			inv.PaidAmount = inv.PaidAmount.Add(diff)
			inv.BalanceDue = inv.BalanceDue.Sub(diff)
		}
		if req.Method != nil {
			current.Method = method
		}
		if req.PayerName != nil {
			current.PayerName = *req.PayerName
		}
		if req.Reference != nil {
			current.ReferenceNumber = *req.Reference
		}
		if req.Notes != nil {
			current.Notes = *req.Notes
		}
		if err := tx.UpdatePayment(ctx, current); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}

		now := s.now().UTC()
		inv.UpdatedAt = now
		inv.Refresh(now)
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		p = current
		return nil
	})
	if err != nil {
		return ledger.Payment{}, err
	}
	s.invalidator.Invalidate(ctx)
	return p, nil
}

// Delete removes a payment and gives its amount back to the invoice balance.
// The income record booked with the payment is kept and loses its link.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.observer.Observe("payments.delete", err) }()
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		p, err := tx.GetPaymentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		inv, err := tx.GetInvoiceForUpdate(ctx, p.InvoiceID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		inv.PaidAmount = inv.PaidAmount.Sub(p.Amount)
		inv.BalanceDue = inv.BalanceDue.Add(p.Amount)
		inv.UpdatedAt = now
		inv.Refresh(now)
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := tx.DeletePayment(ctx, id); err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidator.Invalidate(ctx)
	return nil
}

// Get loads one payment.
func (s *Service) Get(ctx context.Context, id int64) (p ledger.Payment, err error) {
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		p, err = tx.GetPayment(ctx, id)
		return err
	})
	return p, err
}

// ListForInvoice returns the payments booked against an invoice.
func (s *Service) ListForInvoice(ctx context.Context, invoiceID int64) (out []ledger.Payment, err error) {
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if _, err := tx.GetInvoice(ctx, invoiceID); err != nil {
			return err
		}
		out, err = tx.ListPayments(ctx, invoiceID)
		return err
	})
	return out, err
}
