// Package invoices runs the invoice lifecycle: billing, editing, cancelling
// and deleting invoices while keeping stock and balances in step.
package invoices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizledger/bizledger/internal/inventory"
	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/numbering"
)

// Service handles invoice business logic.
type Service struct {
	store       ledger.Store
	stock       *inventory.Ledger
	now         func() time.Time
	dueDays     int
	observer    ledger.Observer
	invalidator ledger.Invalidator
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Now func() time.Time
	// DefaultDueDays sets the due date when a request carries none. Zero leaves it empty.
	DefaultDueDays int
	Observer       ledger.Observer
	// Invalidator is told after writes that change cost of goods.
	Invalidator ledger.Invalidator
}

// NewService builds Service instance.
func NewService(store ledger.Store, cfg ServiceConfig) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Observer == nil {
		cfg.Observer = ledger.NopObserver{}
	}
	if cfg.Invalidator == nil {
		cfg.Invalidator = ledger.NopInvalidator{}
	}
	return &Service{
		store:       store,
		stock:       inventory.NewLedger(cfg.Now),
		now:         cfg.Now,
		dueDays:     cfg.DefaultDueDays,
		observer:    cfg.Observer,
		invalidator: cfg.Invalidator,
	}
}

// Create validates everything first, then stores a draft invoice and deducts
// the stock of its inventory-backed lines.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (inv ledger.Invoice, err error) {
	defer func() { s.observer.Observe("invoices.create", err) }()
	if err := ledger.Validate(req); err != nil {
		return ledger.Invoice{}, err
	}
	if err := ledger.ValidateLines(req.Lines); err != nil {
		return ledger.Invoice{}, err
	}
	err = numbering.Run(ctx, s.store, func(ctx context.Context, tx ledger.Tx) error {
		customer, err := tx.GetCustomerForUpdate(ctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("verify customer: %w", err)
		}
		if req.ActivityTypeID != nil {
			if _, err := tx.GetActivityType(ctx, *req.ActivityTypeID); err != nil {
				return fmt.Errorf("verify activity type: %w", err)
			}
		}
		lines, err := s.stock.Resolve(ctx, tx, req.Lines)
		if err != nil {
			return err
		}
		if err := s.stock.CheckAvailability(ctx, tx, inventory.DemandOf(lines), nil); err != nil {
			return err
		}
		number, err := numbering.Generate(ctx, tx, customer, ledger.KindInvoice)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		total := inventory.Total(lines)
		inv = ledger.Invoice{
			Number:         number,
			CustomerID:     ledger.StringPtr(customer.ID),
			ActivityTypeID: req.ActivityTypeID,
			TotalAmount:    total,
			PaidAmount:     decimal.Zero,
			BalanceDue:     total,
			Status:         ledger.InvoiceDraft,
			DueDate:        s.dueDate(req.DueDate, now),
			Notes:          req.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		inv.Refresh(now)
		id, err := tx.InsertInvoice(ctx, inv)
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		inv.ID = id
		if inv.Items, err = s.insertItems(ctx, tx, id, lines); err != nil {
			return err
		}
		return s.deduct(ctx, tx, inv, customer.DisplayName(), ledger.RefInvoice)
	})
	if err != nil {
		return ledger.Invoice{}, err
	}
	s.invalidator.Invalidate(ctx)
	return inv, nil
}

// Edit replaces the lines of an invoice. The new demand is checked against
// stock as it will be once the old lines are returned; the old lines are then
// restocked and the new ones deducted. Money already received is preserved,
// so a new total below it is rejected.
func (s *Service) Edit(ctx context.Context, id int64, req UpdateInvoiceRequest) (inv ledger.Invoice, err error) {
	defer func() { s.observer.Observe("invoices.edit", err) }()
	if err := ledger.Validate(req); err != nil {
		return ledger.Invoice{}, err
	}
	if err := ledger.ValidateLines(req.Lines); err != nil {
		return ledger.Invoice{}, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		current, err := s.lockOpen(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.ActivityTypeID != nil {
			if _, err := tx.GetActivityType(ctx, *req.ActivityTypeID); err != nil {
				return fmt.Errorf("verify activity type: %w", err)
			}
		}
		oldItems, err := tx.ListInvoiceItems(ctx, id)
		if err != nil {
			return fmt.Errorf("list invoice items: %w", err)
		}
		lines, err := s.stock.Resolve(ctx, tx, req.Lines)
		if err != nil {
			return err
		}
		if err := s.stock.CheckAvailability(ctx, tx, inventory.DemandOf(lines), demandOf(oldItems)); err != nil {
			return err
		}

		paid := current.AlreadyPaid()
		total := inventory.Total(lines)
		if total.LessThan(paid) {
			return fmt.Errorf("invoice %s: %w", current.Number, &ledger.OverPaymentError{Amount: paid, BalanceDue: total})
		}

		buyer := s.buyer(ctx, tx, current)
		if err := s.restock(ctx, tx, current, oldItems, buyer, ledger.ReasonRestock, ledger.RefInvoiceEditRevert); err != nil {
			return err
		}
		if err := tx.DeleteInvoiceItems(ctx, id); err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
		if current.Items, err = s.insertItems(ctx, tx, id, lines); err != nil {
			return err
		}
		if err := s.deduct(ctx, tx, current, buyer, ledger.RefInvoiceEditDeduct); err != nil {
			return err
		}

		now := s.now().UTC()
		current.TotalAmount = total
		current.PaidAmount = paid
		current.BalanceDue = total.Sub(paid)
		if req.ActivityTypeID != nil {
			current.ActivityTypeID = req.ActivityTypeID
		}
		if req.DueDate != nil {
			due := req.DueDate.UTC()
			current.DueDate = &due
		}
		if req.Notes != nil {
			current.Notes = *req.Notes
		}
		current.UpdatedAt = now
		current.Refresh(now)
		if err := tx.UpdateInvoice(ctx, current); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		inv = current
		return nil
	})
	if err != nil {
		return ledger.Invoice{}, err
	}
	s.invalidator.Invalidate(ctx)
	return inv, nil
}

// Delete removes an invoice with its lines and payments, returning its stock
// unless a cancellation already did.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.observer.Observe("invoices.delete", err) }()
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != ledger.InvoiceCancelled {
			items, err := tx.ListInvoiceItems(ctx, id)
			if err != nil {
				return fmt.Errorf("list invoice items: %w", err)
			}
			if err := s.restock(ctx, tx, inv, items, s.buyer(ctx, tx, inv), ledger.ReasonReturned, ledger.RefInvoiceDeletion); err != nil {
				return err
			}
		}
		if err := tx.DeletePaymentsForInvoice(ctx, id); err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}
		if err := tx.DeleteInvoiceItems(ctx, id); err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
		if err := tx.DeleteInvoice(ctx, id); err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidator.Invalidate(ctx)
	return nil
}

// Cancel voids an invoice nothing has been paid on and returns its stock.
func (s *Service) Cancel(ctx context.Context, id int64) (inv ledger.Invoice, err error) {
	defer func() { s.observer.Observe("invoices.cancel", err) }()
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		current, err := s.lockOpen(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.AlreadyPaid().IsPositive() {
			return fmt.Errorf("%w: invoice %s has %s paid", ledger.ErrInvoiceHasPayments, current.Number, current.AlreadyPaid().StringFixed(2))
		}
		items, err := tx.ListInvoiceItems(ctx, id)
		if err != nil {
			return fmt.Errorf("list invoice items: %w", err)
		}
		if err := s.restock(ctx, tx, current, items, s.buyer(ctx, tx, current), ledger.ReasonReturned, ledger.RefInvoiceCancellation); err != nil {
			return err
		}
		current.Status = ledger.InvoiceCancelled
		current.UpdatedAt = s.now().UTC()
		if err := tx.UpdateInvoice(ctx, current); err != nil {
			return fmt.Errorf("cancel invoice: %w", err)
		}
		current.Items = items
		inv = current
		return nil
	})
	if err != nil {
		return ledger.Invoice{}, err
	}
	s.invalidator.Invalidate(ctx)
	return inv, nil
}

// Send marks a draft invoice as issued to the customer.
func (s *Service) Send(ctx context.Context, id int64) (inv ledger.Invoice, err error) {
	defer func() { s.observer.Observe("invoices.send", err) }()
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		current, err := s.lockOpen(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != ledger.InvoiceDraft {
			return fmt.Errorf("%w: invoice %s is %s, only drafts can be sent", ledger.ErrInvalidValue, current.Number, current.Status)
		}
		now := s.now().UTC()
		current.Status = ledger.InvoiceSent
		current.UpdatedAt = now
		current.Refresh(now)
		if err := tx.UpdateInvoice(ctx, current); err != nil {
			return fmt.Errorf("send invoice: %w", err)
		}
		inv = current
		return nil
	})
	return inv, err
}

// MarkOverdue moves every open invoice with an unpaid balance and a due date
// before asOf to OVERDUE.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (res SweepResult, err error) {
	defer func() { s.observer.Observe("invoices.mark_overdue", err) }()
	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = asOf.UTC()
	res = SweepResult{AsOf: asOf, Marked: []string{}}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		due, err := tx.ListInvoices(ctx, ledger.InvoiceFilter{DueBefore: &asOf})
		if err != nil {
			return fmt.Errorf("list due invoices: %w", err)
		}
		for _, candidate := range due {
			inv, err := tx.GetInvoiceForUpdate(ctx, candidate.ID)
			if err != nil {
				return err
			}
			inv.Refresh(asOf)
			if inv.Status != ledger.InvoiceOverdue {
				continue
			}
			inv.UpdatedAt = asOf
			if err := tx.UpdateInvoice(ctx, inv); err != nil {
				return fmt.Errorf("mark invoice %s overdue: %w", inv.Number, err)
			}
			res.Marked = append(res.Marked, inv.Number)
		}
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}
	return res, nil
}

// Aging groups unpaid balances of open invoices by days past their due date.
// Invoices without a due date count as current.
func (s *Service) Aging(ctx context.Context, asOf time.Time) (AgingBucket, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	var invoices []ledger.Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		invoices, err = tx.ListInvoices(ctx, ledger.InvoiceFilter{})
		return err
	})
	if err != nil {
		return AgingBucket{}, err
	}
	bucket := AgingBucket{
		Current: decimal.Zero, Bucket30: decimal.Zero, Bucket60: decimal.Zero,
		Bucket90: decimal.Zero, Bucket90P: decimal.Zero, Total: decimal.Zero,
	}
	for _, inv := range invoices {
		if inv.Status == ledger.InvoiceCancelled || !inv.BalanceDue.IsPositive() {
			continue
		}
		days := 0
		if inv.DueDate != nil {
			days = int(asOf.Sub(*inv.DueDate).Hours() / 24)
		}
		switch {
		case days <= 0:
			bucket.Current = bucket.Current.Add(inv.BalanceDue)
		case days <= 30:
			bucket.Bucket30 = bucket.Bucket30.Add(inv.BalanceDue)
		case days <= 60:
			bucket.Bucket60 = bucket.Bucket60.Add(inv.BalanceDue)
		case days <= 90:
			bucket.Bucket90 = bucket.Bucket90.Add(inv.BalanceDue)
		default:
			bucket.Bucket90P = bucket.Bucket90P.Add(inv.BalanceDue)
		}
		bucket.Total = bucket.Total.Add(inv.BalanceDue)
	}
	return bucket, nil
}

// Get loads an invoice with its lines and payments.
func (s *Service) Get(ctx context.Context, id int64) (inv ledger.Invoice, err error) {
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if inv, err = tx.GetInvoice(ctx, id); err != nil {
			return err
		}
		if inv.Items, err = tx.ListInvoiceItems(ctx, id); err != nil {
			return err
		}
		inv.Payments, err = tx.ListPayments(ctx, id)
		return err
	})
	return inv, err
}

// List returns invoice headers matching req.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) (out []ledger.Invoice, err error) {
	filter := ledger.InvoiceFilter{CustomerID: req.CustomerID}
	if req.Status != "" {
		if filter.Status, err = ledger.ParseInvoiceStatus(req.Status); err != nil {
			return nil, err
		}
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		out, err = tx.ListInvoices(ctx, filter)
		return err
	})
	return out, err
}

// CreateActivityType registers a named activity type.
func (s *Service) CreateActivityType(ctx context.Context, req CreateActivityTypeRequest) (at ledger.ActivityType, err error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := ledger.Validate(req); err != nil {
		return ledger.ActivityType{}, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		id, err := tx.InsertActivityType(ctx, req.Name)
		if err != nil {
			return err
		}
		at = ledger.ActivityType{ID: id, Name: req.Name}
		return nil
	})
	return at, err
}

// ListActivityTypes returns every activity type.
func (s *Service) ListActivityTypes(ctx context.Context) (out []ledger.ActivityType, err error) {
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		out, err = tx.ListActivityTypes(ctx)
		return err
	})
	return out, err
}

// DeleteActivityType removes an activity type. Invoices and activities of
// that type stay and lose the reference.
func (s *Service) DeleteActivityType(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if _, err := tx.GetActivityType(ctx, id); err != nil {
			return err
		}
		if err := tx.DetachActivityType(ctx, id); err != nil {
			return fmt.Errorf("detach activity type: %w", err)
		}
		return tx.DeleteActivityType(ctx, id)
	})
}

func (s *Service) lockOpen(ctx context.Context, tx ledger.Tx, id int64) (ledger.Invoice, error) {
	inv, err := tx.GetInvoiceForUpdate(ctx, id)
	if err != nil {
		return ledger.Invoice{}, err
	}
	if inv.Status == ledger.InvoiceCancelled {
		return ledger.Invoice{}, fmt.Errorf("%w: invoice %s", ledger.ErrInvoiceLocked, inv.Number)
	}
	return inv, nil
}

func (s *Service) dueDate(requested *time.Time, now time.Time) *time.Time {
	if requested != nil {
		due := requested.UTC()
		return &due
	}
	if s.dueDays > 0 {
		due := now.AddDate(0, 0, s.dueDays)
		return &due
	}
	return nil
}

// buyer names the invoiced customer on stock movements. A detached invoice has none.
func (s *Service) buyer(ctx context.Context, tx ledger.Tx, inv ledger.Invoice) string {
	if inv.CustomerID == nil {
		return ""
	}
	c, err := tx.GetCustomer(ctx, *inv.CustomerID)
	if err != nil {
		return ""
	}
	return c.DisplayName()
}

func (s *Service) insertItems(ctx context.Context, tx ledger.Tx, invoiceID int64, lines []inventory.Line) ([]ledger.InvoiceItem, error) {
	items := make([]ledger.InvoiceItem, 0, len(lines))
	for i, line := range lines {
		items = append(items, ledger.InvoiceItem{
			Position:    i + 1,
			InventoryID: line.InventoryID,
			ItemCode:    line.ItemCode,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			CostPrice:   line.CostPrice,
			Amount:      line.Amount,
		})
	}
	if err := tx.InsertInvoiceItems(ctx, invoiceID, items); err != nil {
		return nil, fmt.Errorf("insert invoice items: %w", err)
	}
	return tx.ListInvoiceItems(ctx, invoiceID)
}

// deduct takes the stock of every inventory-backed line of inv.
func (s *Service) deduct(ctx context.Context, tx ledger.Tx, inv ledger.Invoice, buyer string, ref ledger.RefType) error {
	for _, item := range inv.Items {
		if item.InventoryID == nil {
			continue
		}
		price := item.UnitPrice
		if _, err := s.stock.Apply(ctx, tx, inventory.Change{
			ItemID:       *item.InventoryID,
			Delta:        -item.Quantity,
			UnitPrice:    &price,
			Reason:       ledger.ReasonSoldToCustomer,
			Ref:          &ledger.DocumentRef{ID: inv.ID, Type: ref},
			CustomerName: buyer,
			Notes:        "Invoice " + inv.Number,
		}); err != nil {
			return err
		}
	}
	return nil
}

// restock returns the stock of every inventory-backed line in items.
func (s *Service) restock(ctx context.Context, tx ledger.Tx, inv ledger.Invoice, items []ledger.InvoiceItem, buyer string, reason ledger.StockReason, ref ledger.RefType) error {
	for _, item := range items {
		if item.InventoryID == nil {
			continue
		}
		price := item.UnitPrice
		if _, err := s.stock.Apply(ctx, tx, inventory.Change{
			ItemID:       *item.InventoryID,
			Delta:        item.Quantity,
			UnitPrice:    &price,
			Reason:       reason,
			Ref:          &ledger.DocumentRef{ID: inv.ID, Type: ref},
			CustomerName: buyer,
			Notes:        "Invoice " + inv.Number,
		}); err != nil {
			return err
		}
	}
	return nil
}

func demandOf(items []ledger.InvoiceItem) ledger.Demand {
	d := ledger.Demand{}
	for _, item := range items {
		if item.InventoryID != nil {
			d.Add(*item.InventoryID, item.Quantity)
		}
	}
	return d
}
