package quotations

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizledger/bizledger/internal/inventory"
	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/numbering"
)

// Service drives quotations from pending to processed or cancelled.
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
	// DefaultDueDays sets the due date of converted invoices. Zero leaves it empty.
	DefaultDueDays int
	Observer       ledger.Observer
	// Invalidator is told when a conversion produced an invoice.
	Invalidator ledger.Invalidator
}

// NewService builds Service.
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

// Create numbers and stores a pending quotation. Stock is checked but never moved.
func (s *Service) Create(ctx context.Context, req CreateQuotationRequest) (q ledger.Quotation, err error) {
	defer func() { s.observer.Observe("quotations.create", err) }()
	if err := ledger.Validate(req); err != nil {
		return ledger.Quotation{}, err
	}
	if err := ledger.ValidateLines(req.Lines); err != nil {
		return ledger.Quotation{}, err
	}
	err = numbering.Run(ctx, s.store, func(ctx context.Context, tx ledger.Tx) error {
		customer, err := tx.GetCustomerForUpdate(ctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("verify customer: %w", err)
		}
		lines, err := s.stock.Resolve(ctx, tx, req.Lines)
		if err != nil {
			return err
		}
		if err := s.stock.CheckAvailability(ctx, tx, inventory.DemandOf(lines), nil); err != nil {
			return err
		}
		number, err := numbering.Generate(ctx, tx, customer, ledger.KindQuotation)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		q = ledger.Quotation{
			Number:      number,
			CustomerID:  ledger.StringPtr(customer.ID),
			TotalAmount: inventory.Total(lines),
			Status:      ledger.QuotationPending,
			Notes:       req.Notes,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		id, err := tx.InsertQuotation(ctx, q)
		if err != nil {
			return fmt.Errorf("insert quotation: %w", err)
		}
		q.ID = id
		q.Items, err = s.replaceItems(ctx, tx, id, lines)
		return err
	})
	if err != nil {
		return ledger.Quotation{}, err
	}
	return q, nil
}

// Edit replaces the lines of a pending quotation.
func (s *Service) Edit(ctx context.Context, id int64, req UpdateQuotationRequest) (q ledger.Quotation, err error) {
	defer func() { s.observer.Observe("quotations.edit", err) }()
	if err := ledger.Validate(req); err != nil {
		return ledger.Quotation{}, err
	}
	if err := ledger.ValidateLines(req.Lines); err != nil {
		return ledger.Quotation{}, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		current, err := s.lockPending(ctx, tx, id)
		if err != nil {
			return err
		}
		lines, err := s.stock.Resolve(ctx, tx, req.Lines)
		if err != nil {
			return err
		}
		if err := s.stock.CheckAvailability(ctx, tx, inventory.DemandOf(lines), nil); err != nil {
			return err
		}
		if err := tx.DeleteQuotationItems(ctx, id); err != nil {
			return fmt.Errorf("delete quotation items: %w", err)
		}
		items, err := s.replaceItems(ctx, tx, id, lines)
		if err != nil {
			return err
		}
		current.TotalAmount = inventory.Total(lines)
		if req.Notes != nil {
			current.Notes = *req.Notes
		}
		current.UpdatedAt = s.now().UTC()
		if err := tx.UpdateQuotation(ctx, current); err != nil {
			return fmt.Errorf("update quotation: %w", err)
		}
		current.Items = items
		q = current
		return nil
	})
	return q, err
}

// Convert turns a pending quotation into a draft invoice and deducts the
// stock of every inventory-backed line. Any shortage aborts the whole
// conversion and leaves the quotation pending.
func (s *Service) Convert(ctx context.Context, id int64) (inv ledger.Invoice, err error) {
	defer func() { s.observer.Observe("quotations.convert", err) }()
	err = numbering.Run(ctx, s.store, func(ctx context.Context, tx ledger.Tx) error {
		q, err := s.lockPending(ctx, tx, id)
		if err != nil {
			return err
		}
		var customer *ledger.Customer
		if q.CustomerID != nil {
			c, err := tx.GetCustomerForUpdate(ctx, *q.CustomerID)
			if err != nil {
				return fmt.Errorf("verify customer: %w", err)
			}
			customer = &c
		}
		qItems, err := tx.ListQuotationItems(ctx, id)
		if err != nil {
			return fmt.Errorf("list quotation items: %w", err)
		}
		demand := ledger.Demand{}
		for _, item := range qItems {
			if item.InventoryID != nil {
				demand.Add(*item.InventoryID, item.Quantity)
			}
		}
		if err := s.stock.CheckAvailability(ctx, tx, demand, nil); err != nil {
			return err
		}

		number, err := s.invoiceNumber(ctx, tx, q, customer)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		inv = ledger.Invoice{
			Number:      number,
			CustomerID:  q.CustomerID,
			QuotationID: ledger.Int64Ptr(q.ID),
			TotalAmount: q.TotalAmount,
			PaidAmount:  decimal.Zero,
			BalanceDue:  q.TotalAmount,
			Status:      ledger.InvoiceDraft,
			Notes:       q.Notes,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if s.dueDays > 0 {
			due := now.AddDate(0, 0, s.dueDays)
			inv.DueDate = &due
		}
		inv.Refresh(now)
		invoiceID, err := tx.InsertInvoice(ctx, inv)
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		inv.ID = invoiceID

		items := make([]ledger.InvoiceItem, 0, len(qItems))
		for _, qi := range qItems {
			item := ledger.InvoiceItem{
				Position:    qi.Position,
				InventoryID: qi.InventoryID,
				ItemCode:    qi.ItemCode,
				Description: qi.Description,
				Quantity:    qi.Quantity,
				UnitPrice:   qi.UnitPrice,
				Amount:      qi.Amount,
			}
			if qi.InventoryID != nil {
				stocked, err := tx.GetItem(ctx, *qi.InventoryID)
				if err != nil {
					return fmt.Errorf("load item %d: %w", *qi.InventoryID, err)
				}
				item.CostPrice = stocked.CostPrice
			}
			items = append(items, item)
		}
		if err := tx.InsertInvoiceItems(ctx, invoiceID, items); err != nil {
			return fmt.Errorf("insert invoice items: %w", err)
		}

		buyer := ""
		if customer != nil {
			buyer = customer.DisplayName()
		}
		for _, item := range items {
			if item.InventoryID == nil {
				continue
			}
			price := item.UnitPrice
			if _, err := s.stock.Apply(ctx, tx, inventory.Change{
				ItemID:       *item.InventoryID,
				Delta:        -item.Quantity,
				UnitPrice:    &price,
				Reason:       ledger.ReasonSoldToCustomer,
				Ref:          &ledger.DocumentRef{ID: invoiceID, Type: ledger.RefInvoice},
				CustomerName: buyer,
				Notes:        "Quotation " + q.Number + " converted to invoice " + number,
			}); err != nil {
				return err
			}
		}

		q.Status = ledger.QuotationProcessed
		q.UpdatedAt = now
		if err := tx.UpdateQuotation(ctx, q); err != nil {
			return fmt.Errorf("mark quotation processed: %w", err)
		}
		inv.Items, err = tx.ListInvoiceItems(ctx, invoiceID)
		return err
	})
	if err != nil {
		return ledger.Invoice{}, err
	}
	s.invalidator.Invalidate(ctx)
	return inv, nil
}

// invoiceNumber reuses the quotation number unless an invoice already holds it.
func (s *Service) invoiceNumber(ctx context.Context, tx ledger.Tx, q ledger.Quotation, customer *ledger.Customer) (string, error) {
	taken, err := tx.DocumentNumberExists(ctx, ledger.KindInvoice, q.Number)
	if err != nil {
		return "", fmt.Errorf("check invoice number: %w", err)
	}
	if !taken {
		return q.Number, nil
	}
	if customer != nil {
		return numbering.Generate(ctx, tx, *customer, ledger.KindInvoice)
	}
	return numbering.Next(ctx, tx, ledger.KindInvoice, q.Number, 1)
}

// Cancel closes a pending quotation without converting it.
func (s *Service) Cancel(ctx context.Context, id int64) (q ledger.Quotation, err error) {
	defer func() { s.observer.Observe("quotations.cancel", err) }()
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		current, err := s.lockPending(ctx, tx, id)
		if err != nil {
			return err
		}
		current.Status = ledger.QuotationCancelled
		current.UpdatedAt = s.now().UTC()
		if err := tx.UpdateQuotation(ctx, current); err != nil {
			return fmt.Errorf("cancel quotation: %w", err)
		}
		q = current
		return nil
	})
	return q, err
}

// Delete removes a pending quotation and its lines.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.observer.Observe("quotations.delete", err) }()
	return s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if _, err := s.lockPending(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.DeleteQuotationItems(ctx, id); err != nil {
			return fmt.Errorf("delete quotation items: %w", err)
		}
		if err := tx.DeleteQuotation(ctx, id); err != nil {
			return fmt.Errorf("delete quotation: %w", err)
		}
		return nil
	})
}

// Get loads a quotation with its lines.
func (s *Service) Get(ctx context.Context, id int64) (q ledger.Quotation, err error) {
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		q, err = tx.GetQuotation(ctx, id)
		if err != nil {
			return err
		}
		q.Items, err = tx.ListQuotationItems(ctx, id)
		return err
	})
	return q, err
}

// List returns quotation headers matching req.
func (s *Service) List(ctx context.Context, req ListQuotationsRequest) (out []ledger.Quotation, err error) {
	filter := ledger.QuotationFilter{CustomerID: req.CustomerID}
	if req.Status != "" {
		if filter.Status, err = ledger.ParseQuotationStatus(req.Status); err != nil {
			return nil, err
		}
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		out, err = tx.ListQuotations(ctx, filter)
		return err
	})
	return out, err
}

func (s *Service) lockPending(ctx context.Context, tx ledger.Tx, id int64) (ledger.Quotation, error) {
	q, err := tx.GetQuotationForUpdate(ctx, id)
	if err != nil {
		return ledger.Quotation{}, err
	}
	if q.Status != ledger.QuotationPending {
		return ledger.Quotation{}, fmt.Errorf("%w: quotation %s is %s", ledger.ErrQuotationLocked, q.Number, q.Status)
	}
	return q, nil
}

func (s *Service) replaceItems(ctx context.Context, tx ledger.Tx, quotationID int64, lines []inventory.Line) ([]ledger.QuotationItem, error) {
	items := make([]ledger.QuotationItem, 0, len(lines))
	for i, line := range lines {
		items = append(items, ledger.QuotationItem{
			Position:    i + 1,
			InventoryID: line.InventoryID,
			ItemCode:    line.ItemCode,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Amount:      line.Amount,
		})
	}
	if err := tx.InsertQuotationItems(ctx, quotationID, items); err != nil {
		return nil, fmt.Errorf("insert quotation items: %w", err)
	}
	return tx.ListQuotationItems(ctx, quotationID)
}
