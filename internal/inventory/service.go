package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizledger/bizledger/internal/ledger"
)

// Service coordinates inventory operations.
type Service struct {
	store    ledger.Store
	stock    *Ledger
	now      func() time.Time
	observer ledger.Observer
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Now      func() time.Time
	Observer ledger.Observer
}

// NewService builds Service.
func NewService(store ledger.Store, cfg ServiceConfig) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Observer == nil {
		cfg.Observer = ledger.NopObserver{}
	}
	return &Service{store: store, stock: NewLedger(cfg.Now), now: cfg.Now, observer: cfg.Observer}
}

var stockOutReasons = map[ledger.StockReason]bool{
	ledger.ReasonSoldToCustomer:    true,
	ledger.ReasonInstalledToClient: true,
	ledger.ReasonDamaged:           true,
	ledger.ReasonAdjustment:        true,
}

// CreateItem inserts the item at zero and books the opening balance as a
// purchase so the stock history always explains the quantity on hand.
func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (item ledger.InventoryItem, err error) {
	defer func() { s.observer.Observe("inventory.create_item", err) }()
	if err := ledger.Validate(input); err != nil {
		return ledger.InventoryItem{}, err
	}
	if input.UnitPrice.IsNegative() || input.CostPrice.IsNegative() {
		return ledger.InventoryItem{}, fmt.Errorf("%w: prices must not be negative", ledger.ErrInvalidValue)
	}
	currency, err := ledger.ParseCurrency(input.Currency)
	if err != nil {
		return ledger.InventoryItem{}, err
	}
	now := s.now().UTC()
	item = ledger.InventoryItem{
		Name:              strings.TrimSpace(input.Name),
		Brand:             input.Brand,
		Category:          input.Category,
		Specifications:    input.Specifications,
		UnitPrice:         input.UnitPrice,
		CostPrice:         input.CostPrice,
		MinimumStockLevel: input.MinimumStockLevel,
		SupplierID:        input.SupplierID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		id, err := tx.InsertItem(ctx, item)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		item.ID = id
		if input.Quantity == 0 {
			return nil
		}
		cost := input.CostPrice
		if _, err := s.stock.Apply(ctx, tx, Change{
			ItemID:    id,
			Delta:     input.Quantity,
			UnitPrice: &cost,
			Currency:  currency,
			Reason:    ledger.ReasonPurchase,
			Notes:     "Initial stock for " + item.Name,
		}); err != nil {
			return err
		}
		item.Quantity = input.Quantity
		return nil
	})
	if err != nil {
		return ledger.InventoryItem{}, err
	}
	return item, nil
}

// UpdateItem changes descriptive fields and prices.
func (s *Service) UpdateItem(ctx context.Context, id int64, input UpdateItemInput) (item ledger.InventoryItem, err error) {
	defer func() { s.observer.Observe("inventory.update_item", err) }()
	if err := ledger.Validate(input); err != nil {
		return ledger.InventoryItem{}, err
	}
	if input.UnitPrice.IsNegative() || input.CostPrice.IsNegative() {
		return ledger.InventoryItem{}, fmt.Errorf("%w: prices must not be negative", ledger.ErrInvalidValue)
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		current, err := tx.GetItemForUpdate(ctx, id)
		if err != nil {
			return err
		}
		current.Name = strings.TrimSpace(input.Name)
		current.Brand = input.Brand
		current.Category = input.Category
		current.Specifications = input.Specifications
		current.UnitPrice = input.UnitPrice
		current.CostPrice = input.CostPrice
		current.MinimumStockLevel = input.MinimumStockLevel
		current.SupplierID = input.SupplierID
		current.UpdatedAt = s.now().UTC()
		if err := tx.UpdateItem(ctx, current); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		item = current
		return nil
	})
	return item, err
}

// StockIn receives goods and records the purchase.
func (s *Service) StockIn(ctx context.Context, id int64, input StockInInput) (st ledger.StockTransaction, err error) {
	defer func() { s.observer.Observe("inventory.stock_in", err) }()
	if err := ledger.Validate(input); err != nil {
		return ledger.StockTransaction{}, err
	}
	if input.CostPrice != nil && input.CostPrice.IsNegative() {
		return ledger.StockTransaction{}, fmt.Errorf("%w: cost price must not be negative", ledger.ErrInvalidValue)
	}
	currency, err := ledger.ParseCurrency(input.Currency)
	if err != nil {
		return ledger.StockTransaction{}, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		item, err := tx.GetItemForUpdate(ctx, id)
		if err != nil {
			return err
		}
		price := item.CostPrice
		if input.CostPrice != nil {
			price = *input.CostPrice
			item.CostPrice = price
			item.UpdatedAt = s.now().UTC()
			if err := tx.UpdateItem(ctx, item); err != nil {
				return fmt.Errorf("update cost price: %w", err)
			}
		}
		st, err = s.stock.Apply(ctx, tx, Change{
			ItemID:    id,
			Delta:     input.Quantity,
			UnitPrice: &price,
			Currency:  currency,
			Reason:    ledger.ReasonPurchase,
			Notes:     input.Notes,
		})
		return err
	})
	return st, err
}

// StockOut issues goods for a reason other than invoicing.
func (s *Service) StockOut(ctx context.Context, id int64, input StockOutInput) (st ledger.StockTransaction, err error) {
	defer func() { s.observer.Observe("inventory.stock_out", err) }()
	if err := ledger.Validate(input); err != nil {
		return ledger.StockTransaction{}, err
	}
	reason, err := ledger.ParseStockReason(input.Reason)
	if err != nil {
		return ledger.StockTransaction{}, err
	}
	if !stockOutReasons[reason] {
		return ledger.StockTransaction{}, fmt.Errorf("%w: %s is not a stock-out reason", ledger.ErrInvalidValue, reason)
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		st, err = s.stock.Apply(ctx, tx, Change{
			ItemID:       id,
			Delta:        -input.Quantity,
			Reason:       reason,
			CustomerName: input.CustomerName,
			Notes:        input.Notes,
		})
		return err
	})
	return st, err
}

// Adjust corrects the quantity on hand by a signed delta.
func (s *Service) Adjust(ctx context.Context, id int64, input AdjustInput) (st ledger.StockTransaction, err error) {
	defer func() { s.observer.Observe("inventory.adjust", err) }()
	if err := ledger.Validate(input); err != nil {
		return ledger.StockTransaction{}, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		st, err = s.stock.Apply(ctx, tx, Change{
			ItemID: id,
			Delta:  input.Delta,
			Reason: ledger.ReasonAdjustment,
			Notes:  input.Notes,
		})
		return err
	})
	return st, err
}

// DeleteItem purges the item's stock history and detaches document lines
// that referenced it. The lines keep their description and prices.
func (s *Service) DeleteItem(ctx context.Context, id int64) (err error) {
	defer func() { s.observer.Observe("inventory.delete_item", err) }()
	return s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if _, err := tx.GetItemForUpdate(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteStockTransactions(ctx, id); err != nil {
			return fmt.Errorf("purge stock transactions: %w", err)
		}
		if err := tx.DetachItem(ctx, id); err != nil {
			return fmt.Errorf("detach document lines: %w", err)
		}
		if err := tx.DeleteItem(ctx, id); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
}

// GetItem loads one item.
func (s *Service) GetItem(ctx context.Context, id int64) (item ledger.InventoryItem, err error) {
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		item, err = tx.GetItem(ctx, id)
		return err
	})
	return item, err
}

// ListItems returns every item ordered by id.
func (s *Service) ListItems(ctx context.Context) (items []ledger.InventoryItem, err error) {
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		items, err = tx.ListItems(ctx)
		return err
	})
	return items, err
}

// LowStock returns items at or below their minimum stock level.
func (s *Service) LowStock(ctx context.Context) ([]ledger.InventoryItem, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]ledger.InventoryItem, 0)
	for _, item := range items {
		if item.Quantity <= item.MinimumStockLevel {
			low = append(low, item)
		}
	}
	return low, nil
}

// ListTransactions returns stock history matching filter.
func (s *Service) ListTransactions(ctx context.Context, filter ledger.StockTransactionFilter) (txns []ledger.StockTransaction, err error) {
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		txns, err = tx.ListStockTransactions(ctx, filter)
		return err
	})
	return txns, err
}

// Valuation is the stock value of one item at cost and at sale price.
type Valuation struct {
	ItemID    int64           `json:"item_id"`
	Quantity  int             `json:"quantity"`
	CostValue decimal.Decimal `json:"cost_value"`
	SaleValue decimal.Decimal `json:"sale_value"`
}

// Valuate values every item on hand.
func (s *Service) Valuate(ctx context.Context) ([]Valuation, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Valuation, 0, len(items))
	for _, item := range items {
		out = append(out, Valuation{
			ItemID:    item.ID,
			Quantity:  item.Quantity,
			CostValue: ledger.LineAmount(item.Quantity, item.CostPrice),
			SaleValue: ledger.LineAmount(item.Quantity, item.UnitPrice),
		})
	}
	return out, nil
}
