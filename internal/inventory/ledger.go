// Package inventory owns stock quantities. Every quantity change goes through
// Ledger.Apply, which appends the matching stock transaction in the same unit
// of work.
package inventory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizledger/bizledger/internal/ledger"
)

// Change describes one signed quantity movement.
type Change struct {
	ItemID       int64
	Delta        int
	UnitPrice    *decimal.Decimal
	Currency     ledger.Currency
	Reason       ledger.StockReason
	Ref          *ledger.DocumentRef
	CustomerName string
	Notes        string
}

// Line is a document line resolved against the inventory.
type Line struct {
	InventoryID *int64
	ItemCode    string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	CostPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// Ledger applies stock movements.
type Ledger struct {
	now func() time.Time
}

// NewLedger builds a Ledger. A nil clock defaults to time.Now.
func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{now: now}
}

// Apply locks the item, changes its quantity by ch.Delta and records the
// movement. A stock-out larger than the quantity on hand fails with
// *ledger.InsufficientStockError and changes nothing.
func (l *Ledger) Apply(ctx context.Context, tx ledger.InventoryTx, ch Change) (ledger.StockTransaction, error) {
	if ch.Delta == 0 {
		return ledger.StockTransaction{}, fmt.Errorf("%w: zero quantity change", ledger.ErrInvalidValue)
	}
	item, err := tx.GetItemForUpdate(ctx, ch.ItemID)
	if err != nil {
		return ledger.StockTransaction{}, fmt.Errorf("lock item %d: %w", ch.ItemID, err)
	}
	next := item.Quantity + ch.Delta
	if next < 0 {
		return ledger.StockTransaction{}, &ledger.InsufficientStockError{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Requested: -ch.Delta,
			Available: item.Quantity,
		}
	}
	if err := tx.SetItemQuantity(ctx, item.ID, next); err != nil {
		return ledger.StockTransaction{}, fmt.Errorf("set quantity: %w", err)
	}

	price := item.UnitPrice
	if ch.UnitPrice != nil {
		price = *ch.UnitPrice
	}
	currency := ch.Currency
	if currency == "" {
		currency = ledger.CurrencyUSD
	}
	st := ledger.StockTransaction{
		ItemID:       item.ID,
		Type:         movementType(ch),
		Quantity:     ch.Delta,
		UnitPrice:    price,
		TotalValue:   ledger.LineAmount(ch.Delta, price),
		Currency:     currency,
		Reason:       ch.Reason,
		Ref:          ch.Ref,
		CustomerName: ch.CustomerName,
		Notes:        ch.Notes,
		CreatedAt:    l.now().UTC(),
	}
	id, err := tx.InsertStockTransaction(ctx, st)
	if err != nil {
		return ledger.StockTransaction{}, fmt.Errorf("record stock transaction: %w", err)
	}
	st.ID = id
	return st, nil
}

func movementType(ch Change) ledger.TransactionType {
	switch {
	case ch.Reason == ledger.ReasonAdjustment:
		return ledger.StockAdjustment
	case ch.Delta > 0:
		return ledger.StockIn
	default:
		return ledger.StockOut
	}
}

// CheckAvailability verifies every item can cover its aggregated demand.
// credit is quantity that the same unit of work returns to stock before
// deducting, as when an invoice is edited. Items are locked in id order.
func (l *Ledger) CheckAvailability(ctx context.Context, tx ledger.InventoryTx, demand, credit ledger.Demand) error {
	ids := make([]int64, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		item, err := tx.GetItemForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("lock item %d: %w", id, err)
		}
		available := item.Quantity + credit[id]
		if demand[id] > available {
			return &ledger.InsufficientStockError{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Requested: demand[id],
				Available: available,
			}
		}
	}
	return nil
}

// Resolve validates lines and prices them against the inventory. Lines with an
// inventory reference take the item's code, name and prices unless the line
// overrides the unit price; free-text lines get a generated custom code.
func (l *Ledger) Resolve(ctx context.Context, tx ledger.InventoryTx, lines []ledger.LineInput) ([]Line, error) {
	if err := ledger.ValidateLines(lines); err != nil {
		return nil, err
	}
	customCode := "CUST-" + l.now().UTC().Format("20060102150405")
	out := make([]Line, 0, len(lines))
	for i, in := range lines {
		line := Line{Quantity: in.Quantity, ItemCode: in.ItemCode, Description: in.Description}
		if in.InventoryID != nil {
			item, err := tx.GetItem(ctx, *in.InventoryID)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ledger.ErrInvalidItem, i+1, err)
			}
			line.InventoryID = ledger.Int64Ptr(item.ID)
			line.UnitPrice = item.UnitPrice
			line.CostPrice = item.CostPrice
			if line.Description == "" {
				line.Description = item.Name
			}
			if line.ItemCode == "" {
				line.ItemCode = item.ItemCode()
			}
		} else if line.ItemCode == "" {
			line.ItemCode = customCode
		}
		if in.UnitPrice != nil {
			line.UnitPrice = *in.UnitPrice
		}
		line.Amount = ledger.LineAmount(line.Quantity, line.UnitPrice)
		out = append(out, line)
	}
	return out, nil
}

// Total sums line amounts.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	return total
}

// DemandOf aggregates inventory-backed resolved lines.
func DemandOf(lines []Line) ledger.Demand {
	d := ledger.Demand{}
	for _, line := range lines {
		if line.InventoryID != nil {
			d.Add(*line.InventoryID, line.Quantity)
		}
	}
	return d
}
