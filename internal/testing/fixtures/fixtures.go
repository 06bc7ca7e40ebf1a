// Package fixtures seeds an in-memory ledger for service tests.
package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/ledger/memstore"
	_ "github.com/bizledger/bizledger/internal/testing/guard"
)

// Now is the instant every fixture clock reports.
var Now = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// Clock returns a function reporting *at, so tests can move time.
func Clock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

// Alice is the customer used by the numbering scenarios.
var Alice = ledger.Customer{ID: "AB12345", Name: "Alice", Surname: "Baker"}

// Customer inserts c.
func Customer(t *testing.T, store *memstore.Store, c ledger.Customer) ledger.Customer {
	t.Helper()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = Now
	}
	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		return tx.InsertCustomer(ctx, c)
	}))
	return c
}

// Item inserts an inventory item holding qty, booking the opening balance.
func Item(t *testing.T, store *memstore.Store, name string, qty int, price, cost string) ledger.InventoryItem {
	t.Helper()
	item := ledger.InventoryItem{
		Name:      name,
		UnitPrice: decimal.RequireFromString(price),
		CostPrice: decimal.RequireFromString(cost),
		CreatedAt: Now,
		UpdatedAt: Now,
	}
	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		id, err := tx.InsertItem(ctx, item)
		if err != nil {
			return err
		}
		item.ID = id
		if qty == 0 {
			return nil
		}
		if err := tx.SetItemQuantity(ctx, id, qty); err != nil {
			return err
		}
		item.Quantity = qty
		_, err = tx.InsertStockTransaction(ctx, ledger.StockTransaction{
			ItemID:     id,
			Type:       ledger.StockIn,
			Quantity:   qty,
			UnitPrice:  item.CostPrice,
			TotalValue: ledger.LineAmount(qty, item.CostPrice),
			Currency:   ledger.CurrencyUSD,
			Reason:     ledger.ReasonPurchase,
			CreatedAt:  Now,
		})
		return err
	}))
	return item
}

// Stock returns the quantity on hand of item id.
func Stock(t *testing.T, store *memstore.Store, id int64) int {
	t.Helper()
	var qty int
	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		item, err := tx.GetItem(ctx, id)
		qty = item.Quantity
		return err
	}))
	return qty
}

// Movements returns the stock history of item id.
func Movements(t *testing.T, store *memstore.Store, id int64) []ledger.StockTransaction {
	t.Helper()
	var out []ledger.StockTransaction
	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		var err error
		out, err = tx.ListStockTransactions(ctx, ledger.StockTransactionFilter{ItemID: &id})
		return err
	}))
	return out
}

// RequireStockExplained asserts the stock history of item id sums to its quantity.
func RequireStockExplained(t *testing.T, store *memstore.Store, id int64) {
	t.Helper()
	sum := 0
	for _, st := range Movements(t, store, id) {
		sum += st.Quantity
	}
	require.Equal(t, Stock(t, store, id), sum, "stock history of item %d does not explain its quantity", id)
}

// Invoice loads invoice id with its lines and payments.
func Invoice(t *testing.T, store *memstore.Store, id int64) ledger.Invoice {
	t.Helper()
	var inv ledger.Invoice
	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		var err error
		if inv, err = tx.GetInvoice(ctx, id); err != nil {
			return err
		}
		if inv.Items, err = tx.ListInvoiceItems(ctx, id); err != nil {
			return err
		}
		inv.Payments, err = tx.ListPayments(ctx, id)
		return err
	}))
	return inv
}

// RequireBalanced asserts paid plus balance equals total, paid equals the sum
// of payments and balance never goes negative.
func RequireBalanced(t *testing.T, inv ledger.Invoice) {
	t.Helper()
	require.True(t, inv.PaidAmount.Add(inv.BalanceDue).Equal(inv.TotalAmount),
		"paid %s + balance %s != total %s", inv.PaidAmount, inv.BalanceDue, inv.TotalAmount)
	require.False(t, inv.BalanceDue.IsNegative(), "negative balance %s", inv.BalanceDue)
	sum := decimal.Zero
	for _, p := range inv.Payments {
		sum = sum.Add(p.Amount)
	}
	require.True(t, sum.Equal(inv.PaidAmount), "payments %s != paid %s", sum, inv.PaidAmount)
}

// Dec parses a decimal literal.
func Dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// DecPtr parses a decimal literal and returns its address.
func DecPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}
