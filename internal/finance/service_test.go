package finance

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/ledger/memstore"
	"github.com/bizledger/bizledger/internal/platform/cache"
	"github.com/bizledger/bizledger/internal/testing/fixtures"
)

func newService(t *testing.T, withCache bool) (*memstore.Store, *Service) {
	t.Helper()
	store := memstore.New()
	cfg := ServiceConfig{Now: func() time.Time { return fixtures.Now }}
	if withCache {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		cfg.Cache = cache.NewVersioned(client, "finance", time.Minute)
	}
	return store, NewService(store, cfg)
}

func insertRecord(t *testing.T, store *memstore.Store, rec ledger.FinancialRecord) {
	t.Helper()
	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.InsertFinancialRecord(ctx, rec)
		return err
	}))
}

func TestRecordValidatesEntries(t *testing.T) {
	_, svc := newService(t, false)
	ctx := context.Background()

	rec, err := svc.Record(ctx, RecordEntryRequest{Type: "expense", Category: " Fuel ", Description: "Diesel", Amount: fixtures.Dec("45.555")})
	require.NoError(t, err)
	assert.Equal(t, ledger.Expense, rec.Type)
	assert.Equal(t, "Fuel", rec.Category)
	assert.Equal(t, "45.56", rec.Amount.StringFixed(2))
	assert.Equal(t, fixtures.Now, rec.Date)
	assert.NotZero(t, rec.ID)

	_, err = svc.Record(ctx, RecordEntryRequest{Type: "EXPENSE", Category: "Holidays", Description: "Trip", Amount: fixtures.Dec("10")})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)

	_, err = svc.Record(ctx, RecordEntryRequest{Type: "GIFT", Category: "Other", Description: "x", Amount: fixtures.Dec("10")})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)

	_, err = svc.Record(ctx, RecordEntryRequest{Type: "INCOME", Category: "Consulting", Description: "x", Amount: fixtures.Dec("0")})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = svc.Record(ctx, RecordEntryRequest{Type: "INCOME", Category: "Consulting", Description: "x", Amount: fixtures.Dec("0.004")})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = svc.Record(ctx, RecordEntryRequest{Type: "INCOME", Category: "Consulting", Amount: fixtures.Dec("5")})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)

	rec, err = svc.Record(ctx, RecordEntryRequest{Type: "income", Category: "Consulting", Description: "Advice", Amount: fixtures.Dec("80")})
	require.NoError(t, err)
	assert.Equal(t, ledger.Income, rec.Type)
}

func TestListFiltersByTypeAndRange(t *testing.T) {
	store, svc := newService(t, false)
	ctx := context.Background()
	insertRecord(t, store, ledger.FinancialRecord{Type: ledger.Income, Category: "Sales", Description: "a", Amount: fixtures.Dec("10"), Date: fixtures.Now})
	insertRecord(t, store, ledger.FinancialRecord{Type: ledger.Expense, Category: "Rent", Description: "b", Amount: fixtures.Dec("4"), Date: fixtures.Now})
	insertRecord(t, store, ledger.FinancialRecord{Type: ledger.Expense, Category: "Rent", Description: "c", Amount: fixtures.Dec("4"), Date: fixtures.Now.AddDate(0, -1, 0)})

	all, err := svc.List(ctx, ListEntriesRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	from, to := MonthRange(fixtures.Now)
	expenses, err := svc.List(ctx, ListEntriesRequest{Type: "expense", From: from, To: to})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "b", expenses[0].Description)

	_, err = svc.List(ctx, ListEntriesRequest{Type: "bogus"})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)
}

func TestSummaryComputesGrossProfit(t *testing.T) {
	store, svc := newService(t, false)
	ctx := context.Background()
	panel := fixtures.Item(t, store, "Panel", 10, "100", "70")

	require.NoError(t, store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		for _, status := range []ledger.InvoiceStatus{ledger.InvoiceSent, ledger.InvoiceCancelled} {
			id, err := tx.InsertInvoice(ctx, ledger.Invoice{
				Number:      "INV-" + string(status),
				TotalAmount: fixtures.Dec("200"),
				BalanceDue:  fixtures.Dec("200"),
				Status:      status,
				CreatedAt:   fixtures.Now,
				UpdatedAt:   fixtures.Now,
			})
			if err != nil {
				return err
			}
			if err := tx.InsertInvoiceItems(ctx, id, []ledger.InvoiceItem{{
				Position:    1,
				InventoryID: ledger.Int64Ptr(panel.ID),
				Description: "Panel",
				Quantity:    2,
				UnitPrice:   fixtures.Dec("100"),
				CostPrice:   fixtures.Dec("70"),
				Amount:      fixtures.Dec("200"),
			}}); err != nil {
				return err
			}
		}
		return nil
	}))
	insertRecord(t, store, ledger.FinancialRecord{Type: ledger.Income, Category: ledger.CategorySales, Description: "pay", Amount: fixtures.Dec("200"), Date: fixtures.Now})
	insertRecord(t, store, ledger.FinancialRecord{Type: ledger.Income, Category: "Consulting", Description: "advice", Amount: fixtures.Dec("50"), Date: fixtures.Now})
	insertRecord(t, store, ledger.FinancialRecord{Type: ledger.Expense, Category: "Fuel", Description: "diesel", Amount: fixtures.Dec("30"), Date: fixtures.Now})
	insertRecord(t, store, ledger.FinancialRecord{Type: ledger.Expense, Category: "Fuel", Description: "last month", Amount: fixtures.Dec("99"), Date: fixtures.Now.AddDate(0, -1, 0)})

	sum, err := svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "250.00", sum.Income.StringFixed(2))
	assert.Equal(t, "200.00", sum.SalesIncome.StringFixed(2))
	assert.Equal(t, "30.00", sum.Expense.StringFixed(2))
	assert.Equal(t, "220.00", sum.Net.StringFixed(2))
	assert.Equal(t, "140.00", sum.CostOfGoods.StringFixed(2))
	assert.Equal(t, "60.00", sum.GrossProfit.StringFixed(2))
	assert.Equal(t, "30.00", sum.ByCategory["Fuel"].StringFixed(2))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), sum.From)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), sum.To)
}

func TestSummaryRejectsBadRanges(t *testing.T) {
	_, svc := newService(t, false)
	ctx := context.Background()

	_, err := svc.Summary(ctx, fixtures.Now, time.Time{})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)
	_, err = svc.Summary(ctx, fixtures.Now, fixtures.Now.Add(-time.Hour))
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)
}

func TestSummaryIsCachedUntilInvalidated(t *testing.T) {
	store, svc := newService(t, true)
	ctx := context.Background()
	insertRecord(t, store, ledger.FinancialRecord{Type: ledger.Income, Category: "Consulting", Description: "a", Amount: fixtures.Dec("10"), Date: fixtures.Now})

	first, err := svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "10.00", first.Income.StringFixed(2))

	insertRecord(t, store, ledger.FinancialRecord{Type: ledger.Income, Category: "Consulting", Description: "b", Amount: fixtures.Dec("5"), Date: fixtures.Now})
	cached, err := svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "10.00", cached.Income.StringFixed(2))

	svc.Invalidate(ctx)
	fresh, err := svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "15.00", fresh.Income.StringFixed(2))
}

func TestRecordInvalidatesCachedSummary(t *testing.T) {
	_, svc := newService(t, true)
	ctx := context.Background()

	before, err := svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.True(t, before.Expense.IsZero())

	_, err = svc.Record(ctx, RecordEntryRequest{Type: "EXPENSE", Category: "Rent", Description: "March", Amount: fixtures.Dec("500")})
	require.NoError(t, err)

	after, err := svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "500.00", after.Expense.StringFixed(2))
	assert.Equal(t, "-500.00", after.Net.StringFixed(2))
}

func TestDeleteRemovesManualEntriesOnly(t *testing.T) {
	store, svc := newService(t, true)
	ctx := context.Background()

	manual, err := svc.Record(ctx, RecordEntryRequest{Type: "EXPENSE", Category: "Rent", Description: "March", Amount: fixtures.Dec("500")})
	require.NoError(t, err)
	paymentID := int64(7)
	insertRecord(t, store, ledger.FinancialRecord{Type: ledger.Income, Category: ledger.CategorySales, Description: "Payment", Amount: fixtures.Dec("90"), Date: fixtures.Now, PaymentID: &paymentID})

	before, err := svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "500.00", before.Expense.StringFixed(2))

	require.NoError(t, svc.Delete(ctx, manual.ID))
	assert.ErrorIs(t, svc.Delete(ctx, manual.ID), ledger.ErrRecordNotFound)

	records, err := svc.List(ctx, ListEntriesRequest{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.ErrorIs(t, svc.Delete(ctx, records[0].ID), ledger.ErrRecordLocked)

	after, err := svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.True(t, after.Expense.IsZero())
	assert.Equal(t, "90.00", after.Income.StringFixed(2))
}

func TestExpenseCategoriesAreManaged(t *testing.T) {
	_, svc := newService(t, false)
	ctx := context.Background()

	expense, err := svc.ListCategories(ctx, "expense")
	require.NoError(t, err)
	assert.Len(t, expense, len(ledger.DefaultExpenseCategories))

	_, err = svc.Record(ctx, RecordEntryRequest{Type: "EXPENSE", Category: "Insurance", Description: "Van", Amount: fixtures.Dec("60")})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)

	cat, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: " Insurance ", Type: "EXPENSE"})
	require.NoError(t, err)
	assert.Equal(t, "Insurance", cat.Name)
	assert.Equal(t, ledger.Expense, cat.Type)

	_, err = svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Insurance", Type: "EXPENSE"})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)
	_, err = svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Insurance", Type: "INCOME"})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Tips", Type: "GIFT"})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)

	_, err = svc.Record(ctx, RecordEntryRequest{Type: "EXPENSE", Category: "Insurance", Description: "Van", Amount: fixtures.Dec("60")})
	require.NoError(t, err)

	all, err := svc.ListCategories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, len(ledger.DefaultExpenseCategories)+2)

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))
	assert.ErrorIs(t, svc.DeleteCategory(ctx, cat.ID), ledger.ErrCategoryNotFound)
	_, err = svc.Record(ctx, RecordEntryRequest{Type: "EXPENSE", Category: "Insurance", Description: "Van", Amount: fixtures.Dec("60")})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)
}
