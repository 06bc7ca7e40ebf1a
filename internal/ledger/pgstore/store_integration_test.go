//go:build integration

package pgstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bizledger/bizledger/internal/ar/invoices"
	"github.com/bizledger/bizledger/internal/ar/payments"
	"github.com/bizledger/bizledger/internal/finance"
	"github.com/bizledger/bizledger/internal/inventory"
	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/ledger/pgstore"
	"github.com/bizledger/bizledger/internal/masterdata/suppliers"
	"github.com/bizledger/bizledger/internal/platform/db"
	"github.com/bizledger/bizledger/internal/sales/activities"
	"github.com/bizledger/bizledger/internal/sales/customers"
)

func newStore(t *testing.T) *pgstore.Store {
	t.Helper()
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("bizledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(dsn))

	pool, err := db.New(ctx, dsn, db.PoolOptions{})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pgstore.New(pool)
}

func TestConstraintsMapToLedgerErrors(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	customer := ledger.Customer{ID: "AB12345", Name: "Alice", Surname: "Baker", CreatedAt: now}
	require.NoError(t, store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.InsertCustomer(ctx, customer)
	}))
	err := store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.InsertCustomer(ctx, customer)
	})
	assert.ErrorIs(t, err, ledger.ErrDuplicateCustomer)

	inv := ledger.Invoice{Number: "ALAB12345", TotalAmount: decimal.NewFromInt(10), BalanceDue: decimal.NewFromInt(10),
		Status: ledger.InvoiceDraft, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.InsertInvoice(ctx, inv)
		return err
	}))
	err = store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.InsertInvoice(ctx, inv)
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrDuplicateDocumentNumber)

	err = store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.GetInvoice(ctx, 999)
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrInvoiceNotFound)

	err = store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.InsertStockTransaction(ctx, ledger.StockTransaction{
			ItemID: 42, Type: ledger.StockIn, Quantity: 1, Currency: ledger.CurrencyUSD,
			Reason: ledger.ReasonPurchase, CreatedAt: now,
		})
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrItemNotFound)
}

func TestInvoiceAndPaymentRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.InsertCustomer(ctx, ledger.Customer{ID: "AB12345", Name: "Alice", Surname: "Baker", CreatedAt: now})
	}))
	items := inventory.NewService(store, inventory.ServiceConfig{})
	panel, err := items.CreateItem(ctx, inventory.CreateItemInput{
		Name:      "Panel",
		Quantity:  10,
		UnitPrice: decimal.NewFromInt(100),
		CostPrice: decimal.NewFromInt(70),
	})
	require.NoError(t, err)

	invSvc := invoices.NewService(store, invoices.ServiceConfig{DefaultDueDays: 30})
	inv, err := invSvc.Create(ctx, invoices.CreateInvoiceRequest{
		CustomerID: "AB12345",
		Lines:      []ledger.LineInput{{InventoryID: ledger.Int64Ptr(panel.ID), Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ALAB12345", inv.Number)
	assert.Equal(t, "300.00", inv.TotalAmount.StringFixed(2))

	paySvc := payments.NewService(store, payments.ServiceConfig{})
	_, err = paySvc.Record(ctx, payments.RecordPaymentRequest{InvoiceID: inv.ID, Amount: decimal.NewFromInt(100), Method: "CASH"})
	require.NoError(t, err)
	_, err = paySvc.Record(ctx, payments.RecordPaymentRequest{InvoiceID: inv.ID, Amount: decimal.NewFromInt(500), Method: "CASH"})
	assert.ErrorIs(t, err, ledger.ErrOverPayment)

	got, err := invSvc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoicePartial, got.Status)
	assert.Equal(t, "200.00", got.BalanceDue.StringFixed(2))
	require.Len(t, got.Items, 1)
	require.Len(t, got.Payments, 1)

	item, err := items.GetItem(ctx, panel.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, item.Quantity)

	require.NoError(t, invSvc.Delete(ctx, inv.ID))
	item, err = items.GetItem(ctx, panel.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, item.Quantity)

	var records []ledger.FinancialRecord
	require.NoError(t, store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		records, err = tx.ListFinancialRecords(ctx, ledger.FinancialFilter{})
		return err
	}))
	require.Len(t, records, 1)
	assert.Nil(t, records[0].PaymentID)
	assert.Nil(t, records[0].InvoiceID)
}

func TestSuppliersActivitiesAndCategories(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	supplierSvc := suppliers.NewService(store, nil, nil)
	sup, err := supplierSvc.Create(ctx, suppliers.SupplierInput{Name: "Sun Wholesale"})
	require.NoError(t, err)

	items := inventory.NewService(store, inventory.ServiceConfig{})
	_, err = items.CreateItem(ctx, inventory.CreateItemInput{Name: "Battery", SupplierID: ledger.Int64Ptr(sup.ID + 100)})
	assert.ErrorIs(t, err, ledger.ErrSupplierNotFound)
	battery, err := items.CreateItem(ctx, inventory.CreateItemInput{Name: "Battery", Quantity: 2, SupplierID: &sup.ID})
	require.NoError(t, err)

	require.NoError(t, supplierSvc.Delete(ctx, sup.ID))
	battery, err = items.GetItem(ctx, battery.ID)
	require.NoError(t, err)
	assert.Nil(t, battery.SupplierID)
	assert.Equal(t, 2, battery.Quantity)

	customerSvc := customers.NewService(store, nil)
	_, err = customerSvc.Create(ctx, customers.CreateCustomerRequest{ID: "AB12345", Name: "Alice"})
	require.NoError(t, err)
	activitySvc := activities.NewService(store, activities.ServiceConfig{})
	_, err = activitySvc.Create(ctx, activities.CreateActivityRequest{CustomerID: ledger.StringPtr("NOPE"), Description: "Survey"})
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)
	act, err := activitySvc.Create(ctx, activities.CreateActivityRequest{CustomerID: ledger.StringPtr("AB12345"), Description: "Survey", Status: "COMPLETED"})
	require.NoError(t, err)

	require.NoError(t, customerSvc.Delete(ctx, "AB12345"))
	act, err = activitySvc.Get(ctx, act.ID)
	require.NoError(t, err)
	assert.Nil(t, act.CustomerID)
	assert.NotNil(t, act.CompletedAt)

	financeSvc := finance.NewService(store, finance.ServiceConfig{})
	cats, err := financeSvc.ListCategories(ctx, "EXPENSE")
	require.NoError(t, err)
	assert.Len(t, cats, len(ledger.DefaultExpenseCategories))
	_, err = financeSvc.CreateCategory(ctx, finance.CreateCategoryRequest{Name: "Fuel", Type: "EXPENSE"})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)

	rec, err := financeSvc.Record(ctx, finance.RecordEntryRequest{Type: "EXPENSE", Category: "Fuel", Description: "Diesel", Amount: decimal.NewFromInt(40)})
	require.NoError(t, err)
	require.NoError(t, financeSvc.Delete(ctx, rec.ID))
	assert.ErrorIs(t, financeSvc.Delete(ctx, rec.ID), ledger.ErrRecordNotFound)
}
