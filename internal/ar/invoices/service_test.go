package invoices

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/ledger/memstore"
	"github.com/bizledger/bizledger/internal/testing/fixtures"
)

type env struct {
	store *memstore.Store
	svc   *Service
	clock *time.Time
	panel ledger.InventoryItem
	cable ledger.InventoryItem
}

func setup(t *testing.T) *env {
	t.Helper()
	store := memstore.New()
	fixtures.Customer(t, store, fixtures.Alice)
	now := fixtures.Now
	return &env{
		store: store,
		svc:   NewService(store, ServiceConfig{Now: fixtures.Clock(&now), DefaultDueDays: 30}),
		clock: &now,
		panel: fixtures.Item(t, store, "Solar Panel", 10, "100.00", "70.00"),
		cable: fixtures.Item(t, store, "Cable", 5, "2.50", "1.00"),
	}
}

func (e *env) create(t *testing.T, lines ...ledger.LineInput) ledger.Invoice {
	t.Helper()
	inv, err := e.svc.Create(context.Background(), CreateInvoiceRequest{CustomerID: fixtures.Alice.ID, Lines: lines})
	require.NoError(t, err)
	return inv
}

// pay books a payment straight into the store the way the payment ledger does.
func (e *env) pay(t *testing.T, invoiceID int64, amount string) {
	t.Helper()
	require.NoError(t, e.store.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		inv, err := tx.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		paid := fixtures.Dec(amount)
		existing, err := tx.ListPayments(ctx, invoiceID)
		if err != nil {
			return err
		}
		if _, err := tx.InsertPayment(ctx, ledger.Payment{
			InvoiceID:     invoiceID,
			Amount:        paid,
			Method:        ledger.MethodCash,
			TransactionID: "TX-TEST-" + strconv.FormatInt(invoiceID, 10) + "-" + strconv.Itoa(len(existing)),
			PaidAt:        *e.clock,
		}); err != nil {
			return err
		}
		inv.PaidAmount = inv.PaidAmount.Add(paid)
		inv.BalanceDue = inv.BalanceDue.Sub(paid)
		inv.Refresh(*e.clock)
		return tx.UpdateInvoice(ctx, inv)
	}))
}

func line(id int64, qty int) ledger.LineInput {
	return ledger.LineInput{InventoryID: ledger.Int64Ptr(id), Quantity: qty}
}

func custom(desc, price string) ledger.LineInput {
	return ledger.LineInput{Description: desc, Quantity: 1, UnitPrice: fixtures.DecPtr(price)}
}

func TestCreateDeductsStock(t *testing.T) {
	e := setup(t)
	inv := e.create(t, line(e.panel.ID, 2), line(e.cable.ID, 4), custom("Installation", "50"))

	assert.Equal(t, "ALAB12345", inv.Number)
	assert.Equal(t, ledger.InvoiceDraft, inv.Status)
	assert.True(t, fixtures.Dec("260").Equal(inv.TotalAmount))
	assert.True(t, inv.TotalAmount.Equal(inv.BalanceDue))
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, fixtures.Now.AddDate(0, 0, 30), *inv.DueDate)
	require.Len(t, inv.Items, 3)
	assert.True(t, fixtures.Dec("70").Equal(inv.Items[0].CostPrice))

	assert.Equal(t, 8, fixtures.Stock(t, e.store, e.panel.ID))
	assert.Equal(t, 1, fixtures.Stock(t, e.store, e.cable.ID))
	fixtures.RequireStockExplained(t, e.store, e.panel.ID)

	moves := fixtures.Movements(t, e.store, e.cable.ID)
	last := moves[len(moves)-1]
	assert.Equal(t, -4, last.Quantity)
	assert.Equal(t, ledger.StockOut, last.Type)
	assert.Equal(t, &ledger.DocumentRef{ID: inv.ID, Type: ledger.RefInvoice}, last.Ref)
	assert.Equal(t, "Alice Baker", last.CustomerName)

	second := e.create(t, custom("Call-out", "20"))
	assert.Equal(t, "ALAB123451", second.Number)
}

func TestCreateChecksAggregatedDemandBeforeTouchingStock(t *testing.T) {
	e := setup(t)
	_, err := e.svc.Create(context.Background(), CreateInvoiceRequest{
		CustomerID: fixtures.Alice.ID,
		Lines:      []ledger.LineInput{line(e.panel.ID, 1), line(e.cable.ID, 3), line(e.cable.ID, 3)},
	})
	var stockErr *ledger.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, e.cable.ID, stockErr.ItemID)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)

	assert.Equal(t, 10, fixtures.Stock(t, e.store, e.panel.ID))
	assert.Equal(t, 5, fixtures.Stock(t, e.store, e.cable.ID))
	out, err := e.svc.List(context.Background(), ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, CreateInvoiceRequest{CustomerID: "ZZ99999", Lines: []ledger.LineInput{line(e.panel.ID, 1)}})
	require.ErrorIs(t, err, ledger.ErrCustomerNotFound)

	_, err = e.svc.Create(ctx, CreateInvoiceRequest{
		CustomerID:     fixtures.Alice.ID,
		ActivityTypeID: ledger.Int64Ptr(42),
		Lines:          []ledger.LineInput{line(e.panel.ID, 1)},
	})
	require.ErrorIs(t, err, ledger.ErrActivityTypeNotFound)

	_, err = e.svc.Create(ctx, CreateInvoiceRequest{CustomerID: fixtures.Alice.ID, Lines: []ledger.LineInput{line(77, 1)}})
	require.ErrorIs(t, err, ledger.ErrInvalidItem)

	assert.Equal(t, 10, fixtures.Stock(t, e.store, e.panel.ID))
}

func TestEditRestocksThenDeducts(t *testing.T) {
	e := setup(t)
	inv := e.create(t, line(e.panel.ID, 3))
	require.Equal(t, 7, fixtures.Stock(t, e.store, e.panel.ID))

	_, err := e.svc.Edit(context.Background(), inv.ID, UpdateInvoiceRequest{Lines: []ledger.LineInput{line(e.panel.ID, 11)}})
	var stockErr *ledger.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 10, stockErr.Available)
	assert.Equal(t, 7, fixtures.Stock(t, e.store, e.panel.ID))

	edited, err := e.svc.Edit(context.Background(), inv.ID, UpdateInvoiceRequest{Lines: []ledger.LineInput{line(e.panel.ID, 9)}})
	require.NoError(t, err)
	assert.True(t, fixtures.Dec("900").Equal(edited.TotalAmount))
	assert.True(t, fixtures.Dec("900").Equal(edited.BalanceDue))
	assert.Equal(t, 1, fixtures.Stock(t, e.store, e.panel.ID))
	fixtures.RequireStockExplained(t, e.store, e.panel.ID)

	moves := fixtures.Movements(t, e.store, e.panel.ID)
	require.Len(t, moves, 4)
	assert.Equal(t, 3, moves[2].Quantity)
	assert.Equal(t, ledger.ReasonRestock, moves[2].Reason)
	assert.Equal(t, ledger.RefInvoiceEditRevert, moves[2].Ref.Type)
	assert.Equal(t, -9, moves[3].Quantity)
	assert.Equal(t, ledger.RefInvoiceEditDeduct, moves[3].Ref.Type)

	loaded := fixtures.Invoice(t, e.store, inv.ID)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 9, loaded.Items[0].Quantity)
}

func TestEditPreservesMoneyAlreadyReceived(t *testing.T) {
	e := setup(t)
	inv := e.create(t, line(e.panel.ID, 2))
	e.pay(t, inv.ID, "150")
	require.Equal(t, ledger.InvoicePartial, fixtures.Invoice(t, e.store, inv.ID).Status)

	_, err := e.svc.Edit(context.Background(), inv.ID, UpdateInvoiceRequest{Lines: []ledger.LineInput{line(e.cable.ID, 4)}})
	var payErr *ledger.OverPaymentError
	require.ErrorAs(t, err, &payErr)
	assert.True(t, fixtures.Dec("150").Equal(payErr.Amount))
	assert.Equal(t, 8, fixtures.Stock(t, e.store, e.panel.ID))
	assert.Equal(t, 5, fixtures.Stock(t, e.store, e.cable.ID))

	edited, err := e.svc.Edit(context.Background(), inv.ID, UpdateInvoiceRequest{
		Lines: []ledger.LineInput{line(e.panel.ID, 1), custom("Labour", "50")},
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoicePaid, edited.Status)
	assert.True(t, edited.BalanceDue.IsZero())
	fixtures.RequireBalanced(t, fixtures.Invoice(t, e.store, inv.ID))
	assert.Equal(t, 9, fixtures.Stock(t, e.store, e.panel.ID))
}

func TestEditRollsBackOnPersistenceFailure(t *testing.T) {
	e := setup(t)
	inv := e.create(t, line(e.panel.ID, 2))

	e.store.FailNext("UpdateInvoice", errors.New("connection reset"))
	_, err := e.svc.Edit(context.Background(), inv.ID, UpdateInvoiceRequest{Lines: []ledger.LineInput{line(e.cable.ID, 1)}})
	require.ErrorIs(t, err, ledger.ErrPersistence)

	assert.Equal(t, 8, fixtures.Stock(t, e.store, e.panel.ID))
	assert.Equal(t, 5, fixtures.Stock(t, e.store, e.cable.ID))
	loaded := fixtures.Invoice(t, e.store, inv.ID)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, e.panel.ID, *loaded.Items[0].InventoryID)
	assert.Len(t, fixtures.Movements(t, e.store, e.panel.ID), 2)
}

func TestDeleteReturnsStockAndPayments(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	inv := e.create(t, line(e.panel.ID, 4), line(e.cable.ID, 2))
	e.pay(t, inv.ID, "100")

	require.NoError(t, e.svc.Delete(ctx, inv.ID))
	assert.Equal(t, 10, fixtures.Stock(t, e.store, e.panel.ID))
	assert.Equal(t, 5, fixtures.Stock(t, e.store, e.cable.ID))
	fixtures.RequireStockExplained(t, e.store, e.panel.ID)

	moves := fixtures.Movements(t, e.store, e.panel.ID)
	last := moves[len(moves)-1]
	assert.Equal(t, ledger.ReasonReturned, last.Reason)
	assert.Equal(t, ledger.RefInvoiceDeletion, last.Ref.Type)

	_, err := e.svc.Get(ctx, inv.ID)
	require.ErrorIs(t, err, ledger.ErrInvoiceNotFound)
	require.NoError(t, e.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		payments, err := tx.ListPayments(ctx, inv.ID)
		assert.Empty(t, payments)
		return err
	}))
}

func TestCancelReturnsStockOnce(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	inv := e.create(t, line(e.panel.ID, 4))

	cancelled, err := e.svc.Cancel(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoiceCancelled, cancelled.Status)
	assert.Equal(t, 10, fixtures.Stock(t, e.store, e.panel.ID))

	moves := fixtures.Movements(t, e.store, e.panel.ID)
	assert.Equal(t, ledger.RefInvoiceCancellation, moves[len(moves)-1].Ref.Type)

	_, err = e.svc.Cancel(ctx, inv.ID)
	require.ErrorIs(t, err, ledger.ErrInvoiceLocked)
	_, err = e.svc.Edit(ctx, inv.ID, UpdateInvoiceRequest{Lines: []ledger.LineInput{line(e.panel.ID, 1)}})
	require.ErrorIs(t, err, ledger.ErrInvoiceLocked)

	require.NoError(t, e.svc.Delete(ctx, inv.ID))
	assert.Equal(t, 10, fixtures.Stock(t, e.store, e.panel.ID))
	fixtures.RequireStockExplained(t, e.store, e.panel.ID)
}

func TestCancelRefusesPaidInvoices(t *testing.T) {
	e := setup(t)
	inv := e.create(t, line(e.panel.ID, 1))
	e.pay(t, inv.ID, "10")

	_, err := e.svc.Cancel(context.Background(), inv.ID)
	require.ErrorIs(t, err, ledger.ErrInvoiceHasPayments)
	assert.Equal(t, 9, fixtures.Stock(t, e.store, e.panel.ID))
}

func TestSendAndOverdueSweep(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	soon := fixtures.Now.Add(24 * time.Hour)

	open, err := e.svc.Create(ctx, CreateInvoiceRequest{CustomerID: fixtures.Alice.ID, Lines: []ledger.LineInput{custom("Audit", "80")}, DueDate: &soon})
	require.NoError(t, err)
	settled, err := e.svc.Create(ctx, CreateInvoiceRequest{CustomerID: fixtures.Alice.ID, Lines: []ledger.LineInput{custom("Survey", "40")}, DueDate: &soon})
	require.NoError(t, err)
	e.pay(t, settled.ID, "40")

	sent, err := e.svc.Send(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoiceSent, sent.Status)
	_, err = e.svc.Send(ctx, open.ID)
	require.ErrorIs(t, err, ledger.ErrInvalidValue)

	res, err := e.svc.MarkOverdue(ctx, fixtures.Now)
	require.NoError(t, err)
	assert.Empty(t, res.Marked)

	*e.clock = fixtures.Now.Add(48 * time.Hour)
	res, err = e.svc.MarkOverdue(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{open.Number}, res.Marked)
	assert.Equal(t, ledger.InvoiceOverdue, fixtures.Invoice(t, e.store, open.ID).Status)
	assert.Equal(t, ledger.InvoicePaid, fixtures.Invoice(t, e.store, settled.ID).Status)

	e.pay(t, open.ID, "80")
	assert.Equal(t, ledger.InvoicePaid, fixtures.Invoice(t, e.store, open.ID).Status)
}

func TestAgingBuckets(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	dues := []time.Time{
		fixtures.Now.AddDate(0, 0, 30),
		fixtures.Now.AddDate(0, 0, -10),
		fixtures.Now.AddDate(0, 0, -45),
		fixtures.Now.AddDate(0, 0, -100),
	}
	for i := range dues {
		_, err := e.svc.Create(ctx, CreateInvoiceRequest{
			CustomerID: fixtures.Alice.ID,
			Lines:      []ledger.LineInput{custom("Service", "100")},
			DueDate:    &dues[i],
		})
		require.NoError(t, err)
	}
	paidOff := e.create(t, custom("Paid", "100"))
	e.pay(t, paidOff.ID, "100")

	bucket, err := e.svc.Aging(ctx, fixtures.Now)
	require.NoError(t, err)
	hundred := decimal.NewFromInt(100)
	assert.True(t, hundred.Equal(bucket.Current))
	assert.True(t, hundred.Equal(bucket.Bucket30))
	assert.True(t, hundred.Equal(bucket.Bucket60))
	assert.True(t, bucket.Bucket90.IsZero())
	assert.True(t, hundred.Equal(bucket.Bucket90P))
	assert.True(t, decimal.NewFromInt(400).Equal(bucket.Total))
}

func TestActivityTypes(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	at, err := e.svc.CreateActivityType(ctx, CreateActivityTypeRequest{Name: "  Solar installation "})
	require.NoError(t, err)
	assert.Equal(t, "Solar installation", at.Name)

	_, err = e.svc.CreateActivityType(ctx, CreateActivityTypeRequest{})
	require.ErrorIs(t, err, ledger.ErrInvalidValue)

	inv, err := e.svc.Create(ctx, CreateInvoiceRequest{
		CustomerID:     fixtures.Alice.ID,
		ActivityTypeID: &at.ID,
		Lines:          []ledger.LineInput{custom("Install", "300")},
	})
	require.NoError(t, err)
	assert.Equal(t, at.ID, *inv.ActivityTypeID)

	all, err := e.svc.ListActivityTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, e.svc.DeleteActivityType(ctx, at.ID))
	require.ErrorIs(t, e.svc.DeleteActivityType(ctx, at.ID), ledger.ErrActivityTypeNotFound)
	inv = fixtures.Invoice(t, e.store, inv.ID)
	assert.Nil(t, inv.ActivityTypeID)
	assert.Equal(t, "300.00", inv.TotalAmount.StringFixed(2))
}
