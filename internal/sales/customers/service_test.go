package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/ledger/memstore"
	"github.com/bizledger/bizledger/internal/testing/fixtures"
)

func newTestService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	now := fixtures.Now
	return NewService(store, fixtures.Clock(&now)), store
}

func TestCreateAssignsNumericIDs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateCustomerRequest{Name: "Tariro"})
	require.NoError(t, err)
	assert.Equal(t, "00001", first.ID)

	_, err = svc.Create(ctx, CreateCustomerRequest{ID: "AB12345", Name: "Alice"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateCustomerRequest{ID: "00041", Name: "Bongani"})
	require.NoError(t, err)

	next, err := svc.Create(ctx, CreateCustomerRequest{Name: "Chipo", Surname: "Moyo"})
	require.NoError(t, err)
	assert.Equal(t, "00042", next.ID)
	assert.Equal(t, fixtures.Now, next.CreatedAt)
}

func TestCreateRejectsDuplicatesAndBlankNames(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCustomerRequest{ID: "AB12345", Name: "Alice"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateCustomerRequest{ID: "AB12345", Name: "Other"})
	require.ErrorIs(t, err, ledger.ErrDuplicateCustomer)

	_, err = svc.Create(ctx, CreateCustomerRequest{Name: "   "})
	require.ErrorIs(t, err, ledger.ErrInvalidValue)
	_, err = svc.Create(ctx, CreateCustomerRequest{Name: "Eve", Email: "not-an-email"})
	require.ErrorIs(t, err, ledger.ErrInvalidValue)
}

func TestNextNumericIDIgnoresCodes(t *testing.T) {
	assert.Equal(t, "00001", NextNumericID(nil))
	assert.Equal(t, "00008", NextNumericID([]ledger.Customer{{ID: "AB12345"}, {ID: "00007"}, {ID: "12A"}}))
	assert.Equal(t, "123457", NextNumericID([]ledger.Customer{{ID: "123456"}}))
}

func TestUpdateKeepsID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, CreateCustomerRequest{ID: "AB12345", Name: "Alice"})
	require.NoError(t, err)

	surname := "Baker"
	updated, err := svc.Update(ctx, c.ID, UpdateCustomerRequest{Surname: &surname})
	require.NoError(t, err)
	assert.Equal(t, "Alice Baker", updated.DisplayName())

	blank := " "
	_, err = svc.Update(ctx, c.ID, UpdateCustomerRequest{Name: &blank})
	require.ErrorIs(t, err, ledger.ErrInvalidValue)
	_, err = svc.Update(ctx, "missing", UpdateCustomerRequest{Surname: &surname})
	require.ErrorIs(t, err, ledger.ErrCustomerNotFound)
}

func TestListSearchesAndPages(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, name := range []string{"Alice", "Bob", "Alina", "Carl"} {
		_, err := svc.Create(ctx, CreateCustomerRequest{Name: name})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, ListCustomersRequest{Search: "ali"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = svc.List(ctx, ListCustomersRequest{Page: 2, PerPage: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "00004", page.Items[0].ID)
	assert.Equal(t, 2, page.Pagination.TotalPages)
}

func TestDeleteDetachesDocuments(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	fixtures.Customer(t, store, fixtures.Alice)

	var invoiceID, activityID int64
	require.NoError(t, store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		invoiceID, err = tx.InsertInvoice(ctx, ledger.Invoice{
			Number:     "ALAB12345",
			CustomerID: ledger.StringPtr(fixtures.Alice.ID),
			Status:     ledger.InvoiceDraft,
		})
		if err != nil {
			return err
		}
		activityID, err = tx.InsertActivity(ctx, ledger.Activity{
			CustomerID:  ledger.StringPtr(fixtures.Alice.ID),
			Description: "Panel cleaning",
			Status:      ledger.ActivityScheduled,
			Date:        fixtures.Now,
			Currency:    ledger.CurrencyUSD,
		})
		return err
	}))

	require.NoError(t, svc.Delete(ctx, fixtures.Alice.ID))
	_, err := svc.Get(ctx, fixtures.Alice.ID)
	require.ErrorIs(t, err, ledger.ErrCustomerNotFound)

	inv := fixtures.Invoice(t, store, invoiceID)
	assert.Nil(t, inv.CustomerID)
	assert.Equal(t, "ALAB12345", inv.Number)

	require.NoError(t, store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		a, err := tx.GetActivity(ctx, activityID)
		if err != nil {
			return err
		}
		assert.Nil(t, a.CustomerID)
		assert.Equal(t, "Panel cleaning", a.Description)
		return nil
	}))

	require.ErrorIs(t, svc.Delete(ctx, fixtures.Alice.ID), ledger.ErrCustomerNotFound)
}
