package activities

import (
	"context"
	"errors"
	"testing"
	"time"

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
}

func setup(t *testing.T) *env {
	t.Helper()
	store := memstore.New()
	fixtures.Customer(t, store, fixtures.Alice)
	now := fixtures.Now
	return &env{store: store, svc: NewService(store, ServiceConfig{Now: fixtures.Clock(&now)}), clock: &now}
}

func TestCreateDefaults(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	a, err := e.svc.Create(ctx, CreateActivityRequest{
		CustomerID:  ledger.StringPtr(fixtures.Alice.ID),
		Description: "  Panel cleaning ",
		TotalCost:   fixtures.Dec("45.505"),
	})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.Equal(t, "Panel cleaning", a.Description)
	assert.Equal(t, ledger.ActivityScheduled, a.Status)
	assert.Equal(t, ledger.CurrencyUSD, a.Currency)
	assert.Equal(t, fixtures.Now, a.Date)
	assert.Equal(t, "45.51", a.TotalCost.StringFixed(2))
	assert.Nil(t, a.CompletedAt)

	done, err := e.svc.Create(ctx, CreateActivityRequest{Description: "Inverter swap", Status: "completed"})
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, fixtures.Now, *done.CompletedAt)
	assert.Nil(t, done.CustomerID)
}

func TestCreateValidation(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, CreateActivityRequest{Description: " "})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)
	_, err = e.svc.Create(ctx, CreateActivityRequest{Description: "x", Status: "POSTPONED"})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)
	_, err = e.svc.Create(ctx, CreateActivityRequest{Description: "x", TotalCost: fixtures.Dec("-1")})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)
	_, err = e.svc.Create(ctx, CreateActivityRequest{Description: "x", CustomerID: ledger.StringPtr("ZZ00000")})
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)
	_, err = e.svc.Create(ctx, CreateActivityRequest{Description: "x", ActivityTypeID: ledger.Int64Ptr(9)})
	assert.ErrorIs(t, err, ledger.ErrActivityTypeNotFound)

	all, err := e.svc.List(ctx, ListActivitiesRequest{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateStampsCompletionOnce(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a, err := e.svc.Create(ctx, CreateActivityRequest{Description: "Install", Technician: "Sam"})
	require.NoError(t, err)

	inProgress := "IN_PROGRESS"
	a, err = e.svc.Update(ctx, a.ID, UpdateActivityRequest{Status: &inProgress})
	require.NoError(t, err)
	assert.Nil(t, a.CompletedAt)

	*e.clock = fixtures.Now.Add(3 * time.Hour)
	completed := "COMPLETED"
	cost := fixtures.Dec("300")
	a, err = e.svc.Update(ctx, a.ID, UpdateActivityRequest{Status: &completed, TotalCost: &cost})
	require.NoError(t, err)
	require.NotNil(t, a.CompletedAt)
	stamped := *a.CompletedAt
	assert.Equal(t, fixtures.Now.Add(3*time.Hour), stamped)
	assert.Equal(t, "Sam", a.Technician)

	*e.clock = fixtures.Now.Add(24 * time.Hour)
	notes := "Customer signed off"
	a, err = e.svc.Update(ctx, a.ID, UpdateActivityRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, stamped, *a.CompletedAt)

	blank := " "
	_, err = e.svc.Update(ctx, a.ID, UpdateActivityRequest{Description: &blank})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)
	_, err = e.svc.Update(ctx, 999, UpdateActivityRequest{Notes: &notes})
	assert.ErrorIs(t, err, ledger.ErrActivityNotFound)

	got, err := e.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Install", got.Description)
	assert.Equal(t, "300.00", got.TotalCost.StringFixed(2))
}

func TestListFiltersAndDelete(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	alice := ledger.StringPtr(fixtures.Alice.ID)
	first, err := e.svc.Create(ctx, CreateActivityRequest{CustomerID: alice, Description: "Survey"})
	require.NoError(t, err)
	_, err = e.svc.Create(ctx, CreateActivityRequest{CustomerID: alice, Description: "Install", Status: "COMPLETED"})
	require.NoError(t, err)
	_, err = e.svc.Create(ctx, CreateActivityRequest{Description: "Stock count"})
	require.NoError(t, err)

	mine, err := e.svc.List(ctx, ListActivitiesRequest{CustomerID: fixtures.Alice.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	done, err := e.svc.List(ctx, ListActivitiesRequest{Status: "completed"})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "Install", done[0].Description)

	_, err = e.svc.List(ctx, ListActivitiesRequest{Status: "LATE"})
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)

	require.NoError(t, e.svc.Delete(ctx, first.ID))
	assert.ErrorIs(t, e.svc.Delete(ctx, first.ID), ledger.ErrActivityNotFound)
	_, err = e.svc.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ledger.ErrActivityNotFound)
}

func TestFailedInsertLeavesNothing(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.store.FailNext("InsertActivity", errors.New("disk full"))

	_, err := e.svc.Create(ctx, CreateActivityRequest{Description: "Survey"})
	require.Error(t, err)

	all, err := e.svc.List(ctx, ListActivitiesRequest{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
