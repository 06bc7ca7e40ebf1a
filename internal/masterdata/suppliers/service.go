// Package suppliers keeps the vendors inventory items are bought from.
package suppliers

import (
	"context"
	"fmt"
	"time"

	"github.com/bizledger/bizledger/internal/ledger"
)

type Service struct {
	store    ledger.Store
	now      func() time.Time
	observer ledger.Observer
}

func NewService(store ledger.Store, now func() time.Time, observer ledger.Observer) *Service {
	if now == nil {
		now = time.Now
	}
	if observer == nil {
		observer = ledger.NopObserver{}
	}
	return &Service{store: store, now: now, observer: observer}
}

func (s *Service) List(ctx context.Context) (out []ledger.Supplier, err error) {
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		out, err = tx.ListSuppliers(ctx)
		return err
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, id int64) (sup ledger.Supplier, err error) {
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		sup, err = tx.GetSupplier(ctx, id)
		return err
	})
	return sup, err
}

func (s *Service) Create(ctx context.Context, in SupplierInput) (sup ledger.Supplier, err error) {
	defer func() { s.observer.Observe("suppliers.create", err) }()
	currency, err := s.validate(&in)
	if err != nil {
		return ledger.Supplier{}, err
	}
	sup = fromInput(in, currency)
	sup.CreatedAt = s.now().UTC()
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		id, err := tx.InsertSupplier(ctx, sup)
		if err != nil {
			return fmt.Errorf("insert supplier: %w", err)
		}
		sup.ID = id
		return nil
	})
	if err != nil {
		return ledger.Supplier{}, err
	}
	return sup, nil
}

func (s *Service) Update(ctx context.Context, id int64, in SupplierInput) (sup ledger.Supplier, err error) {
	defer func() { s.observer.Observe("suppliers.update", err) }()
	currency, err := s.validate(&in)
	if err != nil {
		return ledger.Supplier{}, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		current, err := tx.GetSupplier(ctx, id)
		if err != nil {
			return err
		}
		sup = fromInput(in, currency)
		sup.ID = id
		sup.CreatedAt = current.CreatedAt
		if err := tx.UpdateSupplier(ctx, sup); err != nil {
			return fmt.Errorf("update supplier: %w", err)
		}
		return nil
	})
	if err != nil {
		return ledger.Supplier{}, err
	}
	return sup, nil
}

// Delete removes a supplier. Items bought from it stay and lose the reference.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.observer.Observe("suppliers.delete", err) }()
	return s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if _, err := tx.GetSupplier(ctx, id); err != nil {
			return err
		}
		if err := tx.DetachSupplier(ctx, id); err != nil {
			return fmt.Errorf("detach supplier: %w", err)
		}
		if err := tx.DeleteSupplier(ctx, id); err != nil {
			return fmt.Errorf("delete supplier: %w", err)
		}
		return nil
	})
}

func fromInput(in SupplierInput, currency ledger.Currency) ledger.Supplier {
	return ledger.Supplier{
		Name:          in.Name,
		ContactPerson: in.ContactPerson,
		Phone:         in.Phone,
		Email:         in.Email,
		Address:       in.Address,
		PaymentTerms:  in.PaymentTerms,
		Currency:      currency,
		Notes:         in.Notes,
	}
}
