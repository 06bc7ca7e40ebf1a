package customers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/shared"
)

type Service struct {
	store ledger.Store
	now   func() time.Time
}

func NewService(store ledger.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// Create registers a customer. Without an explicit id the customer gets the
// next five-digit numeric id after the largest numeric id in use.
func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (c ledger.Customer, err error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if err := ledger.Validate(req); err != nil {
		return ledger.Customer{}, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		id := req.ID
		if id == "" {
			existing, err := tx.ListCustomers(ctx)
			if err != nil {
				return fmt.Errorf("list customers: %w", err)
			}
			id = NextNumericID(existing)
		}
		c = ledger.Customer{
			ID:          id,
			Name:        req.Name,
			Surname:     strings.TrimSpace(req.Surname),
			Citizenship: req.Citizenship,
			Address:     req.Address,
			Phone:       req.Phone,
			Email:       req.Email,
			CreatedAt:   s.now().UTC(),
		}
		if err := tx.InsertCustomer(ctx, c); err != nil {
			return fmt.Errorf("insert customer %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return ledger.Customer{}, err
	}
	return c, nil
}

// NextNumericID returns the zero-padded successor of the largest all-digit id.
func NextNumericID(existing []ledger.Customer) string {
	highest := 0
	for _, c := range existing {
		if c.ID == "" || strings.Trim(c.ID, "0123456789") != "" {
			continue
		}
		n, err := strconv.Atoi(c.ID)
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}
	return fmt.Sprintf("%05d", highest+1)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateCustomerRequest) (c ledger.Customer, err error) {
	if err := ledger.Validate(req); err != nil {
		return ledger.Customer{}, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		current, err := tx.GetCustomerForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			current.Name = strings.TrimSpace(*req.Name)
		}
		if req.Surname != nil {
			current.Surname = strings.TrimSpace(*req.Surname)
		}
		if req.Citizenship != nil {
			current.Citizenship = *req.Citizenship
		}
		if req.Address != nil {
			current.Address = *req.Address
		}
		if req.Phone != nil {
			current.Phone = *req.Phone
		}
		if req.Email != nil {
			current.Email = *req.Email
		}
		if current.Name == "" {
			return fmt.Errorf("%w: name is required", ledger.ErrInvalidValue)
		}
		if err := tx.UpdateCustomer(ctx, current); err != nil {
			return fmt.Errorf("update customer: %w", err)
		}
		c = current
		return nil
	})
	return c, err
}

func (s *Service) Get(ctx context.Context, id string) (c ledger.Customer, err error) {
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		c, err = tx.GetCustomer(ctx, id)
		return err
	})
	return c, err
}

// List returns one page of customers whose id, name or surname contains the search text.
func (s *Service) List(ctx context.Context, req ListCustomersRequest) (shared.Page[ledger.Customer], error) {
	if err := ledger.Validate(req); err != nil {
		return shared.Page[ledger.Customer]{}, err
	}
	var all []ledger.Customer
	err := s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		all, err = tx.ListCustomers(ctx)
		return err
	})
	if err != nil {
		return shared.Page[ledger.Customer]{}, err
	}
	needle := strings.ToLower(strings.TrimSpace(req.Search))
	matched := all[:0:0]
	for _, c := range all {
		if needle == "" || strings.Contains(strings.ToLower(c.ID+" "+c.DisplayName()), needle) {
			matched = append(matched, c)
		}
	}
	return shared.Paginate(matched, req.Page, req.PerPage), nil
}

// Delete removes a customer. Its quotations, invoices and activities stay and
// lose the reference.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if _, err := tx.GetCustomerForUpdate(ctx, id); err != nil {
			return err
		}
		if err := tx.DetachCustomer(ctx, id); err != nil {
			return fmt.Errorf("detach customer: %w", err)
		}
		if err := tx.DeleteCustomer(ctx, id); err != nil {
			return fmt.Errorf("delete customer: %w", err)
		}
		return nil
	})
}
