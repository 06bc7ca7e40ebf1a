// Package activities records the jobs done for customers: installations,
// maintenance visits and the like.
package activities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizledger/bizledger/internal/ledger"
)

// Service manages customer activities.
type Service struct {
	store    ledger.Store
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
	return &Service{store: store, now: cfg.Now, observer: cfg.Observer}
}

// Create records an activity. Status defaults to SCHEDULED and the date to now.
func (s *Service) Create(ctx context.Context, req CreateActivityRequest) (a ledger.Activity, err error) {
	defer func() { s.observer.Observe("activities.create", err) }()
	req.Description = strings.TrimSpace(req.Description)
	if err := ledger.Validate(req); err != nil {
		return ledger.Activity{}, err
	}
	status, err := ledger.ParseActivityStatus(req.Status)
	if err != nil {
		return ledger.Activity{}, err
	}
	currency, err := ledger.ParseCurrency(req.Currency)
	if err != nil {
		return ledger.Activity{}, err
	}
	cost, err := checkCost(req.TotalCost)
	if err != nil {
		return ledger.Activity{}, err
	}
	now := s.now().UTC()
	a = ledger.Activity{
		CustomerID:     req.CustomerID,
		ActivityTypeID: req.ActivityTypeID,
		Description:    req.Description,
		Status:         status,
		Date:           now,
		Technician:     strings.TrimSpace(req.Technician),
		TotalCost:      cost,
		Currency:       currency,
		Notes:          req.Notes,
		CreatedAt:      now,
	}
	if req.Date != nil {
		a.Date = req.Date.UTC()
	}
	markCompleted(&a, now)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		id, err := tx.InsertActivity(ctx, a)
		if err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}
		a.ID = id
		return nil
	})
	if err != nil {
		return ledger.Activity{}, err
	}
	return a, nil
}

// Update changes the fields set in req. Moving to COMPLETED stamps the
// completion time once.
func (s *Service) Update(ctx context.Context, id int64, req UpdateActivityRequest) (a ledger.Activity, err error) {
	defer func() { s.observer.Observe("activities.update", err) }()
	if err := ledger.Validate(req); err != nil {
		return ledger.Activity{}, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		current, err := tx.GetActivityForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.CustomerID != nil {
			current.CustomerID = req.CustomerID
		}
		if req.ActivityTypeID != nil {
			current.ActivityTypeID = req.ActivityTypeID
		}
		if req.Description != nil {
			current.Description = strings.TrimSpace(*req.Description)
			if current.Description == "" {
				return fmt.Errorf("%w: description is required", ledger.ErrInvalidValue)
			}
		}
		if req.Status != nil {
			if current.Status, err = ledger.ParseActivityStatus(*req.Status); err != nil {
				return err
			}
		}
		if req.Date != nil {
			current.Date = req.Date.UTC()
		}
		if req.Technician != nil {
			current.Technician = strings.TrimSpace(*req.Technician)
		}
		if req.TotalCost != nil {
			if current.TotalCost, err = checkCost(*req.TotalCost); err != nil {
				return err
			}
		}
		if req.Currency != nil {
			if current.Currency, err = ledger.ParseCurrency(*req.Currency); err != nil {
				return err
			}
		}
		if req.Notes != nil {
			current.Notes = *req.Notes
		}
		markCompleted(&current, s.now().UTC())
		if err := tx.UpdateActivity(ctx, current); err != nil {
			return fmt.Errorf("update activity: %w", err)
		}
		a = current
		return nil
	})
	return a, err
}

func (s *Service) Get(ctx context.Context, id int64) (a ledger.Activity, err error) {
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		a, err = tx.GetActivity(ctx, id)
		return err
	})
	return a, err
}

func (s *Service) List(ctx context.Context, req ListActivitiesRequest) (out []ledger.Activity, err error) {
	filter := ledger.ActivityFilter{CustomerID: strings.TrimSpace(req.CustomerID)}
	if req.Status != "" {
		if filter.Status, err = ledger.ParseActivityStatus(req.Status); err != nil {
			return nil, err
		}
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		out, err = tx.ListActivities(ctx, filter)
		return err
	})
	return out, err
}

func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.observer.Observe("activities.delete", err) }()
	return s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.DeleteActivity(ctx, id)
	})
}

func checkCost(cost decimal.Decimal) (decimal.Decimal, error) {
	cost = cost.Round(2)
	if cost.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: total cost must not be negative", ledger.ErrInvalidValue)
	}
	return cost, nil
}

func markCompleted(a *ledger.Activity, now time.Time) {
	if a.Status == ledger.ActivityCompleted && a.CompletedAt == nil {
		a.CompletedAt = &now
	}
}
