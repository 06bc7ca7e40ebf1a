// Package finance books manual income and expenses and reports profit over
// the financial records and invoice costs.
package finance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/platform/cache"
)

// Service handles financial records and the cached summary.
type Service struct {
	store    ledger.Store
	cache    *cache.Versioned
	logger   *slog.Logger
	now      func() time.Time
	observer ledger.Observer
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// Cache holds summaries. Nil computes every summary from the store.
	Cache    *cache.Versioned
	Logger   *slog.Logger
	Now      func() time.Time
	Observer ledger.Observer
}

// NewService builds Service instance.
func NewService(store ledger.Store, cfg ServiceConfig) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = ledger.NopObserver{}
	}
	return &Service{store: store, cache: cfg.Cache, logger: cfg.Logger, now: cfg.Now, observer: cfg.Observer}
}

// Record books a manual entry. Expenses must use a known category.
func (s *Service) Record(ctx context.Context, req RecordEntryRequest) (rec ledger.FinancialRecord, err error) {
	defer func() { s.observer.Observe("finance.record", err) }()
	req.Category = strings.TrimSpace(req.Category)
	if err := ledger.Validate(req); err != nil {
		return ledger.FinancialRecord{}, err
	}
	typ, err := ledger.ParseFinancialType(req.Type)
	if err != nil {
		return ledger.FinancialRecord{}, err
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return ledger.FinancialRecord{}, fmt.Errorf("%w: got %s", ledger.ErrInvalidAmount, req.Amount.String())
	}
	date := s.now().UTC()
	if req.Date != nil {
		date = req.Date.UTC()
	}
	rec = ledger.FinancialRecord{
		Type:        typ,
		Category:    req.Category,
		Description: req.Description,
		Amount:      amount,
		Date:        date,
		Notes:       req.Notes,
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if typ == ledger.Expense {
			if err := requireCategory(ctx, tx, typ, req.Category); err != nil {
				return err
			}
		}
		id, err := tx.InsertFinancialRecord(ctx, rec)
		if err != nil {
			return fmt.Errorf("insert financial record: %w", err)
		}
		rec.ID = id
		return nil
	})
	if err != nil {
		return ledger.FinancialRecord{}, err
	}
	s.Invalidate(ctx)
	return rec, nil
}

// Delete removes a manual entry. Entries booked by a payment stay until the
// payment itself is removed.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.observer.Observe("finance.delete", err) }()
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		rec, err := tx.GetFinancialRecord(ctx, id)
		if err != nil {
			return err
		}
		if rec.PaymentID != nil {
			return fmt.Errorf("%w: record %d belongs to payment %d", ledger.ErrRecordLocked, id, *rec.PaymentID)
		}
		return tx.DeleteFinancialRecord(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

// CreateCategory adds a category for manual entries.
func (s *Service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (cat ledger.FinancialCategory, err error) {
	defer func() { s.observer.Observe("finance.create_category", err) }()
	req.Name = strings.TrimSpace(req.Name)
	if err := ledger.Validate(req); err != nil {
		return ledger.FinancialCategory{}, err
	}
	typ, err := ledger.ParseFinancialType(req.Type)
	if err != nil {
		return ledger.FinancialCategory{}, err
	}
	cat = ledger.FinancialCategory{Name: req.Name, Type: typ, Description: req.Description, CreatedAt: s.now().UTC()}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		id, err := tx.InsertFinancialCategory(ctx, cat)
		if err != nil {
			return fmt.Errorf("insert financial category: %w", err)
		}
		cat.ID = id
		return nil
	})
	if err != nil {
		return ledger.FinancialCategory{}, err
	}
	return cat, nil
}

// ListCategories returns categories of typ, or all of them when typ is empty.
func (s *Service) ListCategories(ctx context.Context, typ string) (out []ledger.FinancialCategory, err error) {
	var parsed ledger.FinancialType
	if typ != "" {
		if parsed, err = ledger.ParseFinancialType(typ); err != nil {
			return nil, err
		}
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		out, err = tx.ListFinancialCategories(ctx, parsed)
		return err
	})
	return out, err
}

// DeleteCategory removes a category. Records already booked under it keep
// their category name.
func (s *Service) DeleteCategory(ctx context.Context, id int64) (err error) {
	defer func() { s.observer.Observe("finance.delete_category", err) }()
	return s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.DeleteFinancialCategory(ctx, id)
	})
}

func requireCategory(ctx context.Context, tx ledger.Tx, typ ledger.FinancialType, name string) error {
	cats, err := tx.ListFinancialCategories(ctx, typ)
	if err != nil {
		return fmt.Errorf("list financial categories: %w", err)
	}
	for _, c := range cats {
		if c.Name == name {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown %s category %q", ledger.ErrInvalidValue, strings.ToLower(string(typ)), name)
}

// List returns financial records matching req.
func (s *Service) List(ctx context.Context, req ListEntriesRequest) (out []ledger.FinancialRecord, err error) {
	filter := ledger.FinancialFilter{From: req.From, To: req.To}
	if req.Type != "" {
		if filter.Type, err = ledger.ParseFinancialType(req.Type); err != nil {
			return nil, err
		}
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		out, err = tx.ListFinancialRecords(ctx, filter)
		return err
	})
	return out, err
}

// Summary reports income, expense and gross profit over [from, to). A zero
// range selects the current calendar month.
func (s *Service) Summary(ctx context.Context, from, to time.Time) (Summary, error) {
	switch {
	case from.IsZero() && to.IsZero():
		from, to = MonthRange(s.now())
	case from.IsZero() || to.IsZero():
		return Summary{}, fmt.Errorf("%w: summary range needs both bounds", ledger.ErrInvalidValue)
	}
	if !to.After(from) {
		return Summary{}, fmt.Errorf("%w: summary range must end after it starts", ledger.ErrInvalidValue)
	}
	from, to = from.UTC(), to.UTC()
	key, err := s.cache.BuildKey(ctx, "summary", from.Format(time.RFC3339), to.Format(time.RFC3339))
	if err != nil {
		s.logger.Warn("finance summary cache unavailable", slog.Any("error", err))
		return s.compute(ctx, from, to)
	}
	result, err, _ := singleflightBuild(ctx, key, func(ctx context.Context) (any, error) {
		var sum Summary
		err := s.cache.FetchJSON(ctx, key, &sum, func(ctx context.Context) (any, error) {
			return s.compute(ctx, from, to)
		})
		return sum, err
	})
	if err != nil {
		return Summary{}, err
	}
	return result.(Summary), nil
}

// Invalidate drops cached summaries. Failures are logged and otherwise ignored
// so a committed write never reports an error because of the cache.
func (s *Service) Invalidate(ctx context.Context) {
	if _, err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("finance summary cache bump failed", slog.Any("error", err))
	}
}

func (s *Service) compute(ctx context.Context, from, to time.Time) (Summary, error) {
	sum := Summary{
		From: from, To: to,
		Income: decimal.Zero, SalesIncome: decimal.Zero, Expense: decimal.Zero,
		ByCategory: map[string]decimal.Decimal{},
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		records, err := tx.ListFinancialRecords(ctx, ledger.FinancialFilter{From: from, To: to})
		if err != nil {
			return fmt.Errorf("list financial records: %w", err)
		}
		for _, r := range records {
			switch r.Type {
			case ledger.Income:
				sum.Income = sum.Income.Add(r.Amount)
				if r.Category == ledger.CategorySales {
					sum.SalesIncome = sum.SalesIncome.Add(r.Amount)
				}
			case ledger.Expense:
				sum.Expense = sum.Expense.Add(r.Amount)
			}
			sum.ByCategory[r.Category] = sum.ByCategory[r.Category].Add(r.Amount)
		}
		sum.CostOfGoods, err = tx.CostOfGoods(ctx, from, to)
		if err != nil {
			return fmt.Errorf("cost of goods: %w", err)
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	sum.Net = sum.Income.Sub(sum.Expense)
	sum.GrossProfit = sum.SalesIncome.Sub(sum.CostOfGoods)
	return sum, nil
}

// MonthRange returns the first instant of t's month and of the month after, in UTC.
func MonthRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
