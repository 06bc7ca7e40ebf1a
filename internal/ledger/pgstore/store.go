// Package pgstore is the PostgreSQL ledger.Store. Every unit of work runs in
// one read-committed transaction; writers serialise on FOR UPDATE row locks.
package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/platform/db"
)

// Store persists the ledger in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ ledger.Store = (*Store)(nil)

// New constructs Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithTx runs fn inside a transaction that commits only when fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, ledger.Tx) error) error {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Tx{tx: tx})
	})
	if err != nil && ctx.Err() == nil {
		return ledger.Persistence("transaction", err)
	}
	return err
}

// Tx is the handle passed to a unit of work.
type Tx struct {
	tx pgx.Tx
}

var _ ledger.Tx = (*Tx)(nil)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

var uniqueConstraints = map[string]error{
	"customers_pkey":                ledger.ErrDuplicateCustomer,
	"quotations_number_key":         ledger.ErrDuplicateDocumentNumber,
	"invoices_number_key":           ledger.ErrDuplicateDocumentNumber,
	"payments_transaction_id_key":   ledger.ErrDuplicateTransactionID,
	"activity_types_name_key":       ledger.ErrInvalidValue,
	"financial_categories_name_key": ledger.ErrInvalidValue,
}

// translate maps driver failures onto the ledger taxonomy. parents names the
// error to report when a foreign key of the written row points nowhere.
func translate(op string, err error, parents map[string]error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			if target, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
				return target
			}
		case codeForeignKeyViolation:
			if target, ok := parents[pgErr.ConstraintName]; ok {
				return target
			}
		}
	}
	return ledger.Persistence(op, err)
}

// one maps a missing row onto notFound.
func one(op string, err error, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return translate(op, err, nil)
}

// affected reports notFound when a write touched no row.
func affected(op string, tag pgconn.CommandTag, err error, notFound error) error {
	if err != nil {
		return translate(op, err, nil)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
