// Package memstore is an in-process ledger.Store. Units of work are
// serialised by a store-wide mutex, run against a private copy of the state
// and swapped in on commit.
package memstore

import (
	"context"
	"sync"

	"github.com/bizledger/bizledger/internal/ledger"
)

// Store keeps the ledger in memory.
type Store struct {
	mu       sync.Mutex
	st       *state
	failures map[string][]error
}

var _ ledger.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(), failures: make(map[string][]error)}
}

// WithTx runs fn against a snapshot and publishes it only when fn succeeds.
// fn must not start another unit of work on the same store.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &Tx{store: s, st: s.st.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

// FailNext queues errors returned by the next calls of op, one per call.
// Errors outside the ledger taxonomy surface as persistence failures.
func (s *Store) FailNext(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], errs...)
}

// takeFailure runs with s.mu held by WithTx.
func (s *Store) takeFailure(op string) error {
	queue := s.failures[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	s.failures[op] = queue[1:]
	return ledger.Persistence(op, err)
}
