// Package numbering derives human-readable document numbers from the customer
// a document is issued to.
package numbering

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bizledger/bizledger/internal/ledger"
)

// MaxAttempts bounds how often a unit of work is replayed after another
// writer took the number it generated.
const MaxAttempts = 3

const fallbackPrefix = "XX"

var upper = cases.Upper(language.Und)

// Prefix returns the first two letters of name upper-cased, or XX when name is blank.
func Prefix(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallbackPrefix
	}
	if utf8.RuneCountInString(name) > 2 {
		runes := []rune(name)
		name = string(runes[:2])
	}
	return upper.String(name)
}

// Base is the number given to the first document of a kind for the customer.
func Base(c ledger.Customer) string {
	return Prefix(c.Name) + c.ID
}

// Generate returns the next free number of kind for customer inside tx. The
// first document gets the base; later ones get the base followed by the count
// of existing documents of that kind for the customer, advanced past any
// number that is already in use.
func Generate(ctx context.Context, tx ledger.NumberingTx, c ledger.Customer, kind ledger.DocumentKind) (string, error) {
	count, err := tx.CountDocuments(ctx, kind, c.ID)
	if err != nil {
		return "", fmt.Errorf("count documents: %w", err)
	}
	return Next(ctx, tx, kind, Base(c), count)
}

// Next returns the first free number of kind among base (when start is 0)
// and base followed by start, start+1 and so on.
func Next(ctx context.Context, tx ledger.NumberingTx, kind ledger.DocumentKind, base string, start int) (string, error) {
	for n := start; ; n++ {
		candidate := base
		if n > 0 {
			candidate = base + strconv.Itoa(n)
		}
		taken, err := tx.DocumentNumberExists(ctx, kind, candidate)
		if err != nil {
			return "", fmt.Errorf("check document number: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
}

// Run executes fn in a fresh unit of work, replaying it while the store
// reports a duplicate document number.
func Run(ctx context.Context, store ledger.Store, fn func(context.Context, ledger.Tx) error) error {
	return ledger.RunWithRetry(ctx, store, MaxAttempts, ledger.ErrDuplicateDocumentNumber, fn)
}
