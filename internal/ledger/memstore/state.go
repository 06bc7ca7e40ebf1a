package memstore

import (
	"maps"
	"slices"

	"github.com/bizledger/bizledger/internal/ledger"
)

type state struct {
	customers      map[string]ledger.Customer
	activityTypes  map[int64]ledger.ActivityType
	activities     map[int64]ledger.Activity
	suppliers      map[int64]ledger.Supplier
	items          map[int64]ledger.InventoryItem
	stockTxns      []ledger.StockTransaction
	quotations     map[int64]ledger.Quotation
	quotationItems map[int64][]ledger.QuotationItem
	invoices       map[int64]ledger.Invoice
	invoiceItems   map[int64][]ledger.InvoiceItem
	payments       map[int64]ledger.Payment
	records        []ledger.FinancialRecord
	categories     map[int64]ledger.FinancialCategory
	seq            map[string]int64
}

// newState starts with the default expense categories, like a migrated database.
func newState() *state {
	s := &state{
		customers:      make(map[string]ledger.Customer),
		activityTypes:  make(map[int64]ledger.ActivityType),
		activities:     make(map[int64]ledger.Activity),
		suppliers:      make(map[int64]ledger.Supplier),
		items:          make(map[int64]ledger.InventoryItem),
		quotations:     make(map[int64]ledger.Quotation),
		quotationItems: make(map[int64][]ledger.QuotationItem),
		invoices:       make(map[int64]ledger.Invoice),
		invoiceItems:   make(map[int64][]ledger.InvoiceItem),
		payments:       make(map[int64]ledger.Payment),
		categories:     make(map[int64]ledger.FinancialCategory),
		seq:            make(map[string]int64),
	}
	for _, name := range ledger.DefaultExpenseCategories {
		id := s.next("financial_categories")
		s.categories[id] = ledger.FinancialCategory{ID: id, Name: name, Type: ledger.Expense}
	}
	return s
}

// clone copies every collection. Records are values, so replacing an entry in
// the copy never shows through to the original.
func (s *state) clone() *state {
	c := &state{
		customers:      maps.Clone(s.customers),
		activityTypes:  maps.Clone(s.activityTypes),
		activities:     maps.Clone(s.activities),
		suppliers:      maps.Clone(s.suppliers),
		items:          maps.Clone(s.items),
		stockTxns:      slices.Clone(s.stockTxns),
		quotations:     maps.Clone(s.quotations),
		quotationItems: make(map[int64][]ledger.QuotationItem, len(s.quotationItems)),
		invoices:       maps.Clone(s.invoices),
		invoiceItems:   make(map[int64][]ledger.InvoiceItem, len(s.invoiceItems)),
		payments:       maps.Clone(s.payments),
		records:        slices.Clone(s.records),
		categories:     maps.Clone(s.categories),
		seq:            maps.Clone(s.seq),
	}
	for id, lines := range s.quotationItems {
		c.quotationItems[id] = slices.Clone(lines)
	}
	for id, lines := range s.invoiceItems {
		c.invoiceItems[id] = slices.Clone(lines)
	}
	return c
}

func (s *state) next(name string) int64 {
	s.seq[name]++
	return s.seq[name]
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := slices.Collect(maps.Keys(m))
	slices.Sort(keys)
	return keys
}
