package memstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizledger/bizledger/internal/ledger"
)

// Tx is the handle passed to a unit of work.
type Tx struct {
	store *Store
	st    *state
}

var _ ledger.Tx = (*Tx)(nil)

func (tx *Tx) fail(op string) error {
	return tx.store.takeFailure(op)
}

// Customers.

func (tx *Tx) GetCustomer(_ context.Context, id string) (ledger.Customer, error) {
	if err := tx.fail("GetCustomer"); err != nil {
		return ledger.Customer{}, err
	}
	c, ok := tx.st.customers[id]
	if !ok {
		return ledger.Customer{}, ledger.ErrCustomerNotFound
	}
	return c, nil
}

func (tx *Tx) GetCustomerForUpdate(ctx context.Context, id string) (ledger.Customer, error) {
	return tx.GetCustomer(ctx, id)
}

func (tx *Tx) ListCustomers(_ context.Context) ([]ledger.Customer, error) {
	out := make([]ledger.Customer, 0, len(tx.st.customers))
	for _, c := range tx.st.customers {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b ledger.Customer) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (tx *Tx) InsertCustomer(_ context.Context, c ledger.Customer) error {
	if err := tx.fail("InsertCustomer"); err != nil {
		return err
	}
	if _, exists := tx.st.customers[c.ID]; exists {
		return ledger.ErrDuplicateCustomer
	}
	tx.st.customers[c.ID] = c
	return nil
}

func (tx *Tx) UpdateCustomer(_ context.Context, c ledger.Customer) error {
	current, ok := tx.st.customers[c.ID]
	if !ok {
		return ledger.ErrCustomerNotFound
	}
	c.CreatedAt = current.CreatedAt
	tx.st.customers[c.ID] = c
	return nil
}

func (tx *Tx) DetachCustomer(_ context.Context, id string) error {
	for qid, q := range tx.st.quotations {
		if q.CustomerID != nil && *q.CustomerID == id {
			q.CustomerID = nil
			tx.st.quotations[qid] = q
		}
	}
	for iid, inv := range tx.st.invoices {
		if inv.CustomerID != nil && *inv.CustomerID == id {
			inv.CustomerID = nil
			tx.st.invoices[iid] = inv
		}
	}
	for aid, a := range tx.st.activities {
		if a.CustomerID != nil && *a.CustomerID == id {
			a.CustomerID = nil
			tx.st.activities[aid] = a
		}
	}
	return nil
}

func (tx *Tx) DeleteCustomer(_ context.Context, id string) error {
	if _, ok := tx.st.customers[id]; !ok {
		return ledger.ErrCustomerNotFound
	}
	delete(tx.st.customers, id)
	return nil
}

func (tx *Tx) GetActivityType(_ context.Context, id int64) (ledger.ActivityType, error) {
	at, ok := tx.st.activityTypes[id]
	if !ok {
		return ledger.ActivityType{}, ledger.ErrActivityTypeNotFound
	}
	return at, nil
}

func (tx *Tx) ListActivityTypes(_ context.Context) ([]ledger.ActivityType, error) {
	out := make([]ledger.ActivityType, 0, len(tx.st.activityTypes))
	for _, id := range sortedKeys(tx.st.activityTypes) {
		out = append(out, tx.st.activityTypes[id])
	}
	return out, nil
}

func (tx *Tx) InsertActivityType(_ context.Context, name string) (int64, error) {
	for _, at := range tx.st.activityTypes {
		if at.Name == name {
			return 0, fmt.Errorf("%w: activity type %q exists", ledger.ErrInvalidValue, name)
		}
	}
	id := tx.st.next("activity_types")
	tx.st.activityTypes[id] = ledger.ActivityType{ID: id, Name: name}
	return id, nil
}

func (tx *Tx) DetachActivityType(_ context.Context, id int64) error {
	for aid, a := range tx.st.activities {
		if a.ActivityTypeID != nil && *a.ActivityTypeID == id {
			a.ActivityTypeID = nil
			tx.st.activities[aid] = a
		}
	}
	for iid, inv := range tx.st.invoices {
		if inv.ActivityTypeID != nil && *inv.ActivityTypeID == id {
			inv.ActivityTypeID = nil
			tx.st.invoices[iid] = inv
		}
	}
	return nil
}

func (tx *Tx) DeleteActivityType(_ context.Context, id int64) error {
	if _, ok := tx.st.activityTypes[id]; !ok {
		return ledger.ErrActivityTypeNotFound
	}
	delete(tx.st.activityTypes, id)
	return nil
}

// Activities.

func (tx *Tx) InsertActivity(_ context.Context, a ledger.Activity) (int64, error) {
	if err := tx.fail("InsertActivity"); err != nil {
		return 0, err
	}
	if err := tx.checkActivityRefs(a); err != nil {
		return 0, err
	}
	a.ID = tx.st.next("activities")
	tx.st.activities[a.ID] = a
	return a.ID, nil
}

func (tx *Tx) checkActivityRefs(a ledger.Activity) error {
	if a.CustomerID != nil {
		if _, ok := tx.st.customers[*a.CustomerID]; !ok {
			return ledger.ErrCustomerNotFound
		}
	}
	if a.ActivityTypeID != nil {
		if _, ok := tx.st.activityTypes[*a.ActivityTypeID]; !ok {
			return ledger.ErrActivityTypeNotFound
		}
	}
	return nil
}

func (tx *Tx) GetActivity(_ context.Context, id int64) (ledger.Activity, error) {
	a, ok := tx.st.activities[id]
	if !ok {
		return ledger.Activity{}, ledger.ErrActivityNotFound
	}
	return a, nil
}

func (tx *Tx) GetActivityForUpdate(ctx context.Context, id int64) (ledger.Activity, error) {
	return tx.GetActivity(ctx, id)
}

func (tx *Tx) ListActivities(_ context.Context, filter ledger.ActivityFilter) ([]ledger.Activity, error) {
	var out []ledger.Activity
	for _, id := range sortedKeys(tx.st.activities) {
		a := tx.st.activities[id]
		if filter.CustomerID != "" && (a.CustomerID == nil || *a.CustomerID != filter.CustomerID) {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (tx *Tx) UpdateActivity(_ context.Context, a ledger.Activity) error {
	if err := tx.fail("UpdateActivity"); err != nil {
		return err
	}
	current, ok := tx.st.activities[a.ID]
	if !ok {
		return ledger.ErrActivityNotFound
	}
	if err := tx.checkActivityRefs(a); err != nil {
		return err
	}
	a.CreatedAt = current.CreatedAt
	tx.st.activities[a.ID] = a
	return nil
}

func (tx *Tx) DeleteActivity(_ context.Context, id int64) error {
	if _, ok := tx.st.activities[id]; !ok {
		return ledger.ErrActivityNotFound
	}
	delete(tx.st.activities, id)
	return nil
}

// Suppliers.

func (tx *Tx) InsertSupplier(_ context.Context, s ledger.Supplier) (int64, error) {
	if err := tx.fail("InsertSupplier"); err != nil {
		return 0, err
	}
	s.ID = tx.st.next("suppliers")
	tx.st.suppliers[s.ID] = s
	return s.ID, nil
}

func (tx *Tx) GetSupplier(_ context.Context, id int64) (ledger.Supplier, error) {
	s, ok := tx.st.suppliers[id]
	if !ok {
		return ledger.Supplier{}, ledger.ErrSupplierNotFound
	}
	return s, nil
}

func (tx *Tx) ListSuppliers(_ context.Context) ([]ledger.Supplier, error) {
	out := make([]ledger.Supplier, 0, len(tx.st.suppliers))
	for _, id := range sortedKeys(tx.st.suppliers) {
		out = append(out, tx.st.suppliers[id])
	}
	return out, nil
}

func (tx *Tx) UpdateSupplier(_ context.Context, s ledger.Supplier) error {
	current, ok := tx.st.suppliers[s.ID]
	if !ok {
		return ledger.ErrSupplierNotFound
	}
	s.CreatedAt = current.CreatedAt
	tx.st.suppliers[s.ID] = s
	return nil
}

func (tx *Tx) DetachSupplier(_ context.Context, id int64) error {
	for iid, item := range tx.st.items {
		if item.SupplierID != nil && *item.SupplierID == id {
			item.SupplierID = nil
			tx.st.items[iid] = item
		}
	}
	return nil
}

func (tx *Tx) DeleteSupplier(_ context.Context, id int64) error {
	if err := tx.fail("DeleteSupplier"); err != nil {
		return err
	}
	if _, ok := tx.st.suppliers[id]; !ok {
		return ledger.ErrSupplierNotFound
	}
	for _, item := range tx.st.items {
		if item.SupplierID != nil && *item.SupplierID == id {
			return ledger.Persistence("DeleteSupplier", fmt.Errorf("foreign key: supplier %d is used by item %d", id, item.ID))
		}
	}
	delete(tx.st.suppliers, id)
	return nil
}

// Inventory.

func (tx *Tx) GetItem(_ context.Context, id int64) (ledger.InventoryItem, error) {
	if err := tx.fail("GetItem"); err != nil {
		return ledger.InventoryItem{}, err
	}
	item, ok := tx.st.items[id]
	if !ok {
		return ledger.InventoryItem{}, ledger.ErrItemNotFound
	}
	return item, nil
}

func (tx *Tx) GetItemForUpdate(ctx context.Context, id int64) (ledger.InventoryItem, error) {
	return tx.GetItem(ctx, id)
}

func (tx *Tx) ListItems(_ context.Context) ([]ledger.InventoryItem, error) {
	out := make([]ledger.InventoryItem, 0, len(tx.st.items))
	for _, id := range sortedKeys(tx.st.items) {
		out = append(out, tx.st.items[id])
	}
	return out, nil
}

func (tx *Tx) InsertItem(_ context.Context, item ledger.InventoryItem) (int64, error) {
	if err := tx.fail("InsertItem"); err != nil {
		return 0, err
	}
	if err := tx.checkSupplier(item.SupplierID); err != nil {
		return 0, err
	}
	item.ID = tx.st.next("inventory_items")
	tx.st.items[item.ID] = item
	return item.ID, nil
}

func (tx *Tx) UpdateItem(_ context.Context, item ledger.InventoryItem) error {
	current, ok := tx.st.items[item.ID]
	if !ok {
		return ledger.ErrItemNotFound
	}
	if err := tx.checkSupplier(item.SupplierID); err != nil {
		return err
	}
	item.Quantity = current.Quantity
	item.CreatedAt = current.CreatedAt
	tx.st.items[item.ID] = item
	return nil
}

func (tx *Tx) checkSupplier(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := tx.st.suppliers[*id]; !ok {
		return ledger.ErrSupplierNotFound
	}
	return nil
}

func (tx *Tx) SetItemQuantity(_ context.Context, id int64, quantity int) error {
	if err := tx.fail("SetItemQuantity"); err != nil {
		return err
	}
	item, ok := tx.st.items[id]
	if !ok {
		return ledger.ErrItemNotFound
	}
	if quantity < 0 {
		return ledger.Persistence("SetItemQuantity", fmt.Errorf("check constraint: quantity %d < 0", quantity))
	}
	item.Quantity = quantity
	tx.st.items[id] = item
	return nil
}

func (tx *Tx) DeleteItem(_ context.Context, id int64) error {
	if _, ok := tx.st.items[id]; !ok {
		return ledger.ErrItemNotFound
	}
	for _, st := range tx.st.stockTxns {
		if st.ItemID == id {
			return ledger.Persistence("DeleteItem", fmt.Errorf("foreign key: item %d has stock transactions", id))
		}
	}
	delete(tx.st.items, id)
	return nil
}

func (tx *Tx) DetachItem(_ context.Context, id int64) error {
	for qid, lines := range tx.st.quotationItems {
		for i := range lines {
			if lines[i].InventoryID != nil && *lines[i].InventoryID == id {
				lines[i].InventoryID = nil
			}
		}
		tx.st.quotationItems[qid] = lines
	}
	for iid, lines := range tx.st.invoiceItems {
		for i := range lines {
			if lines[i].InventoryID != nil && *lines[i].InventoryID == id {
				lines[i].InventoryID = nil
			}
		}
		tx.st.invoiceItems[iid] = lines
	}
	return nil
}

func (tx *Tx) InsertStockTransaction(_ context.Context, st ledger.StockTransaction) (int64, error) {
	if err := tx.fail("InsertStockTransaction"); err != nil {
		return 0, err
	}
	if _, ok := tx.st.items[st.ItemID]; !ok {
		return 0, ledger.ErrItemNotFound
	}
	st.ID = tx.st.next("stock_transactions")
	tx.st.stockTxns = append(tx.st.stockTxns, st)
	return st.ID, nil
}

func (tx *Tx) ListStockTransactions(_ context.Context, filter ledger.StockTransactionFilter) ([]ledger.StockTransaction, error) {
	var out []ledger.StockTransaction
	for _, st := range tx.st.stockTxns {
		if filter.ItemID != nil && st.ItemID != *filter.ItemID {
			continue
		}
		if filter.RefID != nil && (st.Ref == nil || st.Ref.ID != *filter.RefID) {
			continue
		}
		if filter.RefType != "" && (st.Ref == nil || st.Ref.Type != filter.RefType) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (tx *Tx) DeleteStockTransactions(_ context.Context, itemID int64) error {
	tx.st.stockTxns = slices.DeleteFunc(tx.st.stockTxns, func(st ledger.StockTransaction) bool {
		return st.ItemID == itemID
	})
	return nil
}

// Numbering.

func (tx *Tx) CountDocuments(_ context.Context, kind ledger.DocumentKind, customerID string) (int, error) {
	n := 0
	switch kind {
	case ledger.KindQuotation:
		for _, q := range tx.st.quotations {
			if q.CustomerID != nil && *q.CustomerID == customerID {
				n++
			}
		}
	case ledger.KindInvoice:
		for _, inv := range tx.st.invoices {
			if inv.CustomerID != nil && *inv.CustomerID == customerID {
				n++
			}
		}
	default:
		return 0, fmt.Errorf("%w: document kind %q", ledger.ErrInvalidValue, kind)
	}
	return n, nil
}

func (tx *Tx) DocumentNumberExists(_ context.Context, kind ledger.DocumentKind, number string) (bool, error) {
	switch kind {
	case ledger.KindQuotation:
		return tx.quotationNumberTaken(number), nil
	case ledger.KindInvoice:
		return tx.invoiceNumberTaken(number), nil
	}
	return false, fmt.Errorf("%w: document kind %q", ledger.ErrInvalidValue, kind)
}

func (tx *Tx) quotationNumberTaken(number string) bool {
	for _, q := range tx.st.quotations {
		if q.Number == number {
			return true
		}
	}
	return false
}

func (tx *Tx) invoiceNumberTaken(number string) bool {
	for _, inv := range tx.st.invoices {
		if inv.Number == number {
			return true
		}
	}
	return false
}

// Quotations.

func (tx *Tx) InsertQuotation(_ context.Context, q ledger.Quotation) (int64, error) {
	if err := tx.fail("InsertQuotation"); err != nil {
		return 0, err
	}
	if tx.quotationNumberTaken(q.Number) {
		return 0, ledger.ErrDuplicateDocumentNumber
	}
	q.ID = tx.st.next("quotations")
	q.Items = nil
	tx.st.quotations[q.ID] = q
	return q.ID, nil
}

func (tx *Tx) GetQuotation(_ context.Context, id int64) (ledger.Quotation, error) {
	q, ok := tx.st.quotations[id]
	if !ok {
		return ledger.Quotation{}, ledger.ErrQuotationNotFound
	}
	return q, nil
}

func (tx *Tx) GetQuotationForUpdate(ctx context.Context, id int64) (ledger.Quotation, error) {
	return tx.GetQuotation(ctx, id)
}

func (tx *Tx) ListQuotations(_ context.Context, filter ledger.QuotationFilter) ([]ledger.Quotation, error) {
	var out []ledger.Quotation
	for _, id := range sortedKeys(tx.st.quotations) {
		q := tx.st.quotations[id]
		if filter.CustomerID != "" && (q.CustomerID == nil || *q.CustomerID != filter.CustomerID) {
			continue
		}
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (tx *Tx) UpdateQuotation(_ context.Context, q ledger.Quotation) error {
	if err := tx.fail("UpdateQuotation"); err != nil {
		return err
	}
	if _, ok := tx.st.quotations[q.ID]; !ok {
		return ledger.ErrQuotationNotFound
	}
	q.Items = nil
	tx.st.quotations[q.ID] = q
	return nil
}

func (tx *Tx) DeleteQuotation(_ context.Context, id int64) error {
	if _, ok := tx.st.quotations[id]; !ok {
		return ledger.ErrQuotationNotFound
	}
	if len(tx.st.quotationItems[id]) > 0 {
		return ledger.Persistence("DeleteQuotation", fmt.Errorf("foreign key: quotation %d has items", id))
	}
	for iid, inv := range tx.st.invoices {
		if inv.QuotationID != nil && *inv.QuotationID == id {
			inv.QuotationID = nil
			tx.st.invoices[iid] = inv
		}
	}
	delete(tx.st.quotations, id)
	delete(tx.st.quotationItems, id)
	return nil
}

func (tx *Tx) InsertQuotationItems(_ context.Context, quotationID int64, items []ledger.QuotationItem) error {
	if err := tx.fail("InsertQuotationItems"); err != nil {
		return err
	}
	if _, ok := tx.st.quotations[quotationID]; !ok {
		return ledger.ErrQuotationNotFound
	}
	for _, item := range items {
		item.ID = tx.st.next("quotation_items")
		item.QuotationID = quotationID
		tx.st.quotationItems[quotationID] = append(tx.st.quotationItems[quotationID], item)
	}
	return nil
}

func (tx *Tx) ListQuotationItems(_ context.Context, quotationID int64) ([]ledger.QuotationItem, error) {
	lines := slices.Clone(tx.st.quotationItems[quotationID])
	slices.SortFunc(lines, func(a, b ledger.QuotationItem) int { return a.Position - b.Position })
	return lines, nil
}

func (tx *Tx) DeleteQuotationItems(_ context.Context, quotationID int64) error {
	delete(tx.st.quotationItems, quotationID)
	return nil
}

// Invoices.

func (tx *Tx) InsertInvoice(_ context.Context, inv ledger.Invoice) (int64, error) {
	if err := tx.fail("InsertInvoice"); err != nil {
		return 0, err
	}
	if tx.invoiceNumberTaken(inv.Number) {
		return 0, ledger.ErrDuplicateDocumentNumber
	}
	inv.ID = tx.st.next("invoices")
	inv.Items, inv.Payments = nil, nil
	tx.st.invoices[inv.ID] = inv
	return inv.ID, nil
}

func (tx *Tx) GetInvoice(_ context.Context, id int64) (ledger.Invoice, error) {
	inv, ok := tx.st.invoices[id]
	if !ok {
		return ledger.Invoice{}, ledger.ErrInvoiceNotFound
	}
	return inv, nil
}

func (tx *Tx) GetInvoiceForUpdate(ctx context.Context, id int64) (ledger.Invoice, error) {
	return tx.GetInvoice(ctx, id)
}

func (tx *Tx) ListInvoices(_ context.Context, filter ledger.InvoiceFilter) ([]ledger.Invoice, error) {
	var out []ledger.Invoice
	for _, id := range sortedKeys(tx.st.invoices) {
		inv := tx.st.invoices[id]
		if filter.CustomerID != "" && (inv.CustomerID == nil || *inv.CustomerID != filter.CustomerID) {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.DueBefore != nil {
			open := inv.Status == ledger.InvoiceDraft || inv.Status == ledger.InvoiceSent || inv.Status == ledger.InvoicePartial
			if !open || !inv.BalanceDue.IsPositive() || inv.DueDate == nil || !inv.DueDate.Before(*filter.DueBefore) {
				continue
			}
		}
		out = append(out, inv)
	}
	return out, nil
}

func (tx *Tx) UpdateInvoice(_ context.Context, inv ledger.Invoice) error {
	if err := tx.fail("UpdateInvoice"); err != nil {
		return err
	}
	if _, ok := tx.st.invoices[inv.ID]; !ok {
		return ledger.ErrInvoiceNotFound
	}
	inv.Items, inv.Payments = nil, nil
	tx.st.invoices[inv.ID] = inv
	return nil
}

func (tx *Tx) DeleteInvoice(_ context.Context, id int64) error {
	if err := tx.fail("DeleteInvoice"); err != nil {
		return err
	}
	if _, ok := tx.st.invoices[id]; !ok {
		return ledger.ErrInvoiceNotFound
	}
	if len(tx.st.invoiceItems[id]) > 0 {
		return ledger.Persistence("DeleteInvoice", fmt.Errorf("foreign key: invoice %d has items", id))
	}
	for _, p := range tx.st.payments {
		if p.InvoiceID == id {
			return ledger.Persistence("DeleteInvoice", fmt.Errorf("foreign key: invoice %d has payments", id))
		}
	}
	for i, r := range tx.st.records {
		if r.InvoiceID != nil && *r.InvoiceID == id {
			tx.st.records[i].InvoiceID = nil
		}
	}
	delete(tx.st.invoices, id)
	delete(tx.st.invoiceItems, id)
	return nil
}

func (tx *Tx) InsertInvoiceItems(_ context.Context, invoiceID int64, items []ledger.InvoiceItem) error {
	if err := tx.fail("InsertInvoiceItems"); err != nil {
		return err
	}
	if _, ok := tx.st.invoices[invoiceID]; !ok {
		return ledger.ErrInvoiceNotFound
	}
	for _, item := range items {
		item.ID = tx.st.next("invoice_items")
		item.InvoiceID = invoiceID
		tx.st.invoiceItems[invoiceID] = append(tx.st.invoiceItems[invoiceID], item)
	}
	return nil
}

func (tx *Tx) ListInvoiceItems(_ context.Context, invoiceID int64) ([]ledger.InvoiceItem, error) {
	lines := slices.Clone(tx.st.invoiceItems[invoiceID])
	slices.SortFunc(lines, func(a, b ledger.InvoiceItem) int { return a.Position - b.Position })
	return lines, nil
}

func (tx *Tx) DeleteInvoiceItems(_ context.Context, invoiceID int64) error {
	delete(tx.st.invoiceItems, invoiceID)
	return nil
}

// Payments.

func (tx *Tx) InsertPayment(_ context.Context, p ledger.Payment) (int64, error) {
	if err := tx.fail("InsertPayment"); err != nil {
		return 0, err
	}
	if _, ok := tx.st.invoices[p.InvoiceID]; !ok {
		return 0, ledger.ErrInvoiceNotFound
	}
	for _, existing := range tx.st.payments {
		if existing.TransactionID == p.TransactionID {
			return 0, ledger.ErrDuplicateTransactionID
		}
	}
	p.ID = tx.st.next("payments")
	tx.st.payments[p.ID] = p
	return p.ID, nil
}

func (tx *Tx) GetPayment(_ context.Context, id int64) (ledger.Payment, error) {
	p, ok := tx.st.payments[id]
	if !ok {
		return ledger.Payment{}, ledger.ErrPaymentNotFound
	}
	return p, nil
}

func (tx *Tx) GetPaymentForUpdate(ctx context.Context, id int64) (ledger.Payment, error) {
	return tx.GetPayment(ctx, id)
}

func (tx *Tx) ListPayments(_ context.Context, invoiceID int64) ([]ledger.Payment, error) {
	var out []ledger.Payment
	for _, id := range sortedKeys(tx.st.payments) {
		if p := tx.st.payments[id]; p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (tx *Tx) UpdatePayment(_ context.Context, p ledger.Payment) error {
	if err := tx.fail("UpdatePayment"); err != nil {
		return err
	}
	current, ok := tx.st.payments[p.ID]
	if !ok {
		return ledger.ErrPaymentNotFound
	}
	p.InvoiceID = current.InvoiceID
	p.TransactionID = current.TransactionID
	tx.st.payments[p.ID] = p
	return nil
}

func (tx *Tx) DeletePayment(_ context.Context, id int64) error {
	if err := tx.fail("DeletePayment"); err != nil {
		return err
	}
	if _, ok := tx.st.payments[id]; !ok {
		return ledger.ErrPaymentNotFound
	}
	for i, r := range tx.st.records {
		if r.PaymentID != nil && *r.PaymentID == id {
			tx.st.records[i].PaymentID = nil
		}
	}
	delete(tx.st.payments, id)
	return nil
}

func (tx *Tx) DeletePaymentsForInvoice(ctx context.Context, invoiceID int64) error {
	for _, id := range sortedKeys(tx.st.payments) {
		if tx.st.payments[id].InvoiceID == invoiceID {
			if err := tx.DeletePayment(ctx, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// Finance.

func (tx *Tx) InsertFinancialRecord(_ context.Context, r ledger.FinancialRecord) (int64, error) {
	if err := tx.fail("InsertFinancialRecord"); err != nil {
		return 0, err
	}
	r.ID = tx.st.next("financial_records")
	tx.st.records = append(tx.st.records, r)
	return r.ID, nil
}

func (tx *Tx) GetFinancialRecord(_ context.Context, id int64) (ledger.FinancialRecord, error) {
	for _, r := range tx.st.records {
		if r.ID == id {
			return r, nil
		}
	}
	return ledger.FinancialRecord{}, ledger.ErrRecordNotFound
}

func (tx *Tx) DeleteFinancialRecord(_ context.Context, id int64) error {
	if err := tx.fail("DeleteFinancialRecord"); err != nil {
		return err
	}
	before := len(tx.st.records)
	tx.st.records = slices.DeleteFunc(tx.st.records, func(r ledger.FinancialRecord) bool { return r.ID == id })
	if len(tx.st.records) == before {
		return ledger.ErrRecordNotFound
	}
	return nil
}

func (tx *Tx) InsertFinancialCategory(_ context.Context, c ledger.FinancialCategory) (int64, error) {
	for _, existing := range tx.st.categories {
		if existing.Type == c.Type && existing.Name == c.Name {
			return 0, fmt.Errorf("%w: %s category %q exists", ledger.ErrInvalidValue, c.Type, c.Name)
		}
	}
	c.ID = tx.st.next("financial_categories")
	tx.st.categories[c.ID] = c
	return c.ID, nil
}

func (tx *Tx) GetFinancialCategory(_ context.Context, id int64) (ledger.FinancialCategory, error) {
	c, ok := tx.st.categories[id]
	if !ok {
		return ledger.FinancialCategory{}, ledger.ErrCategoryNotFound
	}
	return c, nil
}

func (tx *Tx) ListFinancialCategories(_ context.Context, typ ledger.FinancialType) ([]ledger.FinancialCategory, error) {
	var out []ledger.FinancialCategory
	for _, id := range sortedKeys(tx.st.categories) {
		if c := tx.st.categories[id]; typ == "" || c.Type == typ {
			out = append(out, c)
		}
	}
	return out, nil
}

func (tx *Tx) DeleteFinancialCategory(_ context.Context, id int64) error {
	if _, ok := tx.st.categories[id]; !ok {
		return ledger.ErrCategoryNotFound
	}
	delete(tx.st.categories, id)
	return nil
}

func (tx *Tx) ListFinancialRecords(_ context.Context, filter ledger.FinancialFilter) ([]ledger.FinancialRecord, error) {
	var out []ledger.FinancialRecord
	for _, r := range tx.st.records {
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if !inRange(r.Date, filter.From, filter.To) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (tx *Tx) CostOfGoods(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for id, inv := range tx.st.invoices {
		if inv.Status == ledger.InvoiceCancelled || !inRange(inv.CreatedAt, from, to) {
			continue
		}
		for _, line := range tx.st.invoiceItems[id] {
			total = total.Add(line.CostPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}
	return total.Round(2), nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
