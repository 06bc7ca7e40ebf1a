package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/bizledger/bizledger/internal/ledger"
)

const invoiceColumns = `id, number, customer_id, quotation_id, activity_type_id, total_amount, paid_amount, balance_due, status, due_date, notes, created_at, updated_at`

var invoiceParents = map[string]error{
	"invoices_customer_id_fkey":      ledger.ErrCustomerNotFound,
	"invoices_quotation_id_fkey":     ledger.ErrQuotationNotFound,
	"invoices_activity_type_id_fkey": ledger.ErrActivityTypeNotFound,
}

func scanInvoice(row pgx.Row) (ledger.Invoice, error) {
	var inv ledger.Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.QuotationID, &inv.ActivityTypeID,
		&inv.TotalAmount, &inv.PaidAmount, &inv.BalanceDue, &inv.Status, &inv.DueDate, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt)
	inv.DueDate = utcPtr(inv.DueDate)
	inv.CreatedAt, inv.UpdatedAt = inv.CreatedAt.UTC(), inv.UpdatedAt.UTC()
	return inv, err
}

func (t *Tx) InsertInvoice(ctx context.Context, inv ledger.Invoice) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO invoices (number, customer_id, quotation_id, activity_type_id, total_amount, paid_amount, balance_due, status, due_date, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		inv.Number, inv.CustomerID, inv.QuotationID, inv.ActivityTypeID, inv.TotalAmount, inv.PaidAmount,
		inv.BalanceDue, inv.Status, inv.DueDate, inv.Notes, inv.CreatedAt, inv.UpdatedAt).Scan(&id)
	return id, translate("InsertInvoice", err, invoiceParents)
}

func (t *Tx) GetInvoice(ctx context.Context, id int64) (ledger.Invoice, error) {
	inv, err := scanInvoice(t.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	return inv, one("GetInvoice", err, ledger.ErrInvoiceNotFound)
}

func (t *Tx) GetInvoiceForUpdate(ctx context.Context, id int64) (ledger.Invoice, error) {
	inv, err := scanInvoice(t.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
	return inv, one("GetInvoiceForUpdate", err, ledger.ErrInvoiceNotFound)
}

func (t *Tx) ListInvoices(ctx context.Context, filter ledger.InvoiceFilter) ([]ledger.Invoice, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices
WHERE ($1 = '' OR customer_id = $1)
  AND ($2 = '' OR status = $2)
  AND ($3::timestamptz IS NULL OR (status IN ('DRAFT','SENT','PARTIAL') AND balance_due > 0 AND due_date < $3))
ORDER BY id`, filter.CustomerID, string(filter.Status), filter.DueBefore)
	if err != nil {
		return nil, translate("ListInvoices", err, nil)
	}
	defer rows.Close()
	var out []ledger.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, translate("ListInvoices", err, nil)
		}
		out = append(out, inv)
	}
	return out, translate("ListInvoices", rows.Err(), nil)
}

func (t *Tx) UpdateInvoice(ctx context.Context, inv ledger.Invoice) error {
	tag, err := t.tx.Exec(ctx, `UPDATE invoices SET customer_id = $2, quotation_id = $3, activity_type_id = $4, total_amount = $5,
paid_amount = $6, balance_due = $7, status = $8, due_date = $9, notes = $10, updated_at = $11 WHERE id = $1`,
		inv.ID, inv.CustomerID, inv.QuotationID, inv.ActivityTypeID, inv.TotalAmount, inv.PaidAmount,
		inv.BalanceDue, inv.Status, inv.DueDate, inv.Notes, inv.UpdatedAt)
	if err != nil {
		return translate("UpdateInvoice", err, invoiceParents)
	}
	return affected("UpdateInvoice", tag, nil, ledger.ErrInvoiceNotFound)
}

func (t *Tx) DeleteInvoice(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	return affected("DeleteInvoice", tag, err, ledger.ErrInvoiceNotFound)
}

func (t *Tx) InsertInvoiceItems(ctx context.Context, invoiceID int64, items []ledger.InvoiceItem) error {
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`INSERT INTO invoice_items (invoice_id, position, inventory_id, item_code, description, quantity, unit_price, cost_price, amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			invoiceID, item.Position, item.InventoryID, item.ItemCode, item.Description, item.Quantity,
			item.UnitPrice, item.CostPrice, item.Amount)
	}
	err := t.tx.SendBatch(ctx, batch).Close()
	return translate("InsertInvoiceItems", err, map[string]error{
		"invoice_items_invoice_id_fkey":   ledger.ErrInvoiceNotFound,
		"invoice_items_inventory_id_fkey": ledger.ErrItemNotFound,
	})
}

func (t *Tx) ListInvoiceItems(ctx context.Context, invoiceID int64) ([]ledger.InvoiceItem, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, invoice_id, position, inventory_id, item_code, description, quantity, unit_price, cost_price, amount
FROM invoice_items WHERE invoice_id = $1 ORDER BY position, id`, invoiceID)
	if err != nil {
		return nil, translate("ListInvoiceItems", err, nil)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.InvoiceItem, error) {
		var it ledger.InvoiceItem
		err := row.Scan(&it.ID, &it.InvoiceID, &it.Position, &it.InventoryID, &it.ItemCode, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.CostPrice, &it.Amount)
		return it, err
	})
	return out, translate("ListInvoiceItems", err, nil)
}

func (t *Tx) DeleteInvoiceItems(ctx context.Context, invoiceID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID)
	return translate("DeleteInvoiceItems", err, nil)
}
