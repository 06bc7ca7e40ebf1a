package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bizledger/bizledger/internal/ledger"
)

var documentTables = map[ledger.DocumentKind]string{
	ledger.KindQuotation: "quotations",
	ledger.KindInvoice:   "invoices",
}

func documentTable(kind ledger.DocumentKind) (string, error) {
	table, ok := documentTables[kind]
	if !ok {
		return "", fmt.Errorf("%w: document kind %q", ledger.ErrInvalidValue, kind)
	}
	return table, nil
}

func (t *Tx) CountDocuments(ctx context.Context, kind ledger.DocumentKind, customerID string) (int, error) {
	table, err := documentTable(kind)
	if err != nil {
		return 0, err
	}
	var n int
	err = t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+` WHERE customer_id = $1`, customerID).Scan(&n)
	return n, translate("CountDocuments", err, nil)
}

func (t *Tx) DocumentNumberExists(ctx context.Context, kind ledger.DocumentKind, number string) (bool, error) {
	table, err := documentTable(kind)
	if err != nil {
		return false, err
	}
	var exists bool
	err = t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE number = $1)`, number).Scan(&exists)
	return exists, translate("DocumentNumberExists", err, nil)
}

const quotationColumns = `id, number, customer_id, total_amount, status, notes, created_at, updated_at`

func scanQuotation(row pgx.Row) (ledger.Quotation, error) {
	var q ledger.Quotation
	err := row.Scan(&q.ID, &q.Number, &q.CustomerID, &q.TotalAmount, &q.Status, &q.Notes, &q.CreatedAt, &q.UpdatedAt)
	q.CreatedAt, q.UpdatedAt = q.CreatedAt.UTC(), q.UpdatedAt.UTC()
	return q, err
}

func (t *Tx) InsertQuotation(ctx context.Context, q ledger.Quotation) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO quotations (number, customer_id, total_amount, status, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		q.Number, q.CustomerID, q.TotalAmount, q.Status, q.Notes, q.CreatedAt, q.UpdatedAt).Scan(&id)
	return id, translate("InsertQuotation", err, map[string]error{
		"quotations_customer_id_fkey": ledger.ErrCustomerNotFound,
	})
}

func (t *Tx) GetQuotation(ctx context.Context, id int64) (ledger.Quotation, error) {
	q, err := scanQuotation(t.tx.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id))
	return q, one("GetQuotation", err, ledger.ErrQuotationNotFound)
}

func (t *Tx) GetQuotationForUpdate(ctx context.Context, id int64) (ledger.Quotation, error) {
	q, err := scanQuotation(t.tx.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1 FOR UPDATE`, id))
	return q, one("GetQuotationForUpdate", err, ledger.ErrQuotationNotFound)
}

func (t *Tx) ListQuotations(ctx context.Context, filter ledger.QuotationFilter) ([]ledger.Quotation, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+quotationColumns+` FROM quotations
WHERE ($1 = '' OR customer_id = $1) AND ($2 = '' OR status = $2)
ORDER BY id`, filter.CustomerID, string(filter.Status))
	if err != nil {
		return nil, translate("ListQuotations", err, nil)
	}
	defer rows.Close()
	var out []ledger.Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, translate("ListQuotations", err, nil)
		}
		out = append(out, q)
	}
	return out, translate("ListQuotations", rows.Err(), nil)
}

func (t *Tx) UpdateQuotation(ctx context.Context, q ledger.Quotation) error {
	tag, err := t.tx.Exec(ctx, `UPDATE quotations SET customer_id = $2, total_amount = $3, status = $4, notes = $5, updated_at = $6 WHERE id = $1`,
		q.ID, q.CustomerID, q.TotalAmount, q.Status, q.Notes, q.UpdatedAt)
	return affected("UpdateQuotation", tag, err, ledger.ErrQuotationNotFound)
}

func (t *Tx) DeleteQuotation(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	return affected("DeleteQuotation", tag, err, ledger.ErrQuotationNotFound)
}

func (t *Tx) InsertQuotationItems(ctx context.Context, quotationID int64, items []ledger.QuotationItem) error {
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`INSERT INTO quotation_items (quotation_id, position, inventory_id, item_code, description, quantity, unit_price, amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			quotationID, item.Position, item.InventoryID, item.ItemCode, item.Description, item.Quantity, item.UnitPrice, item.Amount)
	}
	err := t.tx.SendBatch(ctx, batch).Close()
	return translate("InsertQuotationItems", err, map[string]error{
		"quotation_items_quotation_id_fkey": ledger.ErrQuotationNotFound,
		"quotation_items_inventory_id_fkey": ledger.ErrItemNotFound,
	})
}

func (t *Tx) ListQuotationItems(ctx context.Context, quotationID int64) ([]ledger.QuotationItem, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, quotation_id, position, inventory_id, item_code, description, quantity, unit_price, amount
FROM quotation_items WHERE quotation_id = $1 ORDER BY position, id`, quotationID)
	if err != nil {
		return nil, translate("ListQuotationItems", err, nil)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.QuotationItem, error) {
		var it ledger.QuotationItem
		err := row.Scan(&it.ID, &it.QuotationID, &it.Position, &it.InventoryID, &it.ItemCode, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.Amount)
		return it, err
	})
	return out, translate("ListQuotationItems", err, nil)
}

func (t *Tx) DeleteQuotationItems(ctx context.Context, quotationID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM quotation_items WHERE quotation_id = $1`, quotationID)
	return translate("DeleteQuotationItems", err, nil)
}
