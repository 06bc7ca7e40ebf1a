package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bizledger/bizledger/internal/ledger"
)

func (t *Tx) InsertFinancialRecord(ctx context.Context, r ledger.FinancialRecord) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO financial_records (type, category, description, amount, date, invoice_id, payment_id, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		r.Type, r.Category, r.Description, r.Amount, r.Date, r.InvoiceID, r.PaymentID, r.Notes).Scan(&id)
	return id, translate("InsertFinancialRecord", err, map[string]error{
		"financial_records_invoice_id_fkey": ledger.ErrInvoiceNotFound,
		"financial_records_payment_id_fkey": ledger.ErrPaymentNotFound,
	})
}

const recordColumns = `id, type, category, description, amount, date, invoice_id, payment_id, notes`

func scanRecord(row pgx.Row) (ledger.FinancialRecord, error) {
	var r ledger.FinancialRecord
	err := row.Scan(&r.ID, &r.Type, &r.Category, &r.Description, &r.Amount, &r.Date, &r.InvoiceID, &r.PaymentID, &r.Notes)
	r.Date = r.Date.UTC()
	return r, err
}

func (t *Tx) GetFinancialRecord(ctx context.Context, id int64) (ledger.FinancialRecord, error) {
	r, err := scanRecord(t.tx.QueryRow(ctx, `SELECT `+recordColumns+` FROM financial_records WHERE id = $1`, id))
	return r, one("GetFinancialRecord", err, ledger.ErrRecordNotFound)
}

func (t *Tx) DeleteFinancialRecord(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM financial_records WHERE id = $1`, id)
	return affected("DeleteFinancialRecord", tag, err, ledger.ErrRecordNotFound)
}

func (t *Tx) ListFinancialRecords(ctx context.Context, filter ledger.FinancialFilter) ([]ledger.FinancialRecord, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+recordColumns+`
FROM financial_records
WHERE ($1 = '' OR type = $1)
  AND ($2::timestamptz IS NULL OR date >= $2)
  AND ($3::timestamptz IS NULL OR date < $3)
ORDER BY id`, string(filter.Type), nullTime(filter.From), nullTime(filter.To))
	if err != nil {
		return nil, translate("ListFinancialRecords", err, nil)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.FinancialRecord, error) {
		return scanRecord(row)
	})
	return out, translate("ListFinancialRecords", err, nil)
}

const categoryColumns = `id, name, type, description, created_at`

func scanCategory(row pgx.Row) (ledger.FinancialCategory, error) {
	var c ledger.FinancialCategory
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Description, &c.CreatedAt)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, err
}

func (t *Tx) InsertFinancialCategory(ctx context.Context, c ledger.FinancialCategory) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO financial_categories (name, type, description, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		c.Name, c.Type, c.Description, c.CreatedAt).Scan(&id)
	return id, translate("InsertFinancialCategory", err, nil)
}

func (t *Tx) GetFinancialCategory(ctx context.Context, id int64) (ledger.FinancialCategory, error) {
	c, err := scanCategory(t.tx.QueryRow(ctx, `SELECT `+categoryColumns+` FROM financial_categories WHERE id = $1`, id))
	return c, one("GetFinancialCategory", err, ledger.ErrCategoryNotFound)
}

func (t *Tx) ListFinancialCategories(ctx context.Context, typ ledger.FinancialType) ([]ledger.FinancialCategory, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+categoryColumns+` FROM financial_categories WHERE ($1 = '' OR type = $1) ORDER BY id`, string(typ))
	if err != nil {
		return nil, translate("ListFinancialCategories", err, nil)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.FinancialCategory, error) {
		return scanCategory(row)
	})
	return out, translate("ListFinancialCategories", err, nil)
}

func (t *Tx) DeleteFinancialCategory(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM financial_categories WHERE id = $1`, id)
	return affected("DeleteFinancialCategory", tag, err, ledger.ErrCategoryNotFound)
}

func (t *Tx) CostOfGoods(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(ii.cost_price * ii.quantity), 0)
FROM invoice_items ii
JOIN invoices i ON i.id = ii.invoice_id
WHERE i.status <> 'CANCELLED'
  AND ($1::timestamptz IS NULL OR i.created_at >= $1)
  AND ($2::timestamptz IS NULL OR i.created_at < $2)`, nullTime(from), nullTime(to)).Scan(&total)
	if err != nil {
		return decimal.Zero, translate("CostOfGoods", err, nil)
	}
	return total.Round(2), nil
}
