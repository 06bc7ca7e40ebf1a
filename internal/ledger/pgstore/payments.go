package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/bizledger/bizledger/internal/ledger"
)

const paymentColumns = `id, invoice_id, amount, method, payer_name, transaction_id, reference_number, notes, paid_at`

func scanPayment(row pgx.Row) (ledger.Payment, error) {
	var p ledger.Payment
	err := row.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.PayerName, &p.TransactionID,
		&p.ReferenceNumber, &p.Notes, &p.PaidAt)
	p.PaidAt = p.PaidAt.UTC()
	return p, err
}

func (t *Tx) InsertPayment(ctx context.Context, p ledger.Payment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO payments (invoice_id, amount, method, payer_name, transaction_id, reference_number, notes, paid_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		p.InvoiceID, p.Amount, p.Method, p.PayerName, p.TransactionID, p.ReferenceNumber, p.Notes, p.PaidAt).Scan(&id)
	return id, translate("InsertPayment", err, map[string]error{
		"payments_invoice_id_fkey": ledger.ErrInvoiceNotFound,
	})
}

func (t *Tx) GetPayment(ctx context.Context, id int64) (ledger.Payment, error) {
	p, err := scanPayment(t.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	return p, one("GetPayment", err, ledger.ErrPaymentNotFound)
}

func (t *Tx) GetPaymentForUpdate(ctx context.Context, id int64) (ledger.Payment, error) {
	p, err := scanPayment(t.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
	return p, one("GetPaymentForUpdate", err, ledger.ErrPaymentNotFound)
}

func (t *Tx) ListPayments(ctx context.Context, invoiceID int64) ([]ledger.Payment, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, translate("ListPayments", err, nil)
	}
	defer rows.Close()
	var out []ledger.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, translate("ListPayments", err, nil)
		}
		out = append(out, p)
	}
	return out, translate("ListPayments", rows.Err(), nil)
}

func (t *Tx) UpdatePayment(ctx context.Context, p ledger.Payment) error {
	tag, err := t.tx.Exec(ctx, `UPDATE payments SET amount = $2, method = $3, payer_name = $4, reference_number = $5, notes = $6 WHERE id = $1`,
		p.ID, p.Amount, p.Method, p.PayerName, p.ReferenceNumber, p.Notes)
	return affected("UpdatePayment", tag, err, ledger.ErrPaymentNotFound)
}

// DeletePayment relies on financial_records.payment_id being ON DELETE SET NULL.
func (t *Tx) DeletePayment(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	return affected("DeletePayment", tag, err, ledger.ErrPaymentNotFound)
}

func (t *Tx) DeletePaymentsForInvoice(ctx context.Context, invoiceID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM payments WHERE invoice_id = $1`, invoiceID)
	return translate("DeletePaymentsForInvoice", err, nil)
}
