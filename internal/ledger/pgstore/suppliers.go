package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/bizledger/bizledger/internal/ledger"
)

const supplierColumns = `id, name, contact_person, phone, email, address, payment_terms, currency, notes, created_at`

func scanSupplier(row pgx.Row) (ledger.Supplier, error) {
	var s ledger.Supplier
	err := row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Phone, &s.Email, &s.Address, &s.PaymentTerms,
		&s.Currency, &s.Notes, &s.CreatedAt)
	s.CreatedAt = s.CreatedAt.UTC()
	return s, err
}

func (t *Tx) InsertSupplier(ctx context.Context, s ledger.Supplier) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO suppliers (name, contact_person, phone, email, address, payment_terms, currency, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		s.Name, s.ContactPerson, s.Phone, s.Email, s.Address, s.PaymentTerms, s.Currency, s.Notes, s.CreatedAt).Scan(&id)
	return id, translate("InsertSupplier", err, nil)
}

func (t *Tx) GetSupplier(ctx context.Context, id int64) (ledger.Supplier, error) {
	s, err := scanSupplier(t.tx.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	return s, one("GetSupplier", err, ledger.ErrSupplierNotFound)
}

func (t *Tx) ListSuppliers(ctx context.Context) ([]ledger.Supplier, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY id`)
	if err != nil {
		return nil, translate("ListSuppliers", err, nil)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Supplier, error) {
		return scanSupplier(row)
	})
	return out, translate("ListSuppliers", err, nil)
}

func (t *Tx) UpdateSupplier(ctx context.Context, s ledger.Supplier) error {
	tag, err := t.tx.Exec(ctx, `UPDATE suppliers SET name = $2, contact_person = $3, phone = $4, email = $5, address = $6,
payment_terms = $7, currency = $8, notes = $9 WHERE id = $1`,
		s.ID, s.Name, s.ContactPerson, s.Phone, s.Email, s.Address, s.PaymentTerms, s.Currency, s.Notes)
	return affected("UpdateSupplier", tag, err, ledger.ErrSupplierNotFound)
}

func (t *Tx) DetachSupplier(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE inventory_items SET supplier_id = NULL WHERE supplier_id = $1`, id)
	return translate("DetachSupplier", err, nil)
}

func (t *Tx) DeleteSupplier(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	return affected("DeleteSupplier", tag, err, ledger.ErrSupplierNotFound)
}
