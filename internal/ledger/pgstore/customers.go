package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/bizledger/bizledger/internal/ledger"
)

const customerColumns = `id, name, surname, citizenship, address, phone, email, created_at`

func scanCustomer(row pgx.Row) (ledger.Customer, error) {
	var c ledger.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Surname, &c.Citizenship, &c.Address, &c.Phone, &c.Email, &c.CreatedAt)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, err
}

func (t *Tx) GetCustomer(ctx context.Context, id string) (ledger.Customer, error) {
	c, err := scanCustomer(t.tx.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	return c, one("GetCustomer", err, ledger.ErrCustomerNotFound)
}

func (t *Tx) GetCustomerForUpdate(ctx context.Context, id string) (ledger.Customer, error) {
	c, err := scanCustomer(t.tx.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1 FOR UPDATE`, id))
	return c, one("GetCustomerForUpdate", err, ledger.ErrCustomerNotFound)
}

func (t *Tx) ListCustomers(ctx context.Context) ([]ledger.Customer, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, translate("ListCustomers", err, nil)
	}
	defer rows.Close()
	var out []ledger.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, translate("ListCustomers", err, nil)
		}
		out = append(out, c)
	}
	return out, translate("ListCustomers", rows.Err(), nil)
}

func (t *Tx) InsertCustomer(ctx context.Context, c ledger.Customer) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO customers (`+customerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Surname, c.Citizenship, c.Address, c.Phone, c.Email, c.CreatedAt)
	return translate("InsertCustomer", err, nil)
}

func (t *Tx) UpdateCustomer(ctx context.Context, c ledger.Customer) error {
	tag, err := t.tx.Exec(ctx, `UPDATE customers SET name = $2, surname = $3, citizenship = $4, address = $5, phone = $6, email = $7 WHERE id = $1`,
		c.ID, c.Name, c.Surname, c.Citizenship, c.Address, c.Phone, c.Email)
	return affected("UpdateCustomer", tag, err, ledger.ErrCustomerNotFound)
}

func (t *Tx) DetachCustomer(ctx context.Context, id string) error {
	if _, err := t.tx.Exec(ctx, `UPDATE quotations SET customer_id = NULL WHERE customer_id = $1`, id); err != nil {
		return translate("DetachCustomer", err, nil)
	}
	if _, err := t.tx.Exec(ctx, `UPDATE invoices SET customer_id = NULL WHERE customer_id = $1`, id); err != nil {
		return translate("DetachCustomer", err, nil)
	}
	_, err := t.tx.Exec(ctx, `UPDATE activities SET customer_id = NULL WHERE customer_id = $1`, id)
	return translate("DetachCustomer", err, nil)
}

func (t *Tx) DeleteCustomer(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	return affected("DeleteCustomer", tag, err, ledger.ErrCustomerNotFound)
}

func (t *Tx) GetActivityType(ctx context.Context, id int64) (ledger.ActivityType, error) {
	var at ledger.ActivityType
	err := t.tx.QueryRow(ctx, `SELECT id, name FROM activity_types WHERE id = $1`, id).Scan(&at.ID, &at.Name)
	return at, one("GetActivityType", err, ledger.ErrActivityTypeNotFound)
}

func (t *Tx) ListActivityTypes(ctx context.Context) ([]ledger.ActivityType, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, name FROM activity_types ORDER BY id`)
	if err != nil {
		return nil, translate("ListActivityTypes", err, nil)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.ActivityType, error) {
		var at ledger.ActivityType
		err := row.Scan(&at.ID, &at.Name)
		return at, err
	})
	return out, translate("ListActivityTypes", err, nil)
}

func (t *Tx) InsertActivityType(ctx context.Context, name string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO activity_types (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	return id, translate("InsertActivityType", err, nil)
}

func (t *Tx) DetachActivityType(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `UPDATE activities SET activity_type_id = NULL WHERE activity_type_id = $1`, id); err != nil {
		return translate("DetachActivityType", err, nil)
	}
	_, err := t.tx.Exec(ctx, `UPDATE invoices SET activity_type_id = NULL WHERE activity_type_id = $1`, id)
	return translate("DetachActivityType", err, nil)
}

func (t *Tx) DeleteActivityType(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM activity_types WHERE id = $1`, id)
	return affected("DeleteActivityType", tag, err, ledger.ErrActivityTypeNotFound)
}
