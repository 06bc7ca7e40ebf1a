package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/bizledger/bizledger/internal/ledger"
)

const activityColumns = `id, customer_id, activity_type_id, description, status, date, completed_at,
technician, total_cost, currency, notes, created_at`

var activityParents = map[string]error{
	"activities_customer_id_fkey":      ledger.ErrCustomerNotFound,
	"activities_activity_type_id_fkey": ledger.ErrActivityTypeNotFound,
}

func scanActivity(row pgx.Row) (ledger.Activity, error) {
	var a ledger.Activity
	err := row.Scan(&a.ID, &a.CustomerID, &a.ActivityTypeID, &a.Description, &a.Status, &a.Date, &a.CompletedAt,
		&a.Technician, &a.TotalCost, &a.Currency, &a.Notes, &a.CreatedAt)
	a.Date = a.Date.UTC()
	a.CompletedAt = utcPtr(a.CompletedAt)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, err
}

func (t *Tx) InsertActivity(ctx context.Context, a ledger.Activity) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO activities (customer_id, activity_type_id, description, status, date, completed_at,
technician, total_cost, currency, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		a.CustomerID, a.ActivityTypeID, a.Description, a.Status, a.Date, a.CompletedAt,
		a.Technician, a.TotalCost, a.Currency, a.Notes, a.CreatedAt).Scan(&id)
	return id, translate("InsertActivity", err, activityParents)
}

func (t *Tx) GetActivity(ctx context.Context, id int64) (ledger.Activity, error) {
	a, err := scanActivity(t.tx.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, id))
	return a, one("GetActivity", err, ledger.ErrActivityNotFound)
}

func (t *Tx) GetActivityForUpdate(ctx context.Context, id int64) (ledger.Activity, error) {
	a, err := scanActivity(t.tx.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1 FOR UPDATE`, id))
	return a, one("GetActivityForUpdate", err, ledger.ErrActivityNotFound)
}

func (t *Tx) ListActivities(ctx context.Context, filter ledger.ActivityFilter) ([]ledger.Activity, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+activityColumns+` FROM activities
WHERE ($1 = '' OR customer_id = $1) AND ($2 = '' OR status = $2)
ORDER BY id`, filter.CustomerID, string(filter.Status))
	if err != nil {
		return nil, translate("ListActivities", err, nil)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Activity, error) {
		return scanActivity(row)
	})
	return out, translate("ListActivities", err, nil)
}

func (t *Tx) UpdateActivity(ctx context.Context, a ledger.Activity) error {
	tag, err := t.tx.Exec(ctx, `UPDATE activities SET customer_id = $2, activity_type_id = $3, description = $4, status = $5,
date = $6, completed_at = $7, technician = $8, total_cost = $9, currency = $10, notes = $11 WHERE id = $1`,
		a.ID, a.CustomerID, a.ActivityTypeID, a.Description, a.Status, a.Date, a.CompletedAt,
		a.Technician, a.TotalCost, a.Currency, a.Notes)
	if err != nil {
		return translate("UpdateActivity", err, activityParents)
	}
	return affected("UpdateActivity", tag, nil, ledger.ErrActivityNotFound)
}

func (t *Tx) DeleteActivity(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	return affected("DeleteActivity", tag, err, ledger.ErrActivityNotFound)
}
