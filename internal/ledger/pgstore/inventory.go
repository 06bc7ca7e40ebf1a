package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/bizledger/bizledger/internal/ledger"
)

const itemColumns = `id, name, brand, category, specifications, supplier_id, quantity, unit_price, cost_price, minimum_stock_level, created_at, updated_at`

func scanItem(row pgx.Row) (ledger.InventoryItem, error) {
	var i ledger.InventoryItem
	err := row.Scan(&i.ID, &i.Name, &i.Brand, &i.Category, &i.Specifications, &i.SupplierID, &i.Quantity,
		&i.UnitPrice, &i.CostPrice, &i.MinimumStockLevel, &i.CreatedAt, &i.UpdatedAt)
	i.CreatedAt, i.UpdatedAt = i.CreatedAt.UTC(), i.UpdatedAt.UTC()
	return i, err
}

func (t *Tx) GetItem(ctx context.Context, id int64) (ledger.InventoryItem, error) {
	item, err := scanItem(t.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id))
	return item, one("GetItem", err, ledger.ErrItemNotFound)
}

func (t *Tx) GetItemForUpdate(ctx context.Context, id int64) (ledger.InventoryItem, error) {
	item, err := scanItem(t.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1 FOR UPDATE`, id))
	return item, one("GetItemForUpdate", err, ledger.ErrItemNotFound)
}

func (t *Tx) ListItems(ctx context.Context) ([]ledger.InventoryItem, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY id`)
	if err != nil {
		return nil, translate("ListItems", err, nil)
	}
	defer rows.Close()
	var out []ledger.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, translate("ListItems", err, nil)
		}
		out = append(out, item)
	}
	return out, translate("ListItems", rows.Err(), nil)
}

func (t *Tx) InsertItem(ctx context.Context, item ledger.InventoryItem) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO inventory_items (name, brand, category, specifications, supplier_id, quantity, unit_price, cost_price, minimum_stock_level, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9, $10) RETURNING id`,
		item.Name, item.Brand, item.Category, item.Specifications, item.SupplierID, item.UnitPrice, item.CostPrice,
		item.MinimumStockLevel, item.CreatedAt, item.UpdatedAt).Scan(&id)
	return id, translate("InsertItem", err, supplierParent)
}

var supplierParent = map[string]error{
	"inventory_items_supplier_id_fkey": ledger.ErrSupplierNotFound,
}

func (t *Tx) UpdateItem(ctx context.Context, item ledger.InventoryItem) error {
	tag, err := t.tx.Exec(ctx, `UPDATE inventory_items SET name = $2, brand = $3, category = $4, specifications = $5,
unit_price = $6, cost_price = $7, minimum_stock_level = $8, updated_at = $9, supplier_id = $10 WHERE id = $1`,
		item.ID, item.Name, item.Brand, item.Category, item.Specifications, item.UnitPrice, item.CostPrice,
		item.MinimumStockLevel, item.UpdatedAt, item.SupplierID)
	if err != nil {
		return translate("UpdateItem", err, supplierParent)
	}
	return affected("UpdateItem", tag, nil, ledger.ErrItemNotFound)
}

func (t *Tx) SetItemQuantity(ctx context.Context, id int64, quantity int) error {
	tag, err := t.tx.Exec(ctx, `UPDATE inventory_items SET quantity = $2 WHERE id = $1`, id, quantity)
	return affected("SetItemQuantity", tag, err, ledger.ErrItemNotFound)
}

func (t *Tx) DeleteItem(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	return affected("DeleteItem", tag, err, ledger.ErrItemNotFound)
}

func (t *Tx) DetachItem(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `UPDATE quotation_items SET inventory_id = NULL WHERE inventory_id = $1`, id); err != nil {
		return translate("DetachItem", err, nil)
	}
	_, err := t.tx.Exec(ctx, `UPDATE invoice_items SET inventory_id = NULL WHERE inventory_id = $1`, id)
	return translate("DetachItem", err, nil)
}

func (t *Tx) InsertStockTransaction(ctx context.Context, st ledger.StockTransaction) (int64, error) {
	var refID *int64
	var refType *string
	if st.Ref != nil {
		refID = &st.Ref.ID
		kind := string(st.Ref.Type)
		refType = &kind
	}
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO stock_transactions (item_id, type, quantity, unit_price, total_value, currency, reason, ref_id, ref_type, customer_name, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		st.ItemID, st.Type, st.Quantity, st.UnitPrice, st.TotalValue, st.Currency, st.Reason,
		refID, refType, st.CustomerName, st.Notes, st.CreatedAt).Scan(&id)
	return id, translate("InsertStockTransaction", err, map[string]error{
		"stock_transactions_item_id_fkey": ledger.ErrItemNotFound,
	})
}

func (t *Tx) ListStockTransactions(ctx context.Context, filter ledger.StockTransactionFilter) ([]ledger.StockTransaction, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, item_id, type, quantity, unit_price, total_value, currency, reason, ref_id, ref_type, customer_name, notes, created_at
FROM stock_transactions
WHERE ($1::bigint IS NULL OR item_id = $1)
  AND ($2::bigint IS NULL OR ref_id = $2)
  AND ($3 = '' OR ref_type = $3)
ORDER BY id`, filter.ItemID, filter.RefID, string(filter.RefType))
	if err != nil {
		return nil, translate("ListStockTransactions", err, nil)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.StockTransaction, error) {
		var st ledger.StockTransaction
		var refID *int64
		var refType *string
		err := row.Scan(&st.ID, &st.ItemID, &st.Type, &st.Quantity, &st.UnitPrice, &st.TotalValue, &st.Currency,
			&st.Reason, &refID, &refType, &st.CustomerName, &st.Notes, &st.CreatedAt)
		if refID != nil && refType != nil {
			st.Ref = &ledger.DocumentRef{ID: *refID, Type: ledger.RefType(*refType)}
		}
		st.CreatedAt = st.CreatedAt.UTC()
		return st, err
	})
	return out, translate("ListStockTransactions", err, nil)
}

func (t *Tx) DeleteStockTransactions(ctx context.Context, itemID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM stock_transactions WHERE item_id = $1`, itemID)
	return translate("DeleteStockTransactions", err, nil)
}
