package warehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStockConflict: update optimistic kalah race (version berubah di bawah
// kita). Caller retry seluruh transaksi.
var ErrStockConflict = errors.New("stock version conflict")

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, latitude, longitude FROM warehouses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Latitude, &w.Longitude); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *Repo) ListTransferLogs(ctx context.Context, warehouseID string) ([]StockTransferLog, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_stock_id, warehouse_id, quantity, transaction_type, description, created_at
		FROM stock_transfer_logs WHERE warehouse_id=$1 ORDER BY created_at`, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockTransferLog
	for rows.Next() {
		var l StockTransferLog
		if err := rows.Scan(&l.ID, &l.ProductStockID, &l.WarehouseID, &l.Quantity,
			&l.TransactionType, &l.Description, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Snapshot baca semua row product_stocks untuk product yang diminta,
// lintas warehouse. Dipakai sebagai input planner di dalam tx checkout.
func Snapshot(ctx context.Context, tx pgx.Tx, productIDs []string) ([]StockLevel, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, product_id, warehouse_id, stock, version
		FROM product_stocks WHERE product_id = ANY($1::uuid[])`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockLevel
	for rows.Next() {
		var s StockLevel
		if err := rows.Scan(&s.StockID, &s.ProductID, &s.WarehouseID, &s.Stock, &s.Version); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// applier nge-track row mana yang sudah kita tulis dalam tx ini. Sentuhan
// pertama ke row yang ada di snapshot dikondisikan ke version snapshot;
// setelah itu row sudah kita pegang (row lock tx sendiri) jadi cukup
// guard stock >= qty.
type applier struct {
	tx       pgx.Tx
	versions map[string]int64
	touched  map[string]bool
}

func key(productID, warehouseID string) string { return productID + "|" + warehouseID }

func newApplier(tx pgx.Tx, snapshot []StockLevel) *applier {
	a := &applier{tx: tx, versions: map[string]int64{}, touched: map[string]bool{}}
	for _, s := range snapshot {
		a.versions[key(s.ProductID, s.WarehouseID)] = s.Version
	}
	return a
}

func (a *applier) decrement(ctx context.Context, productID, warehouseID string, qty int) (stockID string, err error) {
	k := key(productID, warehouseID)
	if v, ok := a.versions[k]; ok && !a.touched[k] {
		err = a.tx.QueryRow(ctx, `
			UPDATE product_stocks
			SET stock = stock - $3, version = version + 1, updated_at = now()
			WHERE product_id=$1 AND warehouse_id=$2 AND version=$4 AND stock >= $3
			RETURNING id`, productID, warehouseID, qty, v).Scan(&stockID)
	} else {
		err = a.tx.QueryRow(ctx, `
			UPDATE product_stocks
			SET stock = stock - $3, version = version + 1, updated_at = now()
			WHERE product_id=$1 AND warehouse_id=$2 AND stock >= $3
			RETURNING id`, productID, warehouseID, qty).Scan(&stockID)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("product %s at warehouse %s: %w", productID, warehouseID, ErrStockConflict)
	}
	if err != nil {
		return "", err
	}
	a.touched[k] = true
	return stockID, nil
}

// increment bikin row lazy kalau warehouse belum pernah pegang product-nya.
func (a *applier) increment(ctx context.Context, productID, warehouseID string, qty int) (stockID string, err error) {
	err = a.tx.QueryRow(ctx, `
		INSERT INTO product_stocks (id, product_id, warehouse_id, stock, version)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (product_id, warehouse_id) DO UPDATE
		SET stock = product_stocks.stock + EXCLUDED.stock,
		    version = product_stocks.version + 1,
		    updated_at = now()
		RETURNING id`, uuid.NewString(), productID, warehouseID, qty).Scan(&stockID)
	if err != nil {
		return "", err
	}
	a.touched[key(productID, warehouseID)] = true
	return stockID, nil
}

func (a *applier) log(ctx context.Context, stockID, warehouseID string, qty int, txType, desc string) error {
	_, err := a.tx.Exec(ctx, `
		INSERT INTO stock_transfer_logs (id, product_stock_id, warehouse_id, quantity, transaction_type, description)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), stockID, warehouseID, qty, txType, desc)
	return err
}

func (a *applier) recordTransfer(ctx context.Context, t Transfer) error {
	_, err := a.tx.Exec(ctx, `
		INSERT INTO stock_transfers (id, product_id, from_warehouse_id, to_warehouse_id, stock_request, stock_process, status)
		VALUES ($1, $2, $3, $4, $5, $5, $6)`,
		uuid.NewString(), t.ProductID, t.FromWarehouseID, t.ToWarehouseID, t.Qty, TransferCompleted)
	return err
}

// planOps adalah operasi tulis yang dibutuhkan eksekusi plan. Implementasi
// produksinya applier (SQL dalam tx checkout).
type planOps interface {
	decrement(ctx context.Context, productID, warehouseID string, qty int) (stockID string, err error)
	increment(ctx context.Context, productID, warehouseID string, qty int) (stockID string, err error)
	log(ctx context.Context, stockID, warehouseID string, qty int, txType, desc string) error
	recordTransfer(ctx context.Context, t Transfer) error
}

// ApplyPlan eksekusi plan di dalam tx checkout: tiap transfer didecrement
// di source (OUT log), di-upsert di destination (IN log), dicatat sebagai
// StockTransfer COMPLETED; lalu tiap request didecrement penuh di target
// dengan OUT log. ref nempel di description log.
func ApplyPlan(ctx context.Context, tx pgx.Tx, plan Plan, snapshot []StockLevel, ref string) error {
	return applyPlan(ctx, newApplier(tx, snapshot), plan, ref)
}

func applyPlan(ctx context.Context, ops planOps, plan Plan, ref string) error {
	for _, t := range plan.Transfers {
		srcID, err := ops.decrement(ctx, t.ProductID, t.FromWarehouseID, t.Qty)
		if err != nil {
			return err
		}
		if err := ops.log(ctx, srcID, t.FromWarehouseID, t.Qty, TransactionOut,
			fmt.Sprintf("transfer to warehouse %s for %s", t.ToWarehouseID, ref)); err != nil {
			return err
		}

		dstID, err := ops.increment(ctx, t.ProductID, t.ToWarehouseID, t.Qty)
		if err != nil {
			return err
		}
		if err := ops.log(ctx, dstID, t.ToWarehouseID, t.Qty, TransactionIn,
			fmt.Sprintf("transfer from warehouse %s for %s", t.FromWarehouseID, ref)); err != nil {
			return err
		}

		if err := ops.recordTransfer(ctx, t); err != nil {
			return err
		}
	}

	for _, req := range plan.Requests {
		stockID, err := ops.decrement(ctx, req.ProductID, plan.TargetID, req.Qty)
		if err != nil {
			return err
		}
		if err := ops.log(ctx, stockID, plan.TargetID, req.Qty, TransactionOut,
			fmt.Sprintf("checkout %s", ref)); err != nil {
			return err
		}
	}
	return nil
}

// Restock balikin stok waktu order dibatalin. Upsert soalnya row bisa saja
// belum ada lagi secara teori; praktiknya selalu ada karena checkout lewat
// warehouse itu.
func Restock(ctx context.Context, tx pgx.Tx, productID, warehouseID string, qty int, desc string) error {
	var stockID string
	err := tx.QueryRow(ctx, `
		INSERT INTO product_stocks (id, product_id, warehouse_id, stock, version)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (product_id, warehouse_id) DO UPDATE
		SET stock = product_stocks.stock + EXCLUDED.stock,
		    version = product_stocks.version + 1,
		    updated_at = now()
		RETURNING id`, uuid.NewString(), productID, warehouseID, qty).Scan(&stockID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO stock_transfer_logs (id, product_stock_id, warehouse_id, quantity, transaction_type, description)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), stockID, warehouseID, qty, TransactionIn, desc)
	return err
}
