package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-warehouse-orders.git/internal/warehouse"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Cancel: pembatalan atas nama user. Order harus PENDING, belum ada payment
// proof, dan cart-nya punya user itu; kalau enggak, gagal loud (NotFound /
// ConflictingState), bukan silent no-op.
func (r *Repo) Cancel(ctx context.Context, userID, orderID string, source CancellationSource) error {
	return r.cancelOrder(ctx, userID, orderID, source)
}

// CancelExpired: pembatalan sistem (sweeper), tanpa cek ownership.
func (r *Repo) CancelExpired(ctx context.Context, orderID string) error {
	return r.cancelOrder(ctx, "", orderID, SourceSystem)
}

// cancelOrder: satu unit atomik yang membalik persis efek checkout:
// status CANCELED + source, cart aktif lagi, stok balik per item (IN log)
// ke warehouse yang fulfill order (stok hasil transfer tidak dikirim balik
// ke asalnya), history REFUND.
func (r *Repo) cancelOrder(ctx context.Context, userID, orderID string, source CancellationSource) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		cartID, warehouseID, invoice, cartUserID string
		totalCents                               int
	)
	if userID != "" {
		err = tx.QueryRow(ctx, `
			UPDATE orders o SET payment_status=$3, cancellation_source=$4, updated_at=now()
			FROM carts c
			WHERE o.id=$1 AND c.id=o.cart_id AND c.user_id=$2
			  AND o.payment_status=$5 AND o.payment_proof IS NULL
			RETURNING o.cart_id, o.warehouse_id, o.invoice, o.total_cents, c.user_id`,
			orderID, userID, StatusCanceled, source, StatusPending).
			Scan(&cartID, &warehouseID, &invoice, &totalCents, &cartUserID)
	} else {
		err = tx.QueryRow(ctx, `
			UPDATE orders o SET payment_status=$2, cancellation_source=$3, updated_at=now()
			FROM carts c
			WHERE o.id=$1 AND c.id=o.cart_id
			  AND o.payment_status=$4 AND o.payment_proof IS NULL
			RETURNING o.cart_id, o.warehouse_id, o.invoice, o.total_cents, c.user_id`,
			orderID, StatusCanceled, source, StatusPending).
			Scan(&cartID, &warehouseID, &invoice, &totalCents, &cartUserID)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return r.explainMiss(ctx, orderID, userID, StatusCanceled)
	} else if err != nil {
		return err
	}

	// Reaktivasi cart lama, kecuali user sudah keburu buka cart aktif
	// baru: index unik satu-cart-aktif-per-user tidak boleh dilanggar.
	if _, err := tx.Exec(ctx, `
		UPDATE carts SET is_active=true
		WHERE id=$1 AND NOT EXISTS (
			SELECT 1 FROM carts c2 WHERE c2.user_id = carts.user_id AND c2.is_active
		)`, cartID); err != nil {
		return err
	}

	rows, err := tx.Query(ctx, `SELECT product_id, qty FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return err
	}
	type rec struct {
		pid string
		qty int
	}
	var recs []rec
	for rows.Next() {
		var x rec
		if err := rows.Scan(&x.pid, &x.qty); err != nil {
			rows.Close()
			return err
		}
		recs = append(recs, x)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, x := range recs {
		if err := warehouse.Restock(ctx, tx, x.pid, warehouseID, x.qty,
			fmt.Sprintf("cancel %s", invoice)); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO transaction_histories (id, user_id, order_id, amount_cents, type)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), cartUserID, orderID, totalCents, HistoryRefund); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
