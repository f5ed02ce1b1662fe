package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-warehouse-orders.git/internal/warehouse"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ItemInput struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type Repo struct {
	DB *pgxpool.Pool

	// PENDING order kadaluarsa setelah Hold; shipped_at = paid + ShipOffset.
	Hold       time.Duration
	ShipOffset time.Duration
}

// checkout retry maksimal segini kalau kalah race version stok.
const maxCheckoutRetries = 3

type CheckoutInput struct {
	ExternalID    string
	UserID        string
	AddressID     string
	PaymentMethod string
	Origin        warehouse.Coordinate
	ShippingCents int
	Items         []ItemInput
}

type CheckoutResult struct {
	OrderID     string
	Invoice     string
	WarehouseID string
	TotalCents  int
	Transfers   []warehouse.Transfer
	Idempotent  bool
}

// Checkout: idempotent via external_id. Satu unit atomik: order PENDING +
// items + alokasi stok (termasuk transfer antar warehouse) + decrement stok +
// log OUT + deactivate cart + history PURCHASE. Kalah race version stok ->
// ulang seluruh tx, sampai maxCheckoutRetries.
func (r *Repo) Checkout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	// cek existing by external_id
	var res CheckoutResult
	err := r.DB.QueryRow(ctx, `
		SELECT id, invoice, warehouse_id, total_cents FROM orders WHERE external_id=$1`,
		in.ExternalID).Scan(&res.OrderID, &res.Invoice, &res.WarehouseID, &res.TotalCents)
	if err == nil {
		res.Idempotent = true
		return res, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return CheckoutResult{}, err
	}

	whs, err := (&warehouse.Repo{DB: r.DB}).ListWarehouses(ctx)
	if err != nil {
		return CheckoutResult{}, err
	}
	target, err := warehouse.Nearest(in.Origin, whs)
	if err != nil {
		return CheckoutResult{}, err // ErrNoWarehouse
	}

	for attempt := 0; ; attempt++ {
		res, err = r.checkoutOnce(ctx, in, whs, target.ID)
		if errors.Is(err, warehouse.ErrStockConflict) && attempt+1 < maxCheckoutRetries {
			continue
		}
		return res, err
	}
}

func (r *Repo) checkoutOnce(ctx context.Context, in CheckoutInput, whs []warehouse.Warehouse, targetID string) (CheckoutResult, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CheckoutResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cartID string
	err = tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1 AND is_active`, in.UserID).Scan(&cartID)
	if errors.Is(err, pgx.ErrNoRows) {
		return CheckoutResult{}, fmt.Errorf("active cart for user %s: %w", in.UserID, ErrNotFound)
	} else if err != nil {
		return CheckoutResult{}, err
	}

	// harga dari table products, jangan trust dari client
	productIDs := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		productIDs = append(productIDs, it.ProductID)
	}
	rows, err := tx.Query(ctx, `SELECT id, price_cents FROM products WHERE id = ANY($1::uuid[])`, productIDs)
	if err != nil {
		return CheckoutResult{}, err
	}
	prices := map[string]int{}
	for rows.Next() {
		var id string
		var price int
		if err := rows.Scan(&id, &price); err != nil {
			rows.Close()
			return CheckoutResult{}, err
		}
		prices[id] = price
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return CheckoutResult{}, err
	}

	total := in.ShippingCents
	reqs := make([]warehouse.Request, 0, len(in.Items))
	for _, it := range in.Items {
		price, ok := prices[it.ProductID]
		if !ok {
			return CheckoutResult{}, fmt.Errorf("product %s: %w", it.ProductID, ErrNotFound)
		}
		if it.Qty <= 0 {
			return CheckoutResult{}, fmt.Errorf("invalid qty for product %s", it.ProductID)
		}
		total += price * it.Qty
		reqs = append(reqs, warehouse.Request{ProductID: it.ProductID, Qty: it.Qty})
	}

	snapshot, err := warehouse.Snapshot(ctx, tx, productIDs)
	if err != nil {
		return CheckoutResult{}, err
	}
	plan, err := warehouse.PlanAllocation(warehouse.PlanInput{
		TargetID:   targetID,
		Origin:     in.Origin,
		Warehouses: whs,
		Stocks:     snapshot,
		Requests:   reqs,
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	now := time.Now().UTC()
	invoice := NewInvoice(now)
	orderID := uuid.NewString()

	if err := warehouse.ApplyPlan(ctx, tx, plan, snapshot, invoice); err != nil {
		return CheckoutResult{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, invoice, external_id, cart_id, address_id, warehouse_id,
		                    payment_status, payment_method, shipping_cost_cents, total_cents, expire_payment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		orderID, invoice, in.ExternalID, cartID, in.AddressID, targetID,
		StatusPending, in.PaymentMethod, in.ShippingCents, total, now.Add(r.Hold))
	if err != nil {
		return CheckoutResult{}, err
	}

	for _, it := range in.Items {
		price := prices[it.ProductID]
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, qty, price_cents, total_cents)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), orderID, it.ProductID, it.Qty, price, price*it.Qty); err != nil {
			return CheckoutResult{}, err
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE carts SET is_active=false WHERE id=$1`, cartID); err != nil {
		return CheckoutResult{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO transaction_histories (id, user_id, order_id, amount_cents, type)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), in.UserID, orderID, total, HistoryPurchase); err != nil {
		return CheckoutResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{
		OrderID:     orderID,
		Invoice:     invoice,
		WarehouseID: targetID,
		TotalCents:  total,
		Transfers:   plan.Transfers,
	}, nil
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (Order, []OrderItem, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, invoice, external_id, cart_id, address_id, warehouse_id, payment_status,
		       payment_method, payment_proof, shipping_cost_cents, total_cents, expire_payment,
		       shipped_at, cancellation_source, created_at, updated_at
		FROM orders WHERE id=$1`, orderID).Scan(
		&o.ID, &o.Invoice, &o.ExternalID, &o.CartID, &o.AddressID, &o.WarehouseID, &o.PaymentStatus,
		&o.PaymentMethod, &o.PaymentProof, &o.ShippingCostCents, &o.TotalCents, &o.ExpirePayment,
		&o.ShippedAt, &o.CancellationSource, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	} else if err != nil {
		return Order{}, nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, qty, price_cents, total_cents
		FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return Order{}, nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.PriceCents, &it.TotalCents); err != nil {
			return Order{}, nil, err
		}
		items = append(items, it)
	}
	return o, items, rows.Err()
}

func (r *Repo) GetOrderStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT payment_status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	} else if err != nil {
		return "", err
	}
	return Status(s), nil
}

// AttachPaymentProof simpan path proof, transisi PENDING -> PAID, dan stempel
// shipped_at = now + ShipOffset. Tidak nyentuh stok maupun cart.
func (r *Repo) AttachPaymentProof(ctx context.Context, userID, orderID, proofPath string) (time.Time, error) {
	shippedAt := time.Now().UTC().Add(r.ShipOffset)
	var id string
	err := r.DB.QueryRow(ctx, `
		UPDATE orders o SET payment_proof=$3, payment_status=$4, shipped_at=$5, updated_at=now()
		FROM carts c
		WHERE o.id=$1 AND c.id=o.cart_id AND c.user_id=$2 AND o.payment_status=$6
		RETURNING o.id`,
		orderID, userID, proofPath, StatusPaid, shippedAt, StatusPending).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, r.explainMiss(ctx, orderID, userID, StatusPaid)
	} else if err != nil {
		return time.Time{}, err
	}
	return shippedAt, nil
}

// explainMiss bedain NotFound vs ConflictingState setelah conditional
// update gak kena row. `to` itu status tujuan transisi yang barusan gagal.
func (r *Repo) explainMiss(ctx context.Context, orderID, userID string, to Status) error {
	var status Status
	var owner string
	err := r.DB.QueryRow(ctx, `
		SELECT o.payment_status, c.user_id FROM orders o
		JOIN carts c ON c.id=o.cart_id WHERE o.id=$1`, orderID).Scan(&status, &owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	} else if err != nil {
		return err
	}
	if userID != "" && owner != userID {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if !CanTransition(status, to) {
		return fmt.Errorf("order %s: %s -> %s not allowed: %w", orderID, status, to, ErrConflictingState)
	}
	// transisi sah tapi update tetap miss: guard lain yang nolak
	// (mis. cancel order yang sudah upload payment proof)
	return fmt.Errorf("order %s in status %s not eligible for %s: %w", orderID, status, to, ErrConflictingState)
}
