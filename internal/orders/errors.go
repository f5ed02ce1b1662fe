package orders

import "errors"

var (
	// ErrNotFound: order/cart tidak ada, atau bukan punya user yang minta.
	ErrNotFound = errors.New("not found")

	// ErrConflictingState: order sudah lewat status yang bisa di-aksi
	// (misal cancel order yang sudah PAID atau sudah CANCELED).
	ErrConflictingState = errors.New("conflicting order state")
)
