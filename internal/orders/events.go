package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated     = "OrderCreated"
	EventOrderPaid        = "OrderPaid"
	EventOrderCanceled    = "OrderCanceled"
	EventStockTransferred = "StockTransferred"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID     string    `json:"order_id"`
	ExternalID  string    `json:"external_id"`
	Invoice     string    `json:"invoice"`
	UserID      string    `json:"user_id"`
	WarehouseID string    `json:"warehouse_id"`
	Items       []ItemQty `json:"items"`
	TotalCents  int       `json:"total_cents"`
}

type OrderPaidPayload struct {
	OrderID      string    `json:"order_id"`
	PaymentProof string    `json:"payment_proof"`
	ShippedAt    time.Time `json:"shipped_at"`
}

type OrderCanceledPayload struct {
	OrderID string             `json:"order_id"`
	Source  CancellationSource `json:"source"`
}

type TransferInfo struct {
	ProductID       string `json:"product_id"`
	FromWarehouseID string `json:"from_warehouse_id"`
	ToWarehouseID   string `json:"to_warehouse_id"`
	Qty             int    `json:"qty"`
}

type StockTransferredPayload struct {
	OrderID   string         `json:"order_id"`
	Transfers []TransferInfo `json:"transfers"`
}
