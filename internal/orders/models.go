package orders

import "time"

type Order struct {
	ID                 string              `json:"id"`
	Invoice            string              `json:"invoice"`
	ExternalID         string              `json:"external_id"`
	CartID             string              `json:"cart_id"`
	AddressID          string              `json:"address_id"`
	WarehouseID        string              `json:"warehouse_id"`
	PaymentStatus      Status              `json:"payment_status"`
	PaymentMethod      string              `json:"payment_method"`
	PaymentProof       *string             `json:"payment_proof,omitempty"`
	ShippingCostCents  int                 `json:"shipping_cost_cents"`
	TotalCents         int                 `json:"total_cents"`
	ExpirePayment      time.Time           `json:"expire_payment"`
	ShippedAt          *time.Time          `json:"shipped_at,omitempty"`
	CancellationSource *CancellationSource `json:"cancellation_source,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type OrderItem struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
	TotalCents int    `json:"total_cents"`
}

type Cart struct {
	ID       string
	UserID   string
	IsActive bool
}

const (
	HistoryPurchase = "PURCHASE"
	HistoryRefund   = "REFUND"
)

// TransactionHistory: ledger append-only per user.
type TransactionHistory struct {
	ID          string
	UserID      string
	OrderID     string
	AmountCents int
	Type        string // PURCHASE | REFUND
	CreatedAt   time.Time
}
