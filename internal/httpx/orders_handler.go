package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	kafkax "github.com/ariefcatur/go-warehouse-orders.git/internal/kafka"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/orders"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/warehouse"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// OrderStore adalah potongan *orders.Repo yang dipakai handler.
type OrderStore interface {
	Checkout(ctx context.Context, in orders.CheckoutInput) (orders.CheckoutResult, error)
	GetOrder(ctx context.Context, orderID string) (orders.Order, []orders.OrderItem, error)
	GetOrderStatus(ctx context.Context, orderID string) (orders.Status, error)
	Cancel(ctx context.Context, userID, orderID string, source orders.CancellationSource) error
	AttachPaymentProof(ctx context.Context, userID, orderID, proofPath string) (time.Time, error)
}

type WarehouseStore interface {
	ListWarehouses(ctx context.Context) ([]warehouse.Warehouse, error)
	ListTransferLogs(ctx context.Context, warehouseID string) ([]warehouse.StockTransferLog, error)
}

// StatusCache: fast-path idempotency + cache status. Implementasinya
// redisx.Cache; DB tetap jadi kebenaran kalau cache miss/nyasar.
type StatusCache interface {
	IdemOrderID(ctx context.Context, externalID string) (string, bool)
	RememberIdem(ctx context.Context, externalID, orderID string)
	SetStatus(ctx context.Context, orderID, status string)
	Status(ctx context.Context, orderID string) (string, bool)
}

type OrdersHandler struct {
	Repo       OrderStore
	Warehouses WarehouseStore

	ProducerCreated     *kafkax.Producer
	ProducerPaid        *kafkax.Producer
	ProducerCanceled    *kafkax.Producer
	ProducerTransferred *kafkax.Producer

	Cache    StatusCache
	Service  string
	AssetDir string
}

type CheckoutReq struct {
	ExternalID    string             `json:"external_id"`
	UserID        string             `json:"user_id"`
	AddressID     string             `json:"address_id"`
	PaymentMethod string             `json:"payment_method"`
	ShippingCents int                `json:"shipping_cost_cents"`
	Latitude      float64            `json:"latitude"`
	Longitude     float64            `json:"longitude"`
	Items         []orders.ItemInput `json:"items"`
}

type CheckoutResp struct {
	OrderID     string `json:"order_id"`
	Invoice     string `json:"invoice"`
	WarehouseID string `json:"warehouse_id"`
	TotalCents  int    `json:"total_cents"`
	Idempotent  bool   `json:"idempotent"`
}

type CancelReq struct {
	UserID string `json:"user_id"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.checkout)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getOrderStatus)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Post("/orders/{id}/payment-proof", h.uploadPaymentProof)
	r.Get("/warehouses/nearest", h.nearestWarehouse)
	r.Get("/warehouses/{id}/transfer-logs", h.transferLogs)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, warehouse.ErrNoWarehouse):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrConflictingState), errors.Is(err, warehouse.ErrStockConflict):
		return http.StatusConflict
	case errors.Is(err, warehouse.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
}

func (h *OrdersHandler) envelope(eventType, traceID, orderID string, payload any) []byte {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: orderID,
	}
	ev.Payload = kafkax.MustMarshal(payload)
	return kafkax.MustMarshal(ev)
}

func publish(p *kafkax.Producer, eventType, orderID string, value []byte) {
	p.Publish(orders.PartitionKey(orderID), value,
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ExternalID == "" || req.UserID == "" || req.AddressID == "" ||
		req.PaymentMethod == "" || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Fast-path idempotency: external_id yang sudah pernah checkout
	// langsung dijawab dari order lama, tanpa lewat jalur checkout.
	if orderID, ok := h.Cache.IdemOrderID(ctx, req.ExternalID); ok {
		if o, _, err := h.Repo.GetOrder(ctx, orderID); err == nil {
			writeJSON(w, http.StatusOK, CheckoutResp{
				OrderID:     o.ID,
				Invoice:     o.Invoice,
				WarehouseID: o.WarehouseID,
				TotalCents:  o.TotalCents,
				Idempotent:  true,
			})
			return
		}
		// cache nyasar: jatuh ke DB, external_id unik tetap kebenaran
	}

	res, err := h.Repo.Checkout(ctx, orders.CheckoutInput{
		ExternalID:    req.ExternalID,
		UserID:        req.UserID,
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
		Origin:        warehouse.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude},
		ShippingCents: req.ShippingCents,
		Items:         req.Items,
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	h.Cache.RememberIdem(ctx, req.ExternalID, res.OrderID)

	if !res.Idempotent {
		// Status cuma di-cache untuk order baru; replay tidak boleh
		// nimpa status terkini (order bisa sudah PAID).
		h.Cache.SetStatus(ctx, res.OrderID, string(orders.StatusPending))

		trace := r.Header.Get("X-Request-Id")
		items := make([]orders.ItemQty, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, orders.ItemQty{ProductID: it.ProductID, Qty: it.Qty})
		}
		publish(h.ProducerCreated, orders.EventOrderCreated, res.OrderID,
			h.envelope(orders.EventOrderCreated, trace, res.OrderID, orders.OrderCreatedPayload{
				OrderID:     res.OrderID,
				ExternalID:  req.ExternalID,
				Invoice:     res.Invoice,
				UserID:      req.UserID,
				WarehouseID: res.WarehouseID,
				Items:       items,
				TotalCents:  res.TotalCents,
			}))

		if len(res.Transfers) > 0 {
			transfers := make([]orders.TransferInfo, 0, len(res.Transfers))
			for _, t := range res.Transfers {
				transfers = append(transfers, orders.TransferInfo{
					ProductID:       t.ProductID,
					FromWarehouseID: t.FromWarehouseID,
					ToWarehouseID:   t.ToWarehouseID,
					Qty:             t.Qty,
				})
			}
			publish(h.ProducerTransferred, orders.EventStockTransferred, res.OrderID,
				h.envelope(orders.EventStockTransferred, trace, res.OrderID,
					orders.StockTransferredPayload{OrderID: res.OrderID, Transfers: transfers}))
		}
	}

	code := http.StatusCreated
	if res.Idempotent {
		code = http.StatusOK
	}
	writeJSON(w, code, CheckoutResp{
		OrderID:     res.OrderID,
		Invoice:     res.Invoice,
		WarehouseID: res.WarehouseID,
		TotalCents:  res.TotalCents,
		Idempotent:  res.Idempotent,
	})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, items, err := h.Repo.GetOrder(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": o, "items": items})
}

func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	if s, ok := h.Cache.Status(ctx, orderID); ok {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	// 2) fallback DB
	status, err := h.Repo.GetOrderStatus(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.Cache.SetStatus(ctx, orderID, string(status))
	writeJSON(w, http.StatusOK, map[string]any{"status": status})
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req CancelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Cancel(ctx, req.UserID, orderID, orders.SourceUser); err != nil {
		writeErr(w, err)
		return
	}

	h.Cache.SetStatus(ctx, orderID, string(orders.StatusCanceled))
	publish(h.ProducerCanceled, orders.EventOrderCanceled, orderID,
		h.envelope(orders.EventOrderCanceled, r.Header.Get("X-Request-Id"), orderID,
			orders.OrderCanceledPayload{OrderID: orderID, Source: orders.SourceUser}))

	writeJSON(w, http.StatusOK, map[string]string{"order_id": orderID, "status": string(orders.StatusCanceled)})
}

func (h *OrdersHandler) uploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	userID := r.FormValue("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user_id"})
		return
	}
	file, hdr, err := r.FormFile("proof")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing proof file"})
		return
	}
	defer file.Close()

	// simpan file dulu, path relatif yang masuk ke order
	relPath := filepath.Join("payment-proofs", uuid.NewString()+filepath.Ext(hdr.Filename))
	fullPath := filepath.Join(h.AssetDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		writeErr(w, err)
		return
	}
	dst, err := os.Create(fullPath)
	if err != nil {
		writeErr(w, err)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		_ = os.Remove(fullPath)
		writeErr(w, err)
		return
	}
	dst.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	shippedAt, err := h.Repo.AttachPaymentProof(ctx, userID, orderID, relPath)
	if err != nil {
		_ = os.Remove(fullPath)
		writeErr(w, err)
		return
	}

	h.Cache.SetStatus(ctx, orderID, string(orders.StatusPaid))
	publish(h.ProducerPaid, orders.EventOrderPaid, orderID,
		h.envelope(orders.EventOrderPaid, r.Header.Get("X-Request-Id"), orderID,
			orders.OrderPaidPayload{OrderID: orderID, PaymentProof: relPath, ShippedAt: shippedAt}))

	writeJSON(w, http.StatusOK, map[string]any{
		"order_id":      orderID,
		"status":        orders.StatusPaid,
		"payment_proof": relPath,
		"shipped_at":    shippedAt,
	})
}

func (h *OrdersHandler) nearestWarehouse(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lat/lon"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	whs, err := h.Warehouses.ListWarehouses(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	nearest, err := warehouse.Nearest(warehouse.Coordinate{Latitude: lat, Longitude: lon}, whs)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nearest)
}

func (h *OrdersHandler) transferLogs(w http.ResponseWriter, r *http.Request) {
	warehouseID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	logs, err := h.Warehouses.ListTransferLogs(ctx, warehouseID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"warehouse_id": warehouseID, "logs": logs})
}
