package statuscache

import (
	"encoding/json"
	"testing"

	"github.com/ariefcatur/go-warehouse-orders.git/internal/orders"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	s, ok := statusFor(orders.EventOrderCreated)
	require.True(t, ok)
	require.Equal(t, orders.StatusPending, s)

	s, ok = statusFor(orders.EventOrderPaid)
	require.True(t, ok)
	require.Equal(t, orders.StatusPaid, s)

	s, ok = statusFor(orders.EventOrderCanceled)
	require.True(t, ok)
	require.Equal(t, orders.StatusCanceled, s)

	// stock.transferred bukan perubahan status order
	_, ok = statusFor(orders.EventStockTransferred)
	require.False(t, ok)
}

func TestOrderIDFromCorrelation(t *testing.T) {
	id, err := orderIDFrom(orders.Envelope{CorrelationID: "order-1"})
	require.NoError(t, err)
	require.Equal(t, "order-1", id)
}

// Producer lama gak ngisi correlation id: ambil order_id dari payload.
func TestOrderIDFromPayloadFallback(t *testing.T) {
	id, err := orderIDFrom(orders.Envelope{
		Payload: json.RawMessage(`{"order_id":"order-2","source":"USER"}`),
	})
	require.NoError(t, err)
	require.Equal(t, "order-2", id)
}

func TestOrderIDFromBrokenPayload(t *testing.T) {
	_, err := orderIDFrom(orders.Envelope{Payload: json.RawMessage(`not-json`)})
	require.Error(t, err)
}
