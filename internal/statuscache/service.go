package statuscache

import (
	"context"
	"encoding/json"
	"fmt"

	kafkax "github.com/ariefcatur/go-warehouse-orders.git/internal/kafka"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/orders"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Service dengerin event order dan ngangetin cache status di Redis,
// biar GET status gak perlu ke DB.
type Service struct {
	Redis       *redis.Client
	ServiceName string
	Log         zerolog.Logger
}

func statusFor(eventType string) (orders.Status, bool) {
	switch eventType {
	case orders.EventOrderCreated:
		return orders.StatusPending, true
	case orders.EventOrderPaid:
		return orders.StatusPaid, true
	case orders.EventOrderCanceled:
		return orders.StatusCanceled, true
	default:
		return "", false
	}
}

// orderRef: potongan payload yang sama di semua event order.
type orderRef struct {
	OrderID string `json:"order_id"`
}

// orderIDFrom ambil order id dari correlation id, atau fallback ke
// order_id di payload untuk producer lama yang belum ngisi correlation.
func orderIDFrom(env orders.Envelope) (string, error) {
	if env.CorrelationID != "" {
		return env.CorrelationID, nil
	}
	ref, err := kafkax.UnwrapPayload[orderRef](env.Payload)
	if err != nil {
		return "", err
	}
	return ref.OrderID, nil
}

// HandleOrderEvent: dipasang sebagai handler consumer.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	status, ok := statusFor(env.EventType)
	if !ok {
		return nil
	} // ignore

	// dedup via Redis (pakai event_id); SetNX atomik, first-writer wins
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	fresh, _ := s.Redis.SetNX(ctx, dkey, "1", redisx.TTLDedup).Result()
	if !fresh {
		return nil
	}

	orderID, err := orderIDFrom(env)
	if err != nil || orderID == "" {
		s.Log.Warn().Err(err).Str("event_id", env.EventID).Msg("event without order id, skipping")
		return nil
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	body, _ := json.Marshal(map[string]any{"status": status})
	return s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}
