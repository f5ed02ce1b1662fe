package redisx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Cache bungkus client Redis untuk dua concern handler: idempotency
// checkout dan cache status order. Redis cuma fast-path, DB tetap
// jadi kebenaran.
type Cache struct{ R *redis.Client }

func (c *Cache) IdemOrderID(ctx context.Context, externalID string) (string, bool) {
	id, err := c.R.Get(ctx, fmt.Sprintf(KeyIdemCheckout, externalID)).Result()
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

func (c *Cache) RememberIdem(ctx context.Context, externalID, orderID string) {
	_ = c.R.Set(ctx, fmt.Sprintf(KeyIdemCheckout, externalID), orderID, TTLIdempotency).Err()
}

func (c *Cache) SetStatus(ctx context.Context, orderID, status string) {
	body, _ := json.Marshal(map[string]string{"status": status})
	_ = c.R.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), body, TTLStatusCache).Err()
}

// Status balikin body JSON yang ke-cache, apa adanya.
func (c *Cache) Status(ctx context.Context, orderID string) (string, bool) {
	s, err := c.R.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Result()
	if err != nil || s == "" {
		return "", false
	}
	return s, true
}
