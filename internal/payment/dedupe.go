// AngelaMos | 2026
// dedupe.go

package payment

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

// Deduper short-circuits repeated gateway deliveries before any store
// access. The order transition check remains the source of truth.
//
// FirstDelivery takes a short in-flight claim; Confirm extends it once the
// notification has been applied. A claim left by a crashed process expires
// on its own so later gateway retries are still processed.
type Deduper interface {
	FirstDelivery(ctx context.Context, orderID, outcome string) (bool, error)
	Confirm(ctx context.Context, orderID, outcome string) error
	Release(ctx context.Context, orderID, outcome string) error
}

const (
	defaultDedupeTTL   = 24 * time.Hour
	defaultInflightTTL = 2 * time.Minute
)

type RedisDeduper struct {
	client   *redis.Client
	ttl      time.Duration
	inflight time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = defaultDedupeTTL
	}
	return &RedisDeduper{
		client:   client,
		ttl:      ttl,
		inflight: min(defaultInflightTTL, ttl),
	}
}

func dedupeKey(orderID, outcome string) string {
	return "webhook:" + orderID + ":" + outcome
}

func (d *RedisDeduper) FirstDelivery(ctx context.Context, orderID, outcome string) (bool, error) {
	return d.client.SetNX(ctx, dedupeKey(orderID, outcome), time.Now().Unix(), d.inflight).Result()
}

func (d *RedisDeduper) Confirm(ctx context.Context, orderID, outcome string) error {
	return d.client.Expire(ctx, dedupeKey(orderID, outcome), d.ttl).Err()
}

func (d *RedisDeduper) Release(ctx context.Context, orderID, outcome string) error {
	return d.client.Del(ctx, dedupeKey(orderID, outcome)).Err()
}

type NopDeduper struct{}

func (NopDeduper) FirstDelivery(context.Context, string, string) (bool, error) {
	return true, nil
}

func (NopDeduper) Confirm(context.Context, string, string) error { return nil }

func (NopDeduper) Release(context.Context, string, string) error { return nil }

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
