package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

const orderKeyPrefix = "order:"

// RedisOrderCache keeps the joined order representation as JSON.
type RedisOrderCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisOrderCache(rdb redis.Cmdable, ttl time.Duration) *RedisOrderCache {
	return &RedisOrderCache{rdb: rdb, ttl: ttl}
}

func (c *RedisOrderCache) Get(ctx context.Context, id string) (*domain.Order, bool, error) {
	b, err := c.rdb.Get(ctx, orderKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var o domain.Order
	if err := json.Unmarshal(b, &o); err != nil {
		// unreadable entry, treat as a miss and let the next Set overwrite it
		return nil, false, nil
	}
	return &o, true, nil
}

func (c *RedisOrderCache) Set(ctx context.Context, o *domain.Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, orderKeyPrefix+o.ID, b, c.ttl).Err()
}

func (c *RedisOrderCache) Evict(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, orderKeyPrefix+id).Err()
}

var _ usecase.OrderCache = (*RedisOrderCache)(nil)
