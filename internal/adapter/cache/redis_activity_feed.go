package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/aq2208/stockroom-api/internal/logging"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

const activityKey = "activity:recent"

// RedisActivityFeed is a capped list, newest first.
type RedisActivityFeed struct {
	rdb   redis.Cmdable
	limit int
}

func NewRedisActivityFeed(rdb redis.Cmdable, limit int) *RedisActivityFeed {
	if limit <= 0 {
		limit = 50
	}
	return &RedisActivityFeed{rdb: rdb, limit: limit}
}

func (f *RedisActivityFeed) Push(ctx context.Context, a usecase.Activity) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = f.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, activityKey, b)
		p.LTrim(ctx, activityKey, 0, int64(f.limit-1))
		return nil
	})
	return err
}

func (f *RedisActivityFeed) Recent(ctx context.Context, n int) ([]usecase.Activity, error) {
	if n <= 0 || n > f.limit {
		n = f.limit
	}
	raw, err := f.rdb.LRange(ctx, activityKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]usecase.Activity, 0, len(raw))
	for _, s := range raw {
		var a usecase.Activity
		if err := json.Unmarshal([]byte(s), &a); err != nil {
			logging.FromCtx(ctx).Warn("skip unreadable activity entry", "err", err)
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

var _ usecase.ActivityFeed = (*RedisActivityFeed)(nil)
