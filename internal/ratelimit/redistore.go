package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore — разделяемое хранилище счётчиков для multi-instance
// деплоя. INCR атомарен на стороне Redis, поэтому параллельные
// инкременты по одному ключу сериализуются без локов в приложении.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	full := s.prefix + key

	// INCR + EXPIRE одним round-trip. Ключ бакета уникален для окна,
	// так что TTL нужен только чтобы не копить мусор.
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, full)
	pipe.Expire(ctx, full, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
