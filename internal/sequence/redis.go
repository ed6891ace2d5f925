package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix 是 Redis 中计数器键的前缀
const KeyPrefix = "seq:"

// RedisAllocator 使用 Redis INCR，键不存在时 INCR 视其为 0
type RedisAllocator struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisAllocator(rdb redis.Cmdable) *RedisAllocator {
	return &RedisAllocator{rdb: rdb, prefix: KeyPrefix}
}

func (a *RedisAllocator) Next(ctx context.Context, kind string) (int64, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	seq, err := a.rdb.Incr(ctx, a.prefix+kind).Result()
	if err != nil {
		return 0, fmt.Errorf("无法从Redis为 %s 分配序列号: %w", kind, err)
	}
	return seq, nil
}
