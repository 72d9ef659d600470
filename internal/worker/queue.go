package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQueueEmpty is returned by Pop when nothing arrived within the timeout.
var ErrQueueEmpty = errors.New("queue empty")

// Queue is a FIFO of opaque payloads.
type Queue interface {
	Push(ctx context.Context, items ...[]byte) error
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// RedisQueue is a Queue backed by a Redis list.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key}
}

// Push appends items with a single pipelined round trip.
func (q *RedisQueue) Push(ctx context.Context, items ...[]byte) error {
	if len(items) == 1 {
		return q.rdb.RPush(ctx, q.key, items[0]).Err()
	}
	pipe := q.rdb.Pipeline()
	for _, it := range items {
		pipe.RPush(ctx, q.key, it)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Pop blocks for up to timeout, which must be >= 1s to satisfy Redis.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	result, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQueueEmpty
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, ErrQueueEmpty
	}
	return []byte(result[1]), nil
}
