package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizprep-backend/internal/config"
)

// ErrQueueEmpty is returned by Pop when nothing arrived before the timeout.
var ErrQueueEmpty = errors.New("queue empty")

// ResultQueue is the Redis list carrying finished practice runs to the results worker.
type ResultQueue struct {
	rdb  *redis.Client
	key  string
	dead string
}

// NewResultQueue creates a new ResultQueue on the results list.
func NewResultQueue(rdb *redis.Client) *ResultQueue {
	return &ResultQueue{rdb: rdb, key: config.WorkerKey.PersistResults, dead: config.WorkerKey.DeadResults}
}

// Push appends an encoded result.
func (q *ResultQueue) Push(ctx context.Context, payload []byte) error {
	return q.rdb.RPush(ctx, q.key, payload).Err()
}

// Pop blocks up to timeout for the next encoded result.
func (q *ResultQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	item, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQueueEmpty
		}
		return nil, err
	}
	if len(item) < 2 {
		return nil, ErrQueueEmpty
	}
	return []byte(item[1]), nil
}

// Bury parks a payload that can never be processed on the dead-letter list.
func (q *ResultQueue) Bury(ctx context.Context, payload []byte) error {
	return q.rdb.RPush(ctx, q.dead, payload).Err()
}
