package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/shodhacode/judge/internal/repository"
)

var _ repository.OwnershipLock = (*redisLock)(nil)

const (
	lockKeyPrefix = "judge:lock:"
	lockTTL       = 10 * time.Minute
)

type redisLock struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewOwnershipLock creates a Redis-backed ownership lock using SETNX.
func NewOwnershipLock(client goredis.UniversalClient) repository.OwnershipLock {
	return &redisLock{client: client, ttl: lockTTL}
}

// AcquireLock uses Redis SETNX to atomically take ownership of a submission.
func (r *redisLock) AcquireLock(ctx context.Context, submissionID uuid.UUID) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKey(submissionID), time.Now().Unix(), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: acquire lock: %w", err)
	}
	return ok, nil
}

// ReleaseLock refreshes the TTL so the key outlives redeliveries, then expires.
func (r *redisLock) ReleaseLock(ctx context.Context, submissionID uuid.UUID) error {
	if err := r.client.Expire(ctx, lockKey(submissionID), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis: release lock: %w", err)
	}
	return nil
}

func lockKey(id uuid.UUID) string {
	return lockKeyPrefix + id.String()
}
