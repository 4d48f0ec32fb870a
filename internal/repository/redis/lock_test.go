package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

func newTestLock(t *testing.T) (*miniredis.Miniredis, *redisLock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewOwnershipLock(client).(*redisLock)
}

func TestAcquireLock_FirstOwnerWins(t *testing.T) {
	_, lock := newTestLock(t)
	ctx := context.Background()
	id := uuid.New()

	ok, err := lock.AcquireLock(ctx, id)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	ok, err = lock.AcquireLock(ctx, id)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Error("expected duplicate acquire to fail")
	}

	other, _ := lock.AcquireLock(ctx, uuid.New())
	if !other {
		t.Error("locks for different submissions must be independent")
	}
}

func TestAcquireLock_KeyExpires(t *testing.T) {
	mr, lock := newTestLock(t)
	ctx := context.Background()
	id := uuid.New()

	if ok, _ := lock.AcquireLock(ctx, id); !ok {
		t.Fatal("expected lock")
	}
	if !mr.Exists(lockKey(id)) {
		t.Fatalf("expected key %s", lockKey(id))
	}
	if ttl := mr.TTL(lockKey(id)); ttl != lockTTL {
		t.Errorf("expected ttl %v, got %v", lockTTL, ttl)
	}

	if err := lock.ReleaseLock(ctx, id); err != nil {
		t.Fatalf("release: %v", err)
	}

	mr.FastForward(lockTTL + 1)
	if mr.Exists(lockKey(id)) {
		t.Error("expected lock key to expire")
	}
	if ok, _ := lock.AcquireLock(ctx, id); !ok {
		t.Error("expected lock to be acquirable after expiry")
	}
}

func TestAcquireLock_RedisDown(t *testing.T) {
	mr, lock := newTestLock(t)
	mr.Close()

	if _, err := lock.AcquireLock(context.Background(), uuid.New()); err == nil {
		t.Error("expected error when redis is unavailable")
	}
}
