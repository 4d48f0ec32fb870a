package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/config"
	"github.com/shodhacode/judge/internal/repository/memory"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Store.Driver = config.DriverMemory
	cfg.Queue.Driver = config.DriverMemory
	cfg.Worker.PoolSize = 1
	cfg.Judge.TimeLimit = 1
	return cfg
}

func TestOpen_MemoryDefaults(t *testing.T) {
	stores, lock, err := Open(context.Background(), memoryConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer stores.Close()

	if _, ok := lock.(*memory.OwnershipLock); !ok {
		t.Errorf("expected in-memory lock without REDIS_URL, got %T", lock)
	}
	if len(stores.Checks) != 0 {
		t.Errorf("expected no health checks, got %d", len(stores.Checks))
	}
	if NewJudge(memoryConfig(), stores, lock, zap.NewNop()) == nil {
		t.Error("expected judge use case")
	}
}

func TestOpen_RedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.Redis.URL = "redis://" + mr.Addr()

	stores, lock, err := Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer stores.Close()

	id := uuid.New()
	ok, err := lock.AcquireLock(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("AcquireLock = %v, %v", ok, err)
	}
	if !mr.Exists("judge:lock:" + id.String()) {
		t.Error("expected lock key in redis")
	}
	if err := stores.Checks["redis"](context.Background()); err != nil {
		t.Errorf("redis health check: %v", err)
	}
}

func TestOpen_BadRedisURL(t *testing.T) {
	cfg := memoryConfig()
	cfg.Redis.URL = "://nope"

	if _, _, err := Open(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Error("expected error for malformed redis url")
	}
}
