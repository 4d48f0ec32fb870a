// Package bootstrap opens the stores, lock and judging pipeline both binaries share.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/config"
	"github.com/shodhacode/judge/internal/executor"
	"github.com/shodhacode/judge/internal/judge"
	"github.com/shodhacode/judge/internal/repository"
	"github.com/shodhacode/judge/internal/repository/memory"
	"github.com/shodhacode/judge/internal/repository/postgres"
	redisrepo "github.com/shodhacode/judge/internal/repository/redis"
	"github.com/shodhacode/judge/internal/usecase"
)

// Stores holds the submission and problem repositories for the configured driver.
type Stores struct {
	Submissions repository.SubmissionRepository
	Problems    repository.ProblemRepository
	// Checks are health probes for the backing services, keyed by service name.
	Checks map[string]func(ctx context.Context) error

	closers []func()
}

// Close releases every connection opened by Open.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Open connects the store and the ownership lock selected by cfg.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, repository.OwnershipLock, error) {
	s := &Stores{Checks: make(map[string]func(ctx context.Context) error)}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		dbPool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		s.closers = append(s.closers, dbPool.Close)
		if err := dbPool.Ping(ctx); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, dbPool); err != nil {
			s.Close()
			return nil, nil, err
		}
		logger.Info("Connected to PostgreSQL")

		s.Submissions = postgres.NewSubmissionRepository(dbPool)
		s.Problems = postgres.NewProblemRepository(dbPool)
		s.Checks["postgres"] = dbPool.Ping
	default:
		s.Submissions = memory.NewSubmissionRepository()
		s.Problems = memory.NewProblemRepository()
		logger.Info("Using in-memory store")
	}

	if cfg.Redis.URL == "" {
		return s, memory.NewOwnershipLock(), nil
	}

	redisOpts, err := goredis.ParseURL(cfg.Redis.URL)
	if err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("bootstrap: parse redis url: %w", err)
	}
	rdb := goredis.NewClient(redisOpts)
	s.closers = append(s.closers, func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("bootstrap: ping redis: %w", err)
	}
	logger.Info("Connected to Redis")
	s.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

	return s, redisrepo.NewOwnershipLock(rdb), nil
}

// NewJudge wires sandbox, runner and the judge use case.
func NewJudge(cfg *config.Config, stores *Stores, lock repository.OwnershipLock, logger *zap.Logger) *usecase.JudgeSubmissionUsecase {
	sandbox := executor.NewSandboxExecutor(executor.Options{
		WorkRoot:       cfg.Judge.WorkRoot,
		CompileTimeout: cfg.Judge.CompileTimeout,
		MaxOutputBytes: cfg.Judge.MaxOutputBytes,
	}, logger)
	runner := judge.NewRunner(sandbox, cfg.Judge.TimeLimit, logger)
	return usecase.NewJudgeSubmissionUsecase(stores.Submissions, stores.Problems, lock, runner, logger)
}
