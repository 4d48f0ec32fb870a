package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/bootstrap"
	"github.com/shodhacode/judge/internal/config"
	handler "github.com/shodhacode/judge/internal/delivery/http"
	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/language"
	"github.com/shodhacode/judge/internal/logging"
	"github.com/shodhacode/judge/internal/pool"
	"github.com/shodhacode/judge/internal/queue"
	"github.com/shodhacode/judge/internal/queue/rabbitmq"
	"github.com/shodhacode/judge/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting judge server",
		zap.String("store", cfg.Store.Driver),
		zap.String("queue", cfg.Queue.Driver),
		zap.Bool("worker_enabled", cfg.Worker.Enabled),
	)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, lock, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open stores", zap.Error(err))
	}
	defer stores.Close()

	if cfg.Seed {
		if _, err := usecase.SeedSampleData(ctx, stores.Problems, logger); err != nil {
			logger.Fatal("Failed to seed sample problems", zap.Error(err))
		}
	}

	// Queue
	var (
		pub  queue.Publisher
		jobs <-chan *domain.SubmissionMessage
	)
	checks := stores.Checks
	switch cfg.Queue.Driver {
	case config.DriverAMQP:
		rmq, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, logger)
		if err != nil {
			logger.Fatal("Failed to initialize RabbitMQ publisher", zap.Error(err))
		}
		pub = rmq
		checks["rabbitmq"] = rmq.Ping
		logger.Info("Connected to RabbitMQ")

		if cfg.Worker.Enabled {
			ch := make(chan *domain.SubmissionMessage)
			consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ.URL, cfg.Worker.PoolSize, ch, logger)
			if err != nil {
				logger.Fatal("Failed to initialize AMQP consumer", zap.Error(err))
			}
			defer consumer.Close()
			go func() {
				if err := consumer.Start(ctx); err != nil {
					logger.Error("AMQP consumer error", zap.Error(err))
				}
			}()
			jobs = ch
		}
	default:
		mq := queue.NewMemoryQueue(cfg.Queue.Capacity, logger)
		pub = mq
		jobs = mq.Messages()
	}

	// Start worker pool
	var workerPool *pool.WorkerPool
	if cfg.Worker.Enabled {
		judgeUC := bootstrap.NewJudge(cfg, stores, lock, logger)
		workerPool = pool.NewWorkerPool(cfg.Worker.PoolSize, jobs, judgeUC, logger)
		workerPool.Start(ctx)
	} else if cfg.Queue.Driver == config.DriverMemory {
		logger.Warn("WORKER_ENABLED=false with the memory queue: submissions will stay PENDING")
	}

	// Initialize router
	router := handler.NewRouter(&handler.RouterDeps{
		SubmitUC:     usecase.NewSubmitSubmissionUsecase(stores.Submissions, stores.Problems, pub, logger),
		GetUC:        usecase.NewGetSubmissionUsecase(stores.Submissions, logger),
		ProblemsUC:   usecase.NewProblemsUsecase(stores.Problems, logger),
		Languages:    language.Default,
		HealthChecks: checks,
		Logger:       logger,
		RateLimit:    cfg.Server.RateLimit,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("API server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down judge server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop taking work, then wait for in-flight submissions to be persisted.
	cancel()
	if workerPool != nil {
		workerPool.Stop()
	}
	if err := pub.Close(); err != nil {
		logger.Warn("Failed to close queue", zap.Error(err))
	}

	logger.Info("Judge server stopped")
}
