package pool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/metrics"
	"github.com/shodhacode/judge/internal/usecase"
)

// DefaultSize is the number of workers when none is configured.
const DefaultSize = 2

// WorkerPool manages a fixed-size pool of goroutines that judge submissions.
type WorkerPool struct {
	size    int
	jobs    <-chan *domain.SubmissionMessage
	judgeUC *usecase.JudgeSubmissionUsecase
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new fixed-size worker pool.
func NewWorkerPool(size int, jobs <-chan *domain.SubmissionMessage, judgeUC *usecase.JudgeSubmissionUsecase, logger *zap.Logger) *WorkerPool {
	if size < 1 {
		size = DefaultSize
	}
	return &WorkerPool{
		size:    size,
		jobs:    jobs,
		judgeUC: judgeUC,
		logger:  logger,
	}
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return p.size
}

// Start launches all worker goroutines. Cancelling ctx stops them from taking new work;
// a submission already being judged runs to completion. Call Stop to wait for them.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("pool_size", p.size))

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop waits for all workers to finish their current submission and exit.
func (p *WorkerPool) Stop() {
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Worker shutting down", zap.Int("worker_id", id))
			return
		case msg, ok := <-p.jobs:
			if !ok {
				p.logger.Debug("Submission channel closed", zap.Int("worker_id", id))
				return
			}
			// In-flight work must reach a terminal state even during shutdown.
			p.process(context.WithoutCancel(ctx), id, msg)
		}
	}
}

func (p *WorkerPool) process(ctx context.Context, workerID int, msg *domain.SubmissionMessage) {
	s := msg.Submission

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker panic recovered",
				zap.Int("worker_id", workerID),
				zap.String("submission_id", s.ID.String()),
				zap.Any("panic", r),
			)
			p.nack(msg)
		}
	}()

	p.logger.Info("Worker processing submission",
		zap.Int("worker_id", workerID),
		zap.String("submission_id", s.ID.String()),
		zap.String("language", s.Language),
	)

	startTime := time.Now()
	isDuplicate, err := p.judge(ctx, s)

	if err != nil {
		p.logger.Error("Submission judging failed",
			zap.Int("worker_id", workerID),
			zap.String("submission_id", s.ID.String()),
			zap.Duration("elapsed", time.Since(startTime)),
			zap.Error(err),
		)
		metrics.SubmissionsTotal.WithLabelValues(s.Language, "error").Inc()
		p.nack(msg)
		return
	}

	if isDuplicate {
		p.logger.Debug("Duplicate submission skipped",
			zap.Int("worker_id", workerID),
			zap.String("submission_id", s.ID.String()),
		)
	}

	// Duplicates are acked too so the message leaves the queue.
	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Error("Failed to ACK message",
			zap.String("submission_id", s.ID.String()),
			zap.Error(ackErr),
		)
	}
}

// judge runs the use case while counting the worker as active, panics included.
func (p *WorkerPool) judge(ctx context.Context, s *domain.Submission) (bool, error) {
	metrics.WorkersActive.Inc()
	defer metrics.WorkersActive.Dec()
	return p.judgeUC.Execute(ctx, s)
}

// nack rejects without requeue: infrastructure failures go to the dead-letter queue, and
// requeueing a deterministic failure would loop forever.
func (p *WorkerPool) nack(msg *domain.SubmissionMessage) {
	if err := msg.Nack(false); err != nil {
		p.logger.Error("Failed to NACK message",
			zap.String("submission_id", msg.Submission.ID.String()),
			zap.Error(err),
		)
	}
}
