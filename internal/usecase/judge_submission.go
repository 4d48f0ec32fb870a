package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/judge"
	"github.com/shodhacode/judge/internal/metrics"
	"github.com/shodhacode/judge/internal/repository"
)

// JudgeSubmissionUsecase orchestrates judging one dequeued submission.
type JudgeSubmissionUsecase struct {
	submissions repository.SubmissionRepository
	problems    repository.ProblemRepository
	lock        repository.OwnershipLock
	runner      *judge.Runner
	logger      *zap.Logger
}

// NewJudgeSubmissionUsecase creates a new JudgeSubmissionUsecase.
func NewJudgeSubmissionUsecase(
	submissions repository.SubmissionRepository,
	problems repository.ProblemRepository,
	lock repository.OwnershipLock,
	runner *judge.Runner,
	logger *zap.Logger,
) *JudgeSubmissionUsecase {
	return &JudgeSubmissionUsecase{
		submissions: submissions,
		problems:    problems,
		lock:        lock,
		runner:      runner,
		logger:      logger,
	}
}

// Execute judges one submission: ownership lock → RUNNING → evaluate → terminal state.
// Returns (isDuplicate, error). A returned error means the verdict could not be stored.
func (uc *JudgeSubmissionUsecase) Execute(ctx context.Context, queued *domain.Submission) (bool, error) {
	id := queued.ID

	// Step 1: ownership
	acquired, err := uc.lock.AcquireLock(ctx, id)
	if err != nil {
		uc.logger.Error("Failed to acquire ownership lock", zap.Error(err), zap.String("submission_id", id.String()))
		return false, err
	}
	if !acquired {
		uc.logger.Info("Duplicate delivery detected, skipping", zap.String("submission_id", id.String()))
		return true, nil
	}
	defer func() {
		if err := uc.lock.ReleaseLock(context.WithoutCancel(ctx), id); err != nil {
			uc.logger.Warn("Failed to release ownership lock", zap.Error(err), zap.String("submission_id", id.String()))
		}
	}()

	s, err := uc.submissions.GetByID(ctx, id)
	if err != nil {
		uc.logger.Error("Failed to load submission", zap.Error(err), zap.String("submission_id", id.String()))
		uc.closeWithError(ctx, queued, err)
		return false, fmt.Errorf("load submission: %w", err)
	}
	if s.Status.IsTerminal() {
		uc.logger.Info("Submission already judged, skipping",
			zap.String("submission_id", id.String()),
			zap.String("status", string(s.Status)),
		)
		return true, nil
	}

	// Step 2: RUNNING is visible before any test case runs
	if s.Status == domain.StatusPending {
		if err := s.Transition(domain.StatusRunning); err != nil {
			return false, err
		}
		if err := uc.submissions.Save(ctx, s); err != nil {
			uc.logger.Error("Failed to mark submission running", zap.Error(err), zap.String("submission_id", id.String()))
			uc.closeWithError(ctx, queued, err)
			return false, fmt.Errorf("save running: %w", err)
		}
	}

	// Step 3: evaluate
	startTime := time.Now()
	verdict := uc.evaluate(ctx, s)
	elapsed := time.Since(startTime)

	// Step 4: store the verdict
	if err := s.Transition(verdict.Status); err != nil {
		return false, err
	}
	s.Result = verdict.Message
	if verdict.RunTimeMs > 0 {
		s.RunTimeMs = &verdict.RunTimeMs
	}
	if verdict.MemoryUsedKB > 0 {
		s.MemoryUsedKB = &verdict.MemoryUsedKB
	}
	if err := uc.submissions.Save(ctx, s); err != nil {
		uc.logger.Error("Failed to store verdict", zap.Error(err), zap.String("submission_id", id.String()))
		return false, fmt.Errorf("save verdict: %w", err)
	}

	metrics.SubmissionsTotal.WithLabelValues(s.Language, string(s.Status)).Inc()
	metrics.SubmissionDuration.WithLabelValues(s.Language).Observe(elapsed.Seconds())

	uc.logger.Info("Submission judged",
		zap.String("submission_id", id.String()),
		zap.String("status", string(s.Status)),
		zap.String("result", s.Result),
		zap.Duration("elapsed", elapsed),
	)
	return false, nil
}

// closeWithError makes one attempt to store s as RUNTIME_ERROR so an infrastructure failure
// before evaluation does not leave the submission PENDING. The store keeps an existing
// terminal state.
func (uc *JudgeSubmissionUsecase) closeWithError(ctx context.Context, s *domain.Submission, cause error) {
	failed := s.Clone()
	if err := failed.Transition(domain.StatusRuntimeError); err != nil {
		return
	}
	failed.Result = "Runtime error: " + cause.Error()
	if err := uc.submissions.Save(context.WithoutCancel(ctx), failed); err != nil {
		uc.logger.Error("Failed to store runtime error",
			zap.Error(err),
			zap.String("submission_id", s.ID.String()),
		)
		return
	}
	metrics.SubmissionsTotal.WithLabelValues(failed.Language, string(failed.Status)).Inc()
}

// evaluate never panics and never fails: every problem becomes a RUNTIME_ERROR verdict.
func (uc *JudgeSubmissionUsecase) evaluate(ctx context.Context, s *domain.Submission) (verdict domain.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("Panic while judging submission",
				zap.String("submission_id", s.ID.String()),
				zap.Any("panic", r),
			)
			verdict = domain.Verdict{
				Status:  domain.StatusRuntimeError,
				Message: fmt.Sprintf("Runtime error: %v", r),
			}
		}
	}()

	problem, err := uc.problems.FindWithTestCases(ctx, s.ProblemID)
	if err != nil {
		if !errors.Is(err, domain.ErrProblemNotFound) {
			uc.logger.Error("Problem lookup failed", zap.Error(err), zap.Int64("problem_id", s.ProblemID))
		}
		return domain.Verdict{
			Status:  domain.StatusRuntimeError,
			Message: "Runtime error: " + err.Error(),
		}
	}

	return uc.runner.Evaluate(ctx, s.ID, problem, s.Code, s.Language)
}
