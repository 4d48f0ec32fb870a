package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/language"
	"github.com/shodhacode/judge/internal/metrics"
	"github.com/shodhacode/judge/internal/queue"
	"github.com/shodhacode/judge/internal/repository"
)

const (
	// MaxSourceCodeSize is the largest accepted submission body.
	MaxSourceCodeSize = 1 << 20 // 1 MB

	// MsgEnqueueFailed is stored on a submission that could not be queued.
	MsgEnqueueFailed = "failed to enqueue submission"
)

// SubmitSubmissionUsecase validates a submission, stores it as PENDING and queues it.
type SubmitSubmissionUsecase struct {
	submissions repository.SubmissionRepository
	problems    repository.ProblemRepository
	publisher   queue.Publisher
	logger      *zap.Logger
}

// NewSubmitSubmissionUsecase creates a new SubmitSubmissionUsecase.
func NewSubmitSubmissionUsecase(
	submissions repository.SubmissionRepository,
	problems repository.ProblemRepository,
	pub queue.Publisher,
	logger *zap.Logger,
) *SubmitSubmissionUsecase {
	return &SubmitSubmissionUsecase{
		submissions: submissions,
		problems:    problems,
		publisher:   pub,
		logger:      logger,
	}
}

// Execute validates the request, persists the PENDING submission and publishes it.
// The record exists before the message does, so a worker never sees an unknown id.
func (uc *SubmitSubmissionUsecase) Execute(ctx context.Context, req *domain.SubmitRequest) (*domain.SubmitResponse, error) {
	if strings.TrimSpace(req.UserName) == "" {
		metrics.SubmissionsReceived.WithLabelValues("invalid").Inc()
		return nil, domain.ErrMissingUserName
	}
	if strings.TrimSpace(req.Code) == "" {
		metrics.SubmissionsReceived.WithLabelValues("invalid").Inc()
		return nil, domain.ErrEmptySourceCode
	}
	if len(req.Code) > MaxSourceCodeSize {
		metrics.SubmissionsReceived.WithLabelValues("invalid").Inc()
		return nil, domain.ErrPayloadTooLarge
	}

	if _, err := uc.problems.FindWithTestCases(ctx, req.ProblemID); err != nil {
		metrics.SubmissionsReceived.WithLabelValues("invalid").Inc()
		if errors.Is(err, domain.ErrProblemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup problem: %w", err)
	}

	if !language.Default.IsKnown(req.Language) {
		uc.logger.Warn("Submission for unknown language will be judged as java",
			zap.String("language", req.Language),
		)
	}

	// Generate UUIDv7 (time-ordered)
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate UUIDv7: %w", err)
	}

	now := time.Now().UTC()
	s := &domain.Submission{
		ID:        id,
		UserName:  strings.TrimSpace(req.UserName),
		ProblemID: req.ProblemID,
		ContestID: req.ContestID,
		Language:  req.Language,
		Code:      req.Code,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.submissions.Create(ctx, s); err != nil {
		uc.logger.Error("Failed to create submission", zap.Error(err), zap.String("submission_id", id.String()))
		return nil, fmt.Errorf("create submission: %w", err)
	}

	if err := uc.publisher.Publish(ctx, s); err != nil {
		uc.logger.Error("Failed to publish submission to queue", zap.Error(err), zap.String("submission_id", id.String()))
		metrics.SubmissionsReceived.WithLabelValues("enqueue_failed").Inc()
		uc.markEnqueueFailed(ctx, s)
		return nil, fmt.Errorf("%w: %w", domain.ErrPublishFailed, err)
	}

	metrics.SubmissionsReceived.WithLabelValues("accepted").Inc()
	uc.logger.Info("Submission queued",
		zap.String("submission_id", id.String()),
		zap.String("user", s.UserName),
		zap.Int64("problem_id", s.ProblemID),
		zap.String("language", s.Language),
	)

	return &domain.SubmitResponse{SubmissionID: id}, nil
}

// markEnqueueFailed moves a submission that will never be judged to a terminal state.
func (uc *SubmitSubmissionUsecase) markEnqueueFailed(ctx context.Context, s *domain.Submission) {
	if err := s.Transition(domain.StatusRuntimeError); err != nil {
		return
	}
	s.Result = MsgEnqueueFailed
	if err := uc.submissions.Save(context.WithoutCancel(ctx), s); err != nil {
		uc.logger.Error("Failed to mark unqueued submission", zap.Error(err), zap.String("submission_id", s.ID.String()))
	}
}
