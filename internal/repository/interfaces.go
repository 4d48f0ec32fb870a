package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/shodhacode/judge/internal/domain"
)

// SubmissionRepository defines the interface for submission persistence.
// Implementations must be safe for concurrent use.
type SubmissionRepository interface {
	// Create inserts a new submission.
	Create(ctx context.Context, s *domain.Submission) error

	// Save writes the submission's current state. A stored terminal state is never replaced.
	Save(ctx context.Context, s *domain.Submission) error

	// GetByID retrieves a submission by its UUID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error)

	// ListRecent returns up to limit submissions, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.Submission, error)
}

// ProblemRepository defines the interface for problem lookup.
type ProblemRepository interface {
	// FindWithTestCases returns the problem with its test cases in stored order.
	FindWithTestCases(ctx context.Context, id int64) (*domain.Problem, error)

	// List returns every problem ordered by id. Test cases are not loaded.
	List(ctx context.Context) ([]*domain.Problem, error)

	// Create stores a problem and its test cases, assigning the id.
	Create(ctx context.Context, p *domain.Problem) error
}

// OwnershipLock gives a single worker exclusive ownership of a submission.
type OwnershipLock interface {
	// AcquireLock returns true if the lock was acquired, false if another worker owns it.
	AcquireLock(ctx context.Context, submissionID uuid.UUID) (bool, error)

	// ReleaseLock lets the lock expire so the key is eventually cleaned up.
	ReleaseLock(ctx context.Context, submissionID uuid.UUID) error
}

// Executor runs one program against one input.
type Executor interface {
	Run(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionOutcome, error)
}
