package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/repository"
)

// ---- SubmissionRepository mock ----

var _ repository.SubmissionRepository = (*SubmissionRepository)(nil)

// SubmissionRepository is an in-memory test double for repository.SubmissionRepository.
// Hooks replace the default behaviour; every Save is recorded.
type SubmissionRepository struct {
	mu          sync.Mutex
	submissions map[uuid.UUID]*domain.Submission

	CreateFn     func(ctx context.Context, s *domain.Submission) error
	SaveFn       func(ctx context.Context, s *domain.Submission) error
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.Submission, error)
	ListRecentFn func(ctx context.Context, limit int) ([]*domain.Submission, error)

	// Recorded calls for assertions.
	Saves []*domain.Submission
}

// NewSubmissionRepository creates an empty mock repository.
func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{submissions: make(map[uuid.UUID]*domain.Submission)}
}

// Put stores s directly, bypassing hooks.
func (m *SubmissionRepository) Put(s *domain.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[s.ID] = s.Clone()
}

// Statuses returns the status of every recorded Save, in call order.
func (m *SubmissionRepository) Statuses() []domain.SubmissionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SubmissionStatus, len(m.Saves))
	for i, s := range m.Saves {
		out[i] = s.Status
	}
	return out
}

func (m *SubmissionRepository) Create(ctx context.Context, s *domain.Submission) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, s)
	}
	m.Put(s)
	return nil
}

func (m *SubmissionRepository) Save(ctx context.Context, s *domain.Submission) error {
	m.mu.Lock()
	m.Saves = append(m.Saves, s.Clone())
	m.mu.Unlock()
	if m.SaveFn != nil {
		return m.SaveFn(ctx, s)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.submissions[s.ID]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	if !stored.Status.IsTerminal() {
		m.submissions[s.ID] = s.Clone()
	}
	return nil
}

func (m *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	return s.Clone(), nil
}

func (m *SubmissionRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Submission, error) {
	if m.ListRecentFn != nil {
		return m.ListRecentFn(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Submission
	for _, s := range m.submissions {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.Clone())
	}
	return out, nil
}

// ---- ProblemRepository mock ----

var _ repository.ProblemRepository = (*ProblemRepository)(nil)

// ProblemRepository is a test double for repository.ProblemRepository.
type ProblemRepository struct {
	mu       sync.Mutex
	problems map[int64]*domain.Problem

	FindFn func(ctx context.Context, id int64) (*domain.Problem, error)

	FindCalls []int64
}

// NewProblemRepository creates a mock holding the given problems.
func NewProblemRepository(problems ...*domain.Problem) *ProblemRepository {
	m := &ProblemRepository{problems: make(map[int64]*domain.Problem)}
	for _, p := range problems {
		m.problems[p.ID] = p.Clone()
	}
	return m
}

func (m *ProblemRepository) FindWithTestCases(ctx context.Context, id int64) (*domain.Problem, error) {
	m.mu.Lock()
	m.FindCalls = append(m.FindCalls, id)
	m.mu.Unlock()
	if m.FindFn != nil {
		return m.FindFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.problems[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrProblemNotFound, id)
	}
	return p.Clone(), nil
}

func (m *ProblemRepository) List(context.Context) ([]*domain.Problem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Problem
	for _, p := range m.problems {
		c := p.Clone()
		c.TestCases = nil
		out = append(out, c)
	}
	return out, nil
}

func (m *ProblemRepository) Create(_ context.Context, p *domain.Problem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = int64(len(m.problems) + 1)
	}
	m.problems[p.ID] = p.Clone()
	return nil
}

// ---- OwnershipLock mock ----

var _ repository.OwnershipLock = (*OwnershipLock)(nil)

// OwnershipLock is a test double for repository.OwnershipLock.
type OwnershipLock struct {
	mu sync.Mutex

	AcquireLockFn func(ctx context.Context, submissionID uuid.UUID) (bool, error)
	ReleaseLockFn func(ctx context.Context, submissionID uuid.UUID) error

	AcquireCalls []uuid.UUID
	ReleaseCalls []uuid.UUID
}

func (m *OwnershipLock) AcquireLock(ctx context.Context, submissionID uuid.UUID) (bool, error) {
	m.mu.Lock()
	m.AcquireCalls = append(m.AcquireCalls, submissionID)
	m.mu.Unlock()
	if m.AcquireLockFn != nil {
		return m.AcquireLockFn(ctx, submissionID)
	}
	return true, nil // default: lock acquired
}

func (m *OwnershipLock) ReleaseLock(ctx context.Context, submissionID uuid.UUID) error {
	m.mu.Lock()
	m.ReleaseCalls = append(m.ReleaseCalls, submissionID)
	m.mu.Unlock()
	if m.ReleaseLockFn != nil {
		return m.ReleaseLockFn(ctx, submissionID)
	}
	return nil
}

// ---- Executor mock ----

var _ repository.Executor = (*Executor)(nil)

// Executor is a test double for repository.Executor.
type Executor struct {
	mu sync.Mutex

	RunFn func(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionOutcome, error)

	RunCalls []*domain.ExecutionRequest
}

// Calls returns a copy of the recorded requests.
func (m *Executor) Calls() []*domain.ExecutionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.ExecutionRequest(nil), m.RunCalls...)
}

func (m *Executor) Run(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionOutcome, error) {
	m.mu.Lock()
	m.RunCalls = append(m.RunCalls, req)
	m.mu.Unlock()
	if m.RunFn != nil {
		return m.RunFn(ctx, req)
	}
	return &domain.ExecutionOutcome{
		Kind:       domain.OutcomeOK,
		Stdout:     "Hello, World!\n",
		TimeUsedMs: 42,
	}, nil
}
