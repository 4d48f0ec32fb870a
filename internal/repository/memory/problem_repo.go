package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/repository"
)

var _ repository.ProblemRepository = (*ProblemRepository)(nil)

// ProblemRepository keeps problems in memory and assigns sequential ids.
type ProblemRepository struct {
	mu       sync.RWMutex
	nextID   int64
	problems map[int64]*domain.Problem
}

// NewProblemRepository creates an empty store.
func NewProblemRepository() *ProblemRepository {
	return &ProblemRepository{nextID: 1, problems: make(map[int64]*domain.Problem)}
}

func (r *ProblemRepository) Create(_ context.Context, p *domain.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = r.nextID
	r.nextID++
	r.problems[p.ID] = p.Clone()
	return nil
}

func (r *ProblemRepository) FindWithTestCases(_ context.Context, id int64) (*domain.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.problems[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrProblemNotFound, id)
	}
	return p.Clone(), nil
}

func (r *ProblemRepository) List(_ context.Context) ([]*domain.Problem, error) {
	r.mu.RLock()
	out := make([]*domain.Problem, 0, len(r.problems))
	for _, p := range r.problems {
		c := p.Clone()
		c.TestCases = nil
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
