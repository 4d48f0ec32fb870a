// Package memory provides in-process implementations of the repository interfaces, used when
// no database is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/repository"
)

var _ repository.SubmissionRepository = (*SubmissionRepository)(nil)

// SubmissionRepository keeps submissions in a map guarded by a RWMutex. Every read and
// write copies, so callers never share state with the store.
type SubmissionRepository struct {
	mu          sync.RWMutex
	submissions map[uuid.UUID]*domain.Submission
}

// NewSubmissionRepository creates an empty store.
func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{submissions: make(map[uuid.UUID]*domain.Submission)}
}

func (r *SubmissionRepository) Create(_ context.Context, s *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.submissions[s.ID]; exists {
		return fmt.Errorf("memory: create submission %s: already exists", s.ID)
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	r.submissions[s.ID] = s.Clone()
	return nil
}

func (r *SubmissionRepository) Save(_ context.Context, s *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.submissions[s.ID]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	if stored.Status.IsTerminal() {
		return nil
	}
	c := s.Clone()
	c.CreatedAt = stored.CreatedAt
	r.submissions[s.ID] = c
	return nil
}

func (r *SubmissionRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.submissions[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	return s.Clone(), nil
}

func (r *SubmissionRepository) ListRecent(_ context.Context, limit int) ([]*domain.Submission, error) {
	r.mu.RLock()
	out := make([]*domain.Submission, 0, len(r.submissions))
	for _, s := range r.submissions {
		out = append(out, s.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			// v7 ids are time ordered
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
