package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/shodhacode/judge/internal/repository"
)

var _ repository.OwnershipLock = (*OwnershipLock)(nil)

// OwnershipLock is the single-process counterpart of the Redis lock. An id is held only while
// its submission is being judged; the store's terminal guard stops a later re-judge.
type OwnershipLock struct {
	mu    sync.Mutex
	owned map[uuid.UUID]struct{}
}

// NewOwnershipLock creates an empty lock set.
func NewOwnershipLock() *OwnershipLock {
	return &OwnershipLock{owned: make(map[uuid.UUID]struct{})}
}

func (l *OwnershipLock) AcquireLock(_ context.Context, submissionID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.owned[submissionID]; ok {
		return false, nil
	}
	l.owned[submissionID] = struct{}{}
	return true, nil
}

func (l *OwnershipLock) ReleaseLock(_ context.Context, submissionID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.owned, submissionID)
	return nil
}

// Held returns how many submissions are currently owned.
func (l *OwnershipLock) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.owned)
}
