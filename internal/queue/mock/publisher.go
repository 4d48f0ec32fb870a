package mock

import (
	"context"
	"sync"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/queue"
)

// Ensure Publisher implements queue.Publisher.
var _ queue.Publisher = (*Publisher)(nil)

// Publisher is a mock message publisher for testing.
type Publisher struct {
	mu        sync.Mutex
	Published []*domain.Submission
	PublishFn func(ctx context.Context, s *domain.Submission) error
}

// NewPublisher creates a new mock publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

func (m *Publisher) Publish(ctx context.Context, s *domain.Submission) error {
	if m.PublishFn != nil {
		return m.PublishFn(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, s.Clone())
	return nil
}

// Count returns how many submissions were published.
func (m *Publisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Published)
}

func (m *Publisher) Close() error {
	return nil
}
