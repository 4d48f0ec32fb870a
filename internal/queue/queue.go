// Package queue hands PENDING submissions from intake to the worker pool.
package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/metrics"
)

// Publisher defines the interface for handing submissions to the judging workers.
type Publisher interface {
	Publish(ctx context.Context, s *domain.Submission) error
	Close() error
}

var _ Publisher = (*MemoryQueue)(nil)

// MemoryQueue is an unbounded (or optionally bounded) in-process FIFO. Publish never blocks;
// a pump goroutine hands items one at a time to whichever worker receives next, so the
// dequeue order equals the publish order.
type MemoryQueue struct {
	mu       sync.Mutex
	items    []*domain.Submission
	capacity int
	closed   bool

	notify chan struct{}
	done   chan struct{}
	out    chan *domain.SubmissionMessage
	logger *zap.Logger
}

// NewMemoryQueue creates a queue and starts its pump. A capacity of 0 means unbounded.
func NewMemoryQueue(capacity int, logger *zap.Logger) *MemoryQueue {
	q := &MemoryQueue{
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		out:      make(chan *domain.SubmissionMessage),
		logger:   logger,
	}
	go q.pump()
	return q
}

// Publish appends s to the tail of the queue.
func (q *MemoryQueue) Publish(_ context.Context, s *domain.Submission) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return domain.ErrQueueClosed
	}
	if q.capacity > 0 && len(q.items) >= q.capacity {
		q.mu.Unlock()
		return domain.ErrQueueFull
	}
	q.items = append(q.items, s)
	q.mu.Unlock()

	metrics.QueueDepth.Inc()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Messages returns the channel workers receive from. It is closed after Close.
func (q *MemoryQueue) Messages() <-chan *domain.SubmissionMessage {
	return q.out
}

// Len returns the number of submissions waiting to be picked up.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops the pump. Submissions still waiting are dropped and stay PENDING in the store.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.done)
	if len(q.items) > 0 {
		q.logger.Warn("Queue closed with pending submissions", zap.Int("pending", len(q.items)))
	}
	return nil
}

func (q *MemoryQueue) pump() {
	defer close(q.out)
	for {
		s, ok := q.next()
		if !ok {
			return
		}
		select {
		case q.out <- domain.NewLocalMessage(s):
			metrics.QueueDepth.Dec()
		case <-q.done:
			return
		}
	}
}

// next blocks until the head of the queue can be popped or the queue is closed.
func (q *MemoryQueue) next() (*domain.Submission, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			s := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return s, true
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-q.done:
			return nil, false
		}
	}
}
