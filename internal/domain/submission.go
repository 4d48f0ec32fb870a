package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus represents the judging lifecycle state of a submission.
type SubmissionStatus string

const (
	StatusPending          SubmissionStatus = "PENDING"
	StatusRunning          SubmissionStatus = "RUNNING"
	StatusAccepted         SubmissionStatus = "ACCEPTED"
	StatusWrongAnswer      SubmissionStatus = "WRONG_ANSWER"
	StatusRuntimeError     SubmissionStatus = "RUNTIME_ERROR"
	StatusTimedOut         SubmissionStatus = "TIMED_OUT"
	StatusCompilationError SubmissionStatus = "COMPILATION_ERROR"
)

// TerminalStatuses lists every final state, in declaration order.
var TerminalStatuses = []SubmissionStatus{
	StatusAccepted,
	StatusWrongAnswer,
	StatusRuntimeError,
	StatusTimedOut,
	StatusCompilationError,
}

// IsTerminal returns true if the status represents a final state.
func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusWrongAnswer, StatusRuntimeError,
		StatusTimedOut, StatusCompilationError:
		return true
	}
	return false
}

// IsValid reports whether s is one of the known statuses.
func (s SubmissionStatus) IsValid() bool {
	return s == StatusPending || s == StatusRunning || s.IsTerminal()
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle forward-only.
// PENDING may go to RUNNING or straight to a terminal state (intake failures); RUNNING may
// only go to a terminal state; terminal states never change.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next.IsTerminal()
	case StatusRunning:
		return next.IsTerminal()
	}
	return false
}

// Submission is one attempt to solve a problem and its evolving judgment state.
type Submission struct {
	ID           uuid.UUID        `json:"id"`
	UserName     string           `json:"userName"`
	ProblemID    int64            `json:"problemId"`
	ContestID    *int64           `json:"contestId,omitempty"`
	Language     string           `json:"language"`
	Code         string           `json:"code"`
	Status       SubmissionStatus `json:"status"`
	Result       string           `json:"result"`
	RunTimeMs    *int64           `json:"runTime,omitempty"`
	MemoryUsedKB *int64           `json:"memoryUsed,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Transition moves the submission to next, refusing anything that would revert the lifecycle.
func (s *Submission) Transition(next SubmissionStatus) error {
	if !s.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, next)
	}
	s.Status = next
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Clone returns a deep copy, so stores never share mutable state with callers.
func (s *Submission) Clone() *Submission {
	c := *s
	if s.ContestID != nil {
		v := *s.ContestID
		c.ContestID = &v
	}
	if s.RunTimeMs != nil {
		v := *s.RunTimeMs
		c.RunTimeMs = &v
	}
	if s.MemoryUsedKB != nil {
		v := *s.MemoryUsedKB
		c.MemoryUsedKB = &v
	}
	return &c
}

// SubmitRequest represents an incoming submission from the API.
type SubmitRequest struct {
	UserName  string `json:"userName"`
	ProblemID int64  `json:"problemId" binding:"required"`
	ContestID *int64 `json:"contestId,omitempty"`
	Language  string `json:"language" binding:"required"`
	Code      string `json:"code"`
}

// SubmitResponse is returned after a successful submission.
type SubmitResponse struct {
	SubmissionID uuid.UUID `json:"submissionId"`
}

// SubmissionView is the client-facing projection of a submission. It never carries the code.
type SubmissionView struct {
	ID           uuid.UUID        `json:"id"`
	UserName     string           `json:"userName"`
	ProblemID    int64            `json:"problemId"`
	Language     string           `json:"language"`
	Status       SubmissionStatus `json:"status"`
	Result       string           `json:"result"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	RunTimeMs    *int64           `json:"runTime"`
	MemoryUsedKB *int64           `json:"memoryUsed"`
}

// View projects the submission for clients.
func (s *Submission) View() *SubmissionView {
	return &SubmissionView{
		ID:           s.ID,
		UserName:     s.UserName,
		ProblemID:    s.ProblemID,
		Language:     s.Language,
		Status:       s.Status,
		Result:       s.Result,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		RunTimeMs:    s.RunTimeMs,
		MemoryUsedKB: s.MemoryUsedKB,
	}
}

// SubmissionMessage is a queued submission together with its delivery callbacks.
// In-process queues use no-op callbacks; broker-backed queues ack or nack the delivery.
type SubmissionMessage struct {
	Submission *Submission
	Ack        func() error
	Nack       func(requeue bool) error
}

// NewLocalMessage wraps a submission in a message whose callbacks do nothing.
func NewLocalMessage(s *Submission) *SubmissionMessage {
	return &SubmissionMessage{
		Submission: s,
		Ack:        func() error { return nil },
		Nack:       func(bool) error { return nil },
	}
}
