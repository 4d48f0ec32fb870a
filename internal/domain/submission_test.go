package domain

import (
	"errors"
	"testing"
)

func TestSubmissionStatus_IsTerminal(t *testing.T) {
	for _, s := range TerminalStatuses {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	for _, s := range []SubmissionStatus{StatusPending, StatusRunning} {
		if s.IsTerminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestSubmissionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to SubmissionStatus
		want     bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusRuntimeError, true},
		{StatusPending, StatusPending, false},
		{StatusRunning, StatusAccepted, true},
		{StatusRunning, StatusTimedOut, true},
		{StatusRunning, StatusPending, false},
		{StatusRunning, StatusRunning, false},
		{StatusAccepted, StatusWrongAnswer, false},
		{StatusWrongAnswer, StatusRunning, false},
		{StatusCompilationError, StatusPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSubmission_TransitionIsMonotonic(t *testing.T) {
	s := &Submission{Status: StatusPending}

	if err := s.Transition(StatusRunning); err != nil {
		t.Fatalf("PENDING -> RUNNING: %v", err)
	}
	if err := s.Transition(StatusAccepted); err != nil {
		t.Fatalf("RUNNING -> ACCEPTED: %v", err)
	}

	for _, next := range append([]SubmissionStatus{StatusPending, StatusRunning}, TerminalStatuses...) {
		err := s.Transition(next)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("ACCEPTED -> %s: expected ErrInvalidTransition, got %v", next, err)
		}
		if s.Status != StatusAccepted {
			t.Fatalf("status changed after terminal: %s", s.Status)
		}
	}
}

func TestSubmission_CloneDoesNotShare(t *testing.T) {
	rt := int64(12)
	s := &Submission{Status: StatusRunning, RunTimeMs: &rt}

	c := s.Clone()
	*c.RunTimeMs = 99
	c.Status = StatusAccepted

	if *s.RunTimeMs != 12 {
		t.Errorf("clone shares RunTimeMs pointer")
	}
	if s.Status != StatusRunning {
		t.Errorf("clone shares status")
	}
}

func TestSubmission_ViewOmitsCode(t *testing.T) {
	s := &Submission{UserName: "alice", Code: "print(1)", Status: StatusPending}
	v := s.View()
	if v.UserName != "alice" || v.Status != StatusPending {
		t.Errorf("unexpected view: %+v", v)
	}
}

func TestExecutionOutcome_Success(t *testing.T) {
	for _, k := range []OutcomeKind{OutcomeNonZeroExit, OutcomeTimeout, OutcomeCompileError} {
		if (&ExecutionOutcome{Kind: k}).Success() {
			t.Errorf("%s must not count as success", k)
		}
	}
	if !(&ExecutionOutcome{Kind: OutcomeOK}).Success() {
		t.Error("OK must count as success")
	}
}
