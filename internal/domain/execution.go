package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeKind classifies how a single sandbox run ended.
type OutcomeKind string

const (
	OutcomeOK           OutcomeKind = "OK"
	OutcomeNonZeroExit  OutcomeKind = "NON_ZERO_EXIT"
	OutcomeTimeout      OutcomeKind = "TIMEOUT"
	OutcomeCompileError OutcomeKind = "COMPILE_ERROR"
)

// DiagnosticTimeLimit is the diagnostic carried by every timeout outcome.
const DiagnosticTimeLimit = "Time limit exceeded"

// ExecutionRequest is passed to the sandbox executor, once per test case.
type ExecutionRequest struct {
	SubmissionID uuid.UUID
	Language     string
	Code         string
	Input        string
	TimeLimit    time.Duration
}

// ExecutionOutcome is returned by the sandbox executor after a run completes.
// It is never persisted; the test runner consumes it immediately.
type ExecutionOutcome struct {
	Kind         OutcomeKind
	Stdout       string
	Stderr       string
	Diagnostic   string
	ExitCode     int
	TimeUsedMs   int64
	MemoryUsedKB int64
}

// Success reports whether the program built and exited with status zero in time.
func (o *ExecutionOutcome) Success() bool {
	return o.Kind == OutcomeOK
}

// TimedOut reports whether the run was killed at the deadline.
func (o *ExecutionOutcome) TimedOut() bool {
	return o.Kind == OutcomeTimeout
}

// Verdict is the final classification of a submission after evaluation.
type Verdict struct {
	Status       SubmissionStatus
	Message      string
	RunTimeMs    int64
	MemoryUsedKB int64
}
