// Package judge evaluates a program against a problem's test cases.
package judge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/metrics"
	"github.com/shodhacode/judge/internal/repository"
)

const (
	MsgAccepted  = "All test cases passed"
	MsgTimeLimit = domain.DiagnosticTimeLimit
)

// Runner runs test cases one after another and stops at the first failure.
type Runner struct {
	executor  repository.Executor
	timeLimit time.Duration
	logger    *zap.Logger
}

// NewRunner creates a Runner. timeLimit applies to each test case separately.
func NewRunner(executor repository.Executor, timeLimit time.Duration, logger *zap.Logger) *Runner {
	return &Runner{executor: executor, timeLimit: timeLimit, logger: logger}
}

// Evaluate runs code against every test case of problem in stored order and classifies the
// result. It never returns an error: sandbox failures become a RUNTIME_ERROR verdict.
// A problem with no test cases is accepted.
func (r *Runner) Evaluate(ctx context.Context, submissionID uuid.UUID, problem *domain.Problem, code, language string) domain.Verdict {
	var maxTime, maxMemory int64

	verdict := func(status domain.SubmissionStatus, msg string) domain.Verdict {
		return domain.Verdict{Status: status, Message: msg, RunTimeMs: maxTime, MemoryUsedKB: maxMemory}
	}

	for i, tc := range problem.TestCases {
		out, err := r.executor.Run(ctx, &domain.ExecutionRequest{
			SubmissionID: submissionID,
			Language:     language,
			Code:         code,
			Input:        tc.Input,
			TimeLimit:    r.timeLimit,
		})
		if err != nil {
			r.logger.Error("Sandbox failure",
				zap.String("submission_id", submissionID.String()),
				zap.Int("test_case", i+1),
				zap.Error(err),
			)
			metrics.TestCasesExecuted.WithLabelValues(language, "sandbox_error").Inc()
			return verdict(domain.StatusRuntimeError, "Execution error: "+err.Error())
		}

		metrics.TestCasesExecuted.WithLabelValues(language, string(out.Kind)).Inc()
		maxTime = max(maxTime, out.TimeUsedMs)
		maxMemory = max(maxMemory, out.MemoryUsedKB)

		if !out.Success() {
			switch out.Kind {
			case domain.OutcomeTimeout:
				return verdict(domain.StatusTimedOut, MsgTimeLimit)
			case domain.OutcomeCompileError:
				return verdict(domain.StatusCompilationError, "Compilation error: "+out.Diagnostic)
			default:
				return verdict(domain.StatusRuntimeError, "Runtime error: "+out.Diagnostic)
			}
		}

		if !OutputMatches(out.Stdout, tc.ExpectedOutput) {
			r.logger.Debug("Output mismatch",
				zap.String("submission_id", submissionID.String()),
				zap.Int("test_case", i+1),
			)
			return verdict(domain.StatusWrongAnswer, fmt.Sprintf("Wrong Answer on test case %d", i+1))
		}
	}

	return verdict(domain.StatusAccepted, MsgAccepted)
}

// OutputMatches compares program output with the expected output, ignoring leading and
// trailing whitespace on both.
func OutputMatches(actual, expected string) bool {
	return strings.TrimSpace(actual) == strings.TrimSpace(expected)
}
