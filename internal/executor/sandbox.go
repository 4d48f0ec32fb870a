package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/language"
	"github.com/shodhacode/judge/internal/metrics"
	"github.com/shodhacode/judge/internal/repository"
)

const (
	// DefaultTimeLimit bounds a single run when the request carries no limit.
	DefaultTimeLimit = 10 * time.Second

	// DefaultCompileTimeout bounds the compile phase of compiled languages.
	DefaultCompileTimeout = 10 * time.Second

	// InputFilename is the file the test input is written to inside the workspace.
	InputFilename = "input.txt"

	// waitDelay is how long Wait keeps draining pipes after the process group is killed.
	waitDelay = 2 * time.Second

	outputTruncatedMsg = "\n... output truncated ..."
)

var _ repository.Executor = (*SandboxExecutor)(nil)

// SandboxError reports a failure of the sandbox itself: the workspace, a file or the process
// could not be set up. It is never caused by the submitted program.
type SandboxError struct {
	Op  string
	Err error
}

func (e *SandboxError) Error() string {
	return fmt.Sprintf("sandbox: %s: %v", e.Op, e.Err)
}

func (e *SandboxError) Unwrap() error {
	return e.Err
}

// Options configures a SandboxExecutor. Zero values select the defaults.
type Options struct {
	// WorkRoot is the parent of every run directory. Defaults to $TMPDIR/shodhacode.
	WorkRoot       string
	CompileTimeout time.Duration
	// MaxOutputBytes caps captured stdout and stderr each; 0 captures everything.
	MaxOutputBytes int
	Languages      *language.Table
}

// SandboxExecutor runs one program against one input in a fresh directory, as a child
// process in its own process group.
type SandboxExecutor struct {
	workRoot       string
	compileTimeout time.Duration
	maxOutput      int
	languages      *language.Table
	removeAll      func(string) error
	logger         *zap.Logger
}

// NewSandboxExecutor creates a new sandbox executor.
func NewSandboxExecutor(opts Options, logger *zap.Logger) *SandboxExecutor {
	if opts.WorkRoot == "" {
		opts.WorkRoot = filepath.Join(os.TempDir(), "shodhacode")
	}
	if opts.CompileTimeout <= 0 {
		opts.CompileTimeout = DefaultCompileTimeout
	}
	if opts.Languages == nil {
		opts.Languages = language.Default
	}
	return &SandboxExecutor{
		workRoot:       opts.WorkRoot,
		compileTimeout: opts.CompileTimeout,
		maxOutput:      opts.MaxOutputBytes,
		languages:      opts.Languages,
		removeAll:      os.RemoveAll,
		logger:         logger,
	}
}

// WorkRoot returns the directory run workspaces are created under.
func (e *SandboxExecutor) WorkRoot() string {
	return e.workRoot
}

// Run builds (if the language needs it) and runs req.Code with req.Input on stdin.
// Program failures are reported in the outcome; only sandbox failures return an error.
func (e *SandboxExecutor) Run(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionOutcome, error) {
	outcome, err := e.run(ctx, req)
	if err != nil {
		metrics.SandboxFailures.Inc()
		return nil, err
	}
	return outcome, nil
}

func (e *SandboxExecutor) run(ctx context.Context, req *domain.ExecutionRequest) (*domain.ExecutionOutcome, error) {
	profile := e.languages.ProfileFor(req.Language)
	if !e.languages.IsKnown(req.Language) {
		e.logger.Warn("Unknown language, using fallback profile",
			zap.String("submission_id", req.SubmissionID.String()),
			zap.String("language", req.Language),
			zap.String("profile", profile.Name),
		)
	}

	if err := os.MkdirAll(e.workRoot, 0o755); err != nil {
		return nil, &SandboxError{Op: "create work root", Err: err}
	}
	workDir, err := os.MkdirTemp(e.workRoot, req.SubmissionID.String()+"-*")
	if err != nil {
		return nil, &SandboxError{Op: "create workspace", Err: err}
	}
	defer e.cleanup(workDir, req)

	if err := os.WriteFile(filepath.Join(workDir, profile.Filename), []byte(req.Code), 0o644); err != nil {
		return nil, &SandboxError{Op: "write source", Err: err}
	}
	inputPath := filepath.Join(workDir, InputFilename)
	if err := os.WriteFile(inputPath, []byte(req.Input), 0o644); err != nil {
		return nil, &SandboxError{Op: "write input", Err: err}
	}

	// Phase 1: compile
	if profile.Compiled() {
		compiled, err := e.execute(ctx, workDir, profile.Compile, "", e.compileTimeout)
		if err != nil {
			return nil, &SandboxError{Op: "compile", Err: err}
		}
		if compiled.timedOut {
			return timeoutOutcome(compiled), nil
		}
		if compiled.exitCode != 0 {
			diag := compiled.stderr
			if diag == "" {
				diag = compiled.stdout
			}
			return &domain.ExecutionOutcome{
				Kind:         domain.OutcomeCompileError,
				Stdout:       compiled.stdout,
				Stderr:       compiled.stderr,
				Diagnostic:   diag,
				ExitCode:     compiled.exitCode,
				TimeUsedMs:   compiled.elapsed.Milliseconds(),
				MemoryUsedKB: compiled.maxRSSKB,
			}, nil
		}
	}

	// Phase 2: execute
	limit := req.TimeLimit
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	res, err := e.execute(ctx, workDir, profile.Run, inputPath, limit)
	if err != nil {
		return nil, &SandboxError{Op: "run", Err: err}
	}

	e.logger.Debug("Sandbox run completed",
		zap.String("submission_id", req.SubmissionID.String()),
		zap.String("language", profile.Name),
		zap.Duration("elapsed", res.elapsed),
		zap.Int("exit_code", res.exitCode),
		zap.Bool("timed_out", res.timedOut),
		zap.Int64("memory_used_kb", res.maxRSSKB),
	)

	if res.timedOut {
		return timeoutOutcome(res), nil
	}

	outcome := &domain.ExecutionOutcome{
		Kind:         domain.OutcomeOK,
		Stdout:       res.stdout,
		Stderr:       res.stderr,
		ExitCode:     res.exitCode,
		TimeUsedMs:   res.elapsed.Milliseconds(),
		MemoryUsedKB: res.maxRSSKB,
	}
	if res.exitCode != 0 {
		outcome.Kind = domain.OutcomeNonZeroExit
		outcome.Diagnostic = res.stderr
	}
	return outcome, nil
}

type processResult struct {
	stdout   string
	stderr   string
	exitCode int
	timedOut bool
	elapsed  time.Duration
	maxRSSKB int64
}

// execute runs argv inside workDir with the given deadline. The whole process group is
// killed when the deadline passes, and Wait always returns before the workspace is removed.
func (e *SandboxExecutor) execute(ctx context.Context, workDir string, argv []string, stdinPath string, limit time.Duration) (*processResult, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, argv[0], argv[1:]...)
	cmd.Dir = workDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	var killed atomic.Bool
	cmd.Cancel = func() error {
		killed.Store(true)
		// Negative pid signals the whole group, including anything the program forked.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	if stdinPath != "" {
		stdin, err := os.Open(stdinPath)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer stdin.Close()
		cmd.Stdin = stdin
	}

	stdout := &limitedBuffer{limit: e.maxOutput}
	stderr := &limitedBuffer{limit: e.maxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	startTime := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}
	waitErr := cmd.Wait()
	elapsed := time.Since(startTime)

	res := &processResult{
		stdout:  truncateOutput(stdout.String(), stdout.truncated),
		stderr:  truncateOutput(stderr.String(), stderr.truncated),
		elapsed: elapsed,
	}
	if cmd.ProcessState != nil {
		res.exitCode = cmd.ProcessState.ExitCode()
		if ru, ok := cmd.ProcessState.SysUsage().(*syscall.Rusage); ok {
			res.maxRSSKB = int64(ru.Maxrss) // kilobytes on Linux
		}
	}

	deadlineHit := ctx.Err() == nil && errors.Is(timeoutCtx.Err(), context.DeadlineExceeded)
	if deadlineKilled(killed.Load(), deadlineHit, cmd.ProcessState) {
		res.timedOut = true
		res.exitCode = -1
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		// A late kill of a program that already exited surfaces as the deadline or ESRCH.
		lateKill := errors.Is(waitErr, context.DeadlineExceeded) || errors.Is(waitErr, syscall.ESRCH)
		if !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) && !lateKill {
			return nil, fmt.Errorf("wait: %w", waitErr)
		}
	}
	return res, nil
}

// deadlineKilled reports whether a run ended because the deadline kill reached it. A program
// that exited on its own while the deadline fired is not a timeout.
func deadlineKilled(killed, deadlineHit bool, state *os.ProcessState) bool {
	if !killed || !deadlineHit {
		return false
	}
	if state == nil {
		return true
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	return !ok || !ws.Exited()
}

func timeoutOutcome(res *processResult) *domain.ExecutionOutcome {
	return &domain.ExecutionOutcome{
		Kind:         domain.OutcomeTimeout,
		Stdout:       res.stdout,
		Stderr:       res.stderr,
		Diagnostic:   domain.DiagnosticTimeLimit,
		ExitCode:     -1,
		TimeUsedMs:   res.elapsed.Milliseconds(),
		MemoryUsedKB: res.maxRSSKB,
	}
}

// cleanup removes the workspace. A failure is logged and counted, never returned.
func (e *SandboxExecutor) cleanup(workDir string, req *domain.ExecutionRequest) {
	if err := e.removeAll(workDir); err != nil {
		metrics.WorkspaceCleanupFailures.Inc()
		e.logger.Warn("Failed to remove sandbox workspace",
			zap.String("submission_id", req.SubmissionID.String()),
			zap.String("work_dir", workDir),
			zap.Error(err),
		)
	}
}

// limitedBuffer is a bytes.Buffer that stops accepting writes after a limit.
// A limit of zero or less never truncates.
type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (lb *limitedBuffer) Write(p []byte) (n int, err error) {
	if lb.limit <= 0 {
		return lb.buf.Write(p)
	}
	if lb.truncated {
		return len(p), nil // discard silently
	}

	remaining := lb.limit - lb.buf.Len()
	if remaining <= 0 {
		lb.truncated = true
		return len(p), nil
	}

	n = len(p)
	if len(p) > remaining {
		lb.truncated = true
		p = p[:remaining]
	}
	if _, err := lb.buf.Write(p); err != nil {
		return 0, err
	}
	return n, nil
}

func (lb *limitedBuffer) String() string {
	return lb.buf.String()
}

// truncateOutput appends a truncation notice if the output was cut off.
func truncateOutput(s string, wasTruncated bool) string {
	if wasTruncated {
		return s + outputTruncatedMsg
	}
	return s
}
