//go:build integration

package executor

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
)

// Integration tests need the real toolchains on PATH.
// Run with: go test -tags integration -v ./internal/executor/

func skipUnlessInstalled(t *testing.T, tools ...string) {
	t.Helper()
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not found in PATH, skipping integration test", tool)
		}
	}
}

func newIntegrationExecutor(t *testing.T) *SandboxExecutor {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	return NewSandboxExecutor(Options{WorkRoot: t.TempDir()}, logger)
}

func runIntegration(t *testing.T, lang, code, input string, limit time.Duration) *domain.ExecutionOutcome {
	t.Helper()
	exe := newIntegrationExecutor(t)
	out, err := exe.Run(context.Background(), &domain.ExecutionRequest{
		SubmissionID: uuid.New(),
		Language:     lang,
		Code:         code,
		Input:        input,
		TimeLimit:    limit,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func TestIntegration_PythonSum(t *testing.T) {
	skipUnlessInstalled(t, "python3")

	out := runIntegration(t, "python", "a, b = map(int, input().split())\nprint(a + b)\n", "2 3", 10*time.Second)
	if out.Kind != domain.OutcomeOK || strings.TrimSpace(out.Stdout) != "5" {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestIntegration_PythonInfiniteLoop(t *testing.T) {
	skipUnlessInstalled(t, "python3")

	out := runIntegration(t, "python", "while True:\n    pass\n", "", time.Second)
	if !out.TimedOut() {
		t.Errorf("expected TIMEOUT, got %s", out.Kind)
	}
}

func TestIntegration_PythonException(t *testing.T) {
	skipUnlessInstalled(t, "python3")

	out := runIntegration(t, "python", "raise ValueError('bad')\n", "", 10*time.Second)
	if out.Kind != domain.OutcomeNonZeroExit || !strings.Contains(out.Stderr, "ValueError") {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestIntegration_JavaEcho(t *testing.T) {
	skipUnlessInstalled(t, "javac", "java")

	code := `import java.util.Scanner;
public class Main {
    public static void main(String[] args) {
        Scanner sc = new Scanner(System.in);
        System.out.println(sc.nextLine());
    }
}
`
	out := runIntegration(t, "java", code, "Hello World", 30*time.Second)
	if out.Kind != domain.OutcomeOK || strings.TrimSpace(out.Stdout) != "Hello World" {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestIntegration_JavaCompileError(t *testing.T) {
	skipUnlessInstalled(t, "javac", "java")

	out := runIntegration(t, "java", "public class Main { broken }", "", 30*time.Second)
	if out.Kind != domain.OutcomeCompileError {
		t.Errorf("expected COMPILE_ERROR, got %s", out.Kind)
	}
}

func TestIntegration_CppSum(t *testing.T) {
	skipUnlessInstalled(t, "g++")

	code := `#include <iostream>
int main() { long a, b; std::cin >> a >> b; std::cout << a + b << std::endl; return 0; }
`
	out := runIntegration(t, "cpp", code, "10 20", 10*time.Second)
	if out.Kind != domain.OutcomeOK || strings.TrimSpace(out.Stdout) != "30" {
		t.Errorf("unexpected outcome: %+v", out)
	}
	if out.MemoryUsedKB <= 0 {
		t.Errorf("expected memory usage to be recorded, got %d", out.MemoryUsedKB)
	}
}
