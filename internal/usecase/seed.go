package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/repository"
)

// SampleProblems are loaded into an empty store so a fresh install has something to solve.
func SampleProblems() []*domain.Problem {
	return []*domain.Problem{
		{
			Title:     "Sum Two Numbers",
			Statement: "Read two integers separated by a space and print their sum.",
			TestCases: []domain.TestCase{
				{Input: "2 3", ExpectedOutput: "5"},
				{Input: "10 20", ExpectedOutput: "30"},
				{Input: "-5 3", ExpectedOutput: "-2"},
			},
		},
		{
			Title:     "Echo Input",
			Statement: "Read a line and print it unchanged.",
			TestCases: []domain.TestCase{
				{Input: "Hello World", ExpectedOutput: "Hello World"},
				{Input: "Shodh-a-Code", ExpectedOutput: "Shodh-a-Code"},
				{Input: "123", ExpectedOutput: "123"},
			},
		},
	}
}

// SeedSampleData stores SampleProblems if the problem store is empty. It returns the number
// of problems created.
func SeedSampleData(ctx context.Context, repo repository.ProblemRepository, logger *zap.Logger) (int, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: list problems: %w", err)
	}
	if len(existing) > 0 {
		logger.Debug("Problem store not empty, skipping seed", zap.Int("problems", len(existing)))
		return 0, nil
	}

	for _, p := range SampleProblems() {
		if err := repo.Create(ctx, p); err != nil {
			return 0, fmt.Errorf("seed: create problem %q: %w", p.Title, err)
		}
		logger.Info("Seeded sample problem", zap.Int64("problem_id", p.ID), zap.String("title", p.Title))
	}
	return len(SampleProblems()), nil
}
