package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/repository"
)

// ProblemsUsecase serves the read-only problem catalogue.
type ProblemsUsecase struct {
	repo   repository.ProblemRepository
	logger *zap.Logger
}

// NewProblemsUsecase creates a new ProblemsUsecase.
func NewProblemsUsecase(repo repository.ProblemRepository, logger *zap.Logger) *ProblemsUsecase {
	return &ProblemsUsecase{repo: repo, logger: logger}
}

// List returns every problem without test cases.
func (uc *ProblemsUsecase) List(ctx context.Context) ([]*domain.Problem, error) {
	out, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	return out, nil
}

// Get returns one problem. Test cases are loaded but never serialised to clients.
func (uc *ProblemsUsecase) Get(ctx context.Context, id int64) (*domain.Problem, error) {
	p, err := uc.repo.FindWithTestCases(ctx, id)
	if errors.Is(err, domain.ErrProblemNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("get problem: %w", err)
	}
	return p, nil
}
