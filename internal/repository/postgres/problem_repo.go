package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/repository"
)

var _ repository.ProblemRepository = (*pgProblemRepo)(nil)

type pgProblemRepo struct {
	pool *pgxpool.Pool
}

// NewProblemRepository creates a new PostgreSQL-backed problem repository.
func NewProblemRepository(pool *pgxpool.Pool) repository.ProblemRepository {
	return &pgProblemRepo{pool: pool}
}

// Create inserts the problem and its test cases in one transaction. Test case order is kept
// in the position column.
func (r *pgProblemRepo) Create(ctx context.Context, p *domain.Problem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: create problem: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO problems (title, statement) VALUES ($1, $2) RETURNING id`,
		p.Title, p.Statement,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("postgres: insert problem: %w", err)
	}

	batch := &pgx.Batch{}
	for i, tc := range p.TestCases {
		batch.Queue(
			`INSERT INTO test_cases (problem_id, position, input, expected_output) VALUES ($1, $2, $3, $4)`,
			p.ID, i, tc.Input, tc.ExpectedOutput,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("postgres: insert test cases: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: create problem: %w", err)
	}
	return nil
}

func (r *pgProblemRepo) FindWithTestCases(ctx context.Context, id int64) (*domain.Problem, error) {
	p := &domain.Problem{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, statement FROM problems WHERE id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.Statement)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrProblemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get problem: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT input, expected_output FROM test_cases WHERE problem_id = $1 ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: get test cases: %w", err)
	}
	p.TestCases, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TestCase, error) {
		var tc domain.TestCase
		err := row.Scan(&tc.Input, &tc.ExpectedOutput)
		return tc, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan test cases: %w", err)
	}
	return p, nil
}

func (r *pgProblemRepo) List(ctx context.Context) ([]*domain.Problem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, statement FROM problems ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list problems: %w", err)
	}
	problems, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Problem, error) {
		p := &domain.Problem{}
		err := row.Scan(&p.ID, &p.Title, &p.Statement)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: list problems: %w", err)
	}
	return problems, nil
}
