package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/repository"
)

// Ensure pgSubmissionRepo implements repository.SubmissionRepository.
var _ repository.SubmissionRepository = (*pgSubmissionRepo)(nil)

const submissionColumns = `id, user_name, problem_id, contest_id, language, code, status, result,
		       run_time_ms, memory_used_kb, created_at, updated_at`

type pgSubmissionRepo struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new PostgreSQL-backed submission repository.
func NewSubmissionRepository(pool *pgxpool.Pool) repository.SubmissionRepository {
	return &pgSubmissionRepo{pool: pool}
}

func (r *pgSubmissionRepo) Create(ctx context.Context, s *domain.Submission) error {
	query := `
		INSERT INTO submissions (id, user_name, problem_id, contest_id, language, code, status, result, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, query,
		s.ID, s.UserName, s.ProblemID, s.ContestID, s.Language, s.Code,
		s.Status, s.Result, now, now,
	)
	if err != nil {
		return fmt.Errorf("postgres: create submission: %w", err)
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// Save updates the mutable judging fields. Rows already in a terminal state are left alone.
func (r *pgSubmissionRepo) Save(ctx context.Context, s *domain.Submission) error {
	query := `
		UPDATE submissions
		SET status = $1, result = $2, run_time_ms = $3, memory_used_kb = $4, updated_at = $5
		WHERE id = $6
		  AND status NOT IN ('ACCEPTED', 'WRONG_ANSWER', 'RUNTIME_ERROR', 'TIMED_OUT', 'COMPILATION_ERROR')`

	updatedAt := s.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	tag, err := r.pool.Exec(ctx, query,
		s.Status, s.Result, s.RunTimeMs, s.MemoryUsedKB, updatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: save submission: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM submissions WHERE id = $1)`, s.ID).Scan(&exists); err != nil {
		return fmt.Errorf("postgres: save submission: %w", err)
	}
	if !exists {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

func (r *pgSubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	s, err := scanSubmission(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get submission by id: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY created_at DESC, id DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list submissions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan submission: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list submissions: %w", err)
	}
	return out, nil
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	s := &domain.Submission{}
	err := row.Scan(
		&s.ID, &s.UserName, &s.ProblemID, &s.ContestID, &s.Language, &s.Code,
		&s.Status, &s.Result, &s.RunTimeMs, &s.MemoryUsedKB,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
