package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fitforge/internal/domain"
	"fitforge/internal/infra"
	"fitforge/internal/sqlinline"
)

// SubmissionRepositoryPG persists webhook submissions in PostgreSQL.
type SubmissionRepositoryPG struct {
	db infra.SQLExecutor
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db infra.SQLExecutor) *SubmissionRepositoryPG {
	return &SubmissionRepositoryPG{db: db}
}

// Create inserts a new submission in RUNNING state.
func (r *SubmissionRepositoryPG) Create(ctx context.Context, s *domain.Submission) error {
	err := r.db.QueryRow(ctx, sqlinline.QInsertSubmission,
		s.ID, s.SubmissionKey, s.Email, s.Prompt, string(domain.SubmissionRunning),
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("repo: insert submission: %w", err)
	}
	s.Status = domain.SubmissionRunning
	return nil
}

// Complete records the final status and artifact URLs for a submission.
func (r *SubmissionRepositoryPG) Complete(ctx context.Context, id string, status domain.SubmissionStatus, imageURL, imageStage, planPDFURL string) error {
	tag, err := r.db.Exec(ctx, sqlinline.QCompleteSubmission,
		id, string(status), imageURL, imageStage, planPDFURL,
	)
	if err != nil {
		return fmt.Errorf("repo: complete submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByKey returns the submission recorded for a form submission key.
func (r *SubmissionRepositoryPG) FindByKey(ctx context.Context, key string) (*domain.Submission, error) {
	var s domain.Submission
	err := r.db.QueryRow(ctx, sqlinline.QSelectSubmissionByKey, key).Scan(
		&s.ID,
		&s.SubmissionKey,
		&s.Email,
		&s.Prompt,
		&s.Status,
		&s.ImageURL,
		&s.ImageStage,
		&s.PlanPDFURL,
		&s.CreatedAt,
		&s.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repo: find submission: %w", err)
	}
	return &s, nil
}
