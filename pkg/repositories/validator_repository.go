package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/milestone-gateway/pkg/apperrors"
	"github.com/ekaya-inc/milestone-gateway/pkg/database"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
)

// ValidatorRepository defines the interface for validator data access.
type ValidatorRepository interface {
	Create(ctx context.Context, validator *models.Validator) error
	// GetByID returns nil, nil when the validator does not exist.
	GetByID(ctx context.Context, id int64) (*models.Validator, error)
	// ListByMilestone returns validators in creation order; empty when none exist.
	ListByMilestone(ctx context.Context, milestoneID int64) ([]*models.Validator, error)
	Update(ctx context.Context, validator *models.Validator) error
	Delete(ctx context.Context, id int64) error
}

type validatorRepository struct {
	db *database.DB
}

// NewValidatorRepository creates a new validator repository.
func NewValidatorRepository(db *database.DB) ValidatorRepository {
	return &validatorRepository{db: db}
}

func (r *validatorRepository) Create(ctx context.Context, v *models.Validator) error {
	query := `
		INSERT INTO validators (milestone_id, description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err := r.db.Conn(ctx).QueryRow(ctx, query, v.MilestoneID, v.Description).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create validator: %w", err)
	}
	return nil
}

func (r *validatorRepository) GetByID(ctx context.Context, id int64) (*models.Validator, error) {
	query := `
		SELECT id, milestone_id, description, created_at, updated_at
		FROM validators
		WHERE id = $1`

	var v models.Validator
	err := r.db.Conn(ctx).QueryRow(ctx, query, id).
		Scan(&v.ID, &v.MilestoneID, &v.Description, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get validator: %w", err)
	}
	return &v, nil
}

func (r *validatorRepository) ListByMilestone(ctx context.Context, milestoneID int64) ([]*models.Validator, error) {
	query := `
		SELECT id, milestone_id, description, created_at, updated_at
		FROM validators
		WHERE milestone_id = $1
		ORDER BY id`

	rows, err := r.db.Conn(ctx).Query(ctx, query, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to list validators: %w", err)
	}
	defer rows.Close()

	validators := make([]*models.Validator, 0)
	for rows.Next() {
		var v models.Validator
		if err := rows.Scan(&v.ID, &v.MilestoneID, &v.Description, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan validator: %w", err)
		}
		validators = append(validators, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate validators: %w", err)
	}
	return validators, nil
}

func (r *validatorRepository) Update(ctx context.Context, v *models.Validator) error {
	query := `
		UPDATE validators
		SET description = $2, updated_at = now()
		WHERE id = $1
		RETURNING milestone_id, created_at, updated_at`

	err := r.db.Conn(ctx).QueryRow(ctx, query, v.ID, v.Description).
		Scan(&v.MilestoneID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update validator: %w", err)
	}
	return nil
}

func (r *validatorRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM validators WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete validator: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

var _ ValidatorRepository = (*validatorRepository)(nil)
