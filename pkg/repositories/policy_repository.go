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

// PolicyRepository defines the interface for policy data access.
type PolicyRepository interface {
	Create(ctx context.Context, policy *models.Policy) error
	// GetByID returns nil, nil when the policy does not exist.
	GetByID(ctx context.Context, id int64) (*models.Policy, error)
	// GetDefault returns nil, nil when no policy is flagged as default.
	GetDefault(ctx context.Context) (*models.Policy, error)
	List(ctx context.Context) ([]*models.Policy, error)
	// Update changes thresholds and name; the default flag is managed separately.
	Update(ctx context.Context, policy *models.Policy) error
	Delete(ctx context.Context, id int64) error

	// ClearDefaults unsets is_default on every policy.
	ClearDefaults(ctx context.Context) error
	// MarkDefault sets is_default on one policy.
	MarkDefault(ctx context.Context, id int64) error
}

type policyRepository struct {
	db *database.DB
}

// NewPolicyRepository creates a new policy repository.
func NewPolicyRepository(db *database.DB) PolicyRepository {
	return &policyRepository{db: db}
}

const policyColumns = `id, name, min_validators_passed, min_confidence, is_default, created_at, updated_at`

func (r *policyRepository) Create(ctx context.Context, p *models.Policy) error {
	query := `
		INSERT INTO policies (name, min_validators_passed, min_confidence, is_default)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.Conn(ctx).QueryRow(ctx, query, p.Name, p.MinValidatorsPassed, p.MinConfidence, p.IsDefault).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}
	return nil
}

func (r *policyRepository) GetByID(ctx context.Context, id int64) (*models.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *policyRepository) GetDefault(ctx context.Context) (*models.Policy, error) {
	// ORDER BY guards against a transient second default from concurrent writers.
	query := `SELECT ` + policyColumns + ` FROM policies WHERE is_default ORDER BY updated_at DESC, id DESC LIMIT 1`
	return r.getOne(ctx, query)
}

func (r *policyRepository) getOne(ctx context.Context, query string, args ...any) (*models.Policy, error) {
	p, err := scanPolicy(r.db.Conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}
	return p, nil
}

func (r *policyRepository) List(ctx context.Context) ([]*models.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies ORDER BY id`

	rows, err := r.db.Conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	policies := make([]*models.Policy, 0)
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate policies: %w", err)
	}
	return policies, nil
}

func (r *policyRepository) Update(ctx context.Context, p *models.Policy) error {
	query := `
		UPDATE policies
		SET name = $2, min_validators_passed = $3, min_confidence = $4, updated_at = now()
		WHERE id = $1
		RETURNING is_default, created_at, updated_at`

	err := r.db.Conn(ctx).QueryRow(ctx, query, p.ID, p.Name, p.MinValidatorsPassed, p.MinConfidence).
		Scan(&p.IsDefault, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update policy: %w", err)
	}
	return nil
}

func (r *policyRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM policies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *policyRepository) ClearDefaults(ctx context.Context) error {
	_, err := r.db.Conn(ctx).Exec(ctx,
		`UPDATE policies SET is_default = FALSE, updated_at = now() WHERE is_default`)
	if err != nil {
		return fmt.Errorf("failed to clear default policies: %w", err)
	}
	return nil
}

func (r *policyRepository) MarkDefault(ctx context.Context, id int64) error {
	tag, err := r.db.Conn(ctx).Exec(ctx,
		`UPDATE policies SET is_default = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark default policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanPolicy(row pgx.Row) (*models.Policy, error) {
	var p models.Policy
	err := row.Scan(&p.ID, &p.Name, &p.MinValidatorsPassed, &p.MinConfidence, &p.IsDefault, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var _ PolicyRepository = (*policyRepository)(nil)
