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

// MilestoneRepository defines the interface for milestone data access.
type MilestoneRepository interface {
	Create(ctx context.Context, milestone *models.Milestone) error
	// GetByID returns nil, nil when the milestone does not exist.
	GetByID(ctx context.Context, id int64) (*models.Milestone, error)
	List(ctx context.Context) ([]*models.Milestone, error)
	Update(ctx context.Context, milestone *models.Milestone) error
	Delete(ctx context.Context, id int64) error
}

type milestoneRepository struct {
	db *database.DB
}

// NewMilestoneRepository creates a new milestone repository.
func NewMilestoneRepository(db *database.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

const milestoneColumns = `id, name, category, policy_id, created_at, updated_at`

func (r *milestoneRepository) Create(ctx context.Context, m *models.Milestone) error {
	query := `
		INSERT INTO milestones (name, category, policy_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.Conn(ctx).QueryRow(ctx, query, m.Name, string(m.Category), m.PolicyID).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create milestone: %w", err)
	}
	return nil
}

func (r *milestoneRepository) GetByID(ctx context.Context, id int64) (*models.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1`

	m, err := scanMilestone(r.db.Conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	return m, nil
}

func (r *milestoneRepository) List(ctx context.Context) ([]*models.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones ORDER BY id`

	rows, err := r.db.Conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	milestones := make([]*models.Milestone, 0)
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate milestones: %w", err)
	}
	return milestones, nil
}

func (r *milestoneRepository) Update(ctx context.Context, m *models.Milestone) error {
	query := `
		UPDATE milestones
		SET name = $2, category = $3, policy_id = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.Conn(ctx).QueryRow(ctx, query, m.ID, m.Name, string(m.Category), m.PolicyID).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update milestone: %w", err)
	}
	return nil
}

func (r *milestoneRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM milestones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanMilestone(row pgx.Row) (*models.Milestone, error) {
	var m models.Milestone
	var category string
	if err := row.Scan(&m.ID, &m.Name, &category, &m.PolicyID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Category = models.MilestoneCategory(category)
	return &m, nil
}

var _ MilestoneRepository = (*milestoneRepository)(nil)
