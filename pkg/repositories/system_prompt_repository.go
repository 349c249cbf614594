package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/milestone-gateway/pkg/database"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
)

// SystemPromptRepository provides append-only access to system prompt snapshots.
// There is intentionally no update or delete.
type SystemPromptRepository interface {
	Append(ctx context.Context, snapshot *models.SystemPromptSnapshot) error
	// GetByID returns nil, nil when the snapshot does not exist.
	GetByID(ctx context.Context, id int64) (*models.SystemPromptSnapshot, error)
	// GetCurrent returns the snapshot with the highest id, or nil, nil for an empty log.
	GetCurrent(ctx context.Context) (*models.SystemPromptSnapshot, error)
	// List returns snapshots newest first, at most limit entries (0 = all).
	List(ctx context.Context, limit int) ([]*models.SystemPromptSnapshot, error)
}

type systemPromptRepository struct {
	db *database.DB
}

// NewSystemPromptRepository creates a new system prompt repository.
func NewSystemPromptRepository(db *database.DB) SystemPromptRepository {
	return &systemPromptRepository{db: db}
}

const snapshotColumns = `id, content, change_note, created_by, created_at`

func (r *systemPromptRepository) Append(ctx context.Context, s *models.SystemPromptSnapshot) error {
	query := `
		INSERT INTO system_prompt_snapshots (content, change_note, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.Conn(ctx).QueryRow(ctx, query, s.Content, s.ChangeNote, s.CreatedBy).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append system prompt snapshot: %w", err)
	}
	return nil
}

func (r *systemPromptRepository) GetByID(ctx context.Context, id int64) (*models.SystemPromptSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM system_prompt_snapshots WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *systemPromptRepository) GetCurrent(ctx context.Context) (*models.SystemPromptSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM system_prompt_snapshots ORDER BY id DESC LIMIT 1`
	return r.getOne(ctx, query)
}

func (r *systemPromptRepository) getOne(ctx context.Context, query string, args ...any) (*models.SystemPromptSnapshot, error) {
	var s models.SystemPromptSnapshot
	err := r.db.Conn(ctx).QueryRow(ctx, query, args...).
		Scan(&s.ID, &s.Content, &s.ChangeNote, &s.CreatedBy, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get system prompt snapshot: %w", err)
	}
	return &s, nil
}

func (r *systemPromptRepository) List(ctx context.Context, limit int) ([]*models.SystemPromptSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM system_prompt_snapshots ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list system prompt snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*models.SystemPromptSnapshot, 0)
	for rows.Next() {
		var s models.SystemPromptSnapshot
		if err := rows.Scan(&s.ID, &s.Content, &s.ChangeNote, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan system prompt snapshot: %w", err)
		}
		snapshots = append(snapshots, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate system prompt snapshots: %w", err)
	}
	return snapshots, nil
}

var _ SystemPromptRepository = (*systemPromptRepository)(nil)
