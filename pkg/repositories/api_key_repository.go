package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/milestone-gateway/pkg/apperrors"
	"github.com/ekaya-inc/milestone-gateway/pkg/database"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
)

// APIKeyRepository defines the interface for API key data access.
type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	// GetByHash returns nil, nil when no key has the given hash.
	GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error)
	List(ctx context.Context) ([]*models.APIKey, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type apiKeyRepository struct {
	db *database.DB
}

// NewAPIKeyRepository creates a new API key repository.
func NewAPIKeyRepository(db *database.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

const apiKeyColumns = `id, name, prefix, key_hash, created_at, last_used_at, revoked_at`

func (r *apiKeyRepository) Create(ctx context.Context, k *models.APIKey) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}

	query := `
		INSERT INTO api_keys (id, name, prefix, key_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if err := r.db.Conn(ctx).QueryRow(ctx, query, k.ID, k.Name, k.Prefix, k.KeyHash).Scan(&k.CreatedAt); err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	return nil
}

func (r *apiKeyRepository) GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = $1`

	k, err := scanAPIKey(r.db.Conn(ctx).QueryRow(ctx, query, keyHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}
	return k, nil
}

func (r *apiKeyRepository) List(ctx context.Context) ([]*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys ORDER BY created_at DESC`

	rows, err := r.db.Conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	defer rows.Close()

	keys := make([]*models.APIKey, 0)
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate API keys: %w", err)
	}
	return keys, nil
}

func (r *apiKeyRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Conn(ctx).Exec(ctx,
		`UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *apiKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Conn(ctx).Exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update API key last use: %w", err)
	}
	return nil
}

func scanAPIKey(row pgx.Row) (*models.APIKey, error) {
	var k models.APIKey
	err := row.Scan(&k.ID, &k.Name, &k.Prefix, &k.KeyHash, &k.CreatedAt, &k.LastUsedAt, &k.RevokedAt)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

var _ APIKeyRepository = (*apiKeyRepository)(nil)
