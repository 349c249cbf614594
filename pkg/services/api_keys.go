package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/apperrors"
	"github.com/ekaya-inc/milestone-gateway/pkg/crypto"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/repositories"
)

// CreatedAPIKey is returned once at creation; Key is the only copy of the plaintext.
type CreatedAPIKey struct {
	*models.APIKey
	Key string `json:"key"`
}

// APIKeyService manages API keys for the analysis endpoint.
type APIKeyService interface {
	Create(ctx context.Context, name string) (*CreatedAPIKey, error)
	List(ctx context.Context) ([]*models.APIKey, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	// Authenticate returns the active key matching plaintext. Unknown keys yield
	// apperrors.ErrNotFound and revoked keys apperrors.ErrRevoked.
	Authenticate(ctx context.Context, plaintext string) (*models.APIKey, error)
}

type apiKeyService struct {
	repo   repositories.APIKeyRepository
	hasher *crypto.KeyHasher
	now    func() time.Time
	logger *zap.Logger
}

// NewAPIKeyService creates a new API key service. secret is the HMAC secret
// used to hash keys at rest.
func NewAPIKeyService(repo repositories.APIKeyRepository, secret string, logger *zap.Logger) (APIKeyService, error) {
	hasher, err := crypto.NewKeyHasher(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create key hasher: %w", err)
	}

	return &apiKeyService{
		repo:   repo,
		hasher: hasher,
		now:    time.Now,
		logger: logger.Named("api_keys"),
	}, nil
}

func (s *apiKeyService) Create(ctx context.Context, name string) (*CreatedAPIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrInvalidInput)
	}

	plaintext, prefix, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	key := &models.APIKey{
		ID:      uuid.New(),
		Name:    name,
		Prefix:  prefix,
		KeyHash: s.hasher.Hash(plaintext),
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to store API key: %w", err)
	}

	s.logger.Info("Created API key",
		zap.String("key_id", key.ID.String()),
		zap.String("prefix", prefix))
	return &CreatedAPIKey{APIKey: key, Key: plaintext}, nil
}

func (s *apiKeyService) List(ctx context.Context) ([]*models.APIKey, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	return keys, nil
}

func (s *apiKeyService) Revoke(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Revoke(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to revoke API key: %w", err)
	}

	s.logger.Info("Revoked API key", zap.String("key_id", id.String()))
	return nil
}

func (s *apiKeyService) Authenticate(ctx context.Context, plaintext string) (*models.APIKey, error) {
	if plaintext == "" {
		return nil, apperrors.ErrNotFound
	}

	hash := s.hasher.Hash(plaintext)
	key, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to look up API key: %w", err)
	}
	if key == nil || !s.hasher.Verify(plaintext, key.KeyHash) {
		return nil, apperrors.ErrNotFound
	}
	if !key.IsActive() {
		return nil, apperrors.ErrRevoked
	}

	now := s.now()
	if err := s.repo.TouchLastUsed(ctx, key.ID, now); err != nil {
		// Usage tracking must not block authentication.
		s.logger.Warn("Failed to record API key use",
			zap.String("key_id", key.ID.String()),
			zap.Error(err))
	} else {
		key.LastUsedAt = &now
	}

	return key, nil
}

var _ APIKeyService = (*apiKeyService)(nil)
