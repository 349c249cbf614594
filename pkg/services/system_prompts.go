package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/apperrors"
	"github.com/ekaya-inc/milestone-gateway/pkg/cache"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/repositories"
)

// SystemPromptService manages the append-only system prompt history.
type SystemPromptService interface {
	// Create appends a new snapshot, which becomes current.
	Create(ctx context.Context, content string, changeNote *string, createdBy string) (*models.SystemPromptSnapshot, error)
	// Current returns the newest snapshot, possibly from cache.
	Current(ctx context.Context) (*models.SystemPromptSnapshot, error)
	// History lists snapshots newest first; limit 0 returns all.
	History(ctx context.Context, limit int) ([]*models.SystemPromptSnapshot, error)
	// Restore appends a copy of snapshot id. Without a note the copy is labelled
	// "Restored from version <id>".
	Restore(ctx context.Context, id int64, changeNote *string, createdBy string) (*models.SystemPromptSnapshot, error)
}

type systemPromptService struct {
	repo   repositories.SystemPromptRepository
	cache  cache.SystemPromptCache
	logger *zap.Logger
}

// NewSystemPromptService creates a new system prompt service.
func NewSystemPromptService(
	repo repositories.SystemPromptRepository,
	promptCache cache.SystemPromptCache,
	logger *zap.Logger,
) SystemPromptService {
	return &systemPromptService{
		repo:   repo,
		cache:  promptCache,
		logger: logger.Named("system_prompts"),
	}
}

func (s *systemPromptService) Create(ctx context.Context, content string, changeNote *string, createdBy string) (*models.SystemPromptSnapshot, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", apperrors.ErrInvalidInput)
	}
	return s.append(ctx, &models.SystemPromptSnapshot{
		Content:    content,
		ChangeNote: normalizeNote(changeNote),
		CreatedBy:  createdBy,
	})
}

func (s *systemPromptService) Current(ctx context.Context) (*models.SystemPromptSnapshot, error) {
	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn("System prompt cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	current, err := s.repo.GetCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current system prompt: %w", err)
	}
	if current == nil {
		return nil, apperrors.ErrNotFound
	}

	if err := s.cache.Set(ctx, current); err != nil {
		s.logger.Warn("System prompt cache write failed", zap.Error(err))
	}
	return current, nil
}

func (s *systemPromptService) History(ctx context.Context, limit int) ([]*models.SystemPromptSnapshot, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", apperrors.ErrInvalidInput)
	}
	snapshots, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list system prompts: %w", err)
	}
	return snapshots, nil
}

func (s *systemPromptService) Restore(ctx context.Context, id int64, changeNote *string, createdBy string) (*models.SystemPromptSnapshot, error) {
	source, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get system prompt: %w", err)
	}
	if source == nil {
		return nil, apperrors.ErrNotFound
	}

	note := normalizeNote(changeNote)
	if note == nil {
		restored := fmt.Sprintf("Restored from version %d", source.ID)
		note = &restored
	}

	return s.append(ctx, &models.SystemPromptSnapshot{
		Content:    source.Content,
		ChangeNote: note,
		CreatedBy:  createdBy,
	})
}

func (s *systemPromptService) append(ctx context.Context, snapshot *models.SystemPromptSnapshot) (*models.SystemPromptSnapshot, error) {
	if err := s.repo.Append(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save system prompt: %w", err)
	}

	// Other replicas without Redis may serve the old prompt until their TTL expires.
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("System prompt cache invalidation failed", zap.Error(err))
	}

	s.logger.Info("Saved system prompt",
		zap.Int64("snapshot_id", snapshot.ID),
		zap.String("created_by", snapshot.CreatedBy))
	return snapshot, nil
}

// normalizeNote treats a blank note as absent.
func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

var _ SystemPromptService = (*systemPromptService)(nil)
