package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/apperrors"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/repositories"
)

// ValidatorService manages the pass/fail criteria of milestones.
type ValidatorService interface {
	Create(ctx context.Context, milestoneID int64, description string) (*models.Validator, error)
	ListByMilestone(ctx context.Context, milestoneID int64) ([]*models.Validator, error)
	Update(ctx context.Context, id int64, description string) (*models.Validator, error)
	Delete(ctx context.Context, id int64) error
}

type validatorService struct {
	milestoneRepo repositories.MilestoneRepository
	validatorRepo repositories.ValidatorRepository
	logger        *zap.Logger
}

// NewValidatorService creates a new validator service.
func NewValidatorService(
	milestoneRepo repositories.MilestoneRepository,
	validatorRepo repositories.ValidatorRepository,
	logger *zap.Logger,
) ValidatorService {
	return &validatorService{
		milestoneRepo: milestoneRepo,
		validatorRepo: validatorRepo,
		logger:        logger.Named("validators"),
	}
}

func (s *validatorService) Create(ctx context.Context, milestoneID int64, description string) (*models.Validator, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", apperrors.ErrInvalidInput)
	}
	if err := s.requireMilestone(ctx, milestoneID); err != nil {
		return nil, err
	}

	v := &models.Validator{MilestoneID: milestoneID, Description: description}
	if err := s.validatorRepo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	s.logger.Info("Created validator",
		zap.Int64("validator_id", v.ID),
		zap.Int64("milestone_id", milestoneID))
	return v, nil
}

func (s *validatorService) ListByMilestone(ctx context.Context, milestoneID int64) ([]*models.Validator, error) {
	if err := s.requireMilestone(ctx, milestoneID); err != nil {
		return nil, err
	}

	validators, err := s.validatorRepo.ListByMilestone(ctx, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to list validators: %w", err)
	}
	return validators, nil
}

func (s *validatorService) Update(ctx context.Context, id int64, description string) (*models.Validator, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", apperrors.ErrInvalidInput)
	}

	v, err := s.validatorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get validator: %w", err)
	}
	if v == nil {
		return nil, apperrors.ErrNotFound
	}

	v.Description = description
	if err := s.validatorRepo.Update(ctx, v); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update validator: %w", err)
	}
	return v, nil
}

func (s *validatorService) Delete(ctx context.Context, id int64) error {
	if err := s.validatorRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete validator: %w", err)
	}

	s.logger.Info("Deleted validator", zap.Int64("validator_id", id))
	return nil
}

func (s *validatorService) requireMilestone(ctx context.Context, milestoneID int64) error {
	m, err := s.milestoneRepo.GetByID(ctx, milestoneID)
	if err != nil {
		return fmt.Errorf("failed to get milestone: %w", err)
	}
	if m == nil {
		return apperrors.ErrNotFound
	}
	return nil
}

var _ ValidatorService = (*validatorService)(nil)
