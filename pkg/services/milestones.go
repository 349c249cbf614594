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

// MilestoneInput is the editable part of a milestone.
type MilestoneInput struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	PolicyID *int64 `json:"policy_id,omitempty"`
}

// MilestoneDetail is a milestone with its validators and the policy that analysis would use.
type MilestoneDetail struct {
	Milestone       *models.Milestone   `json:"milestone"`
	Validators      []*models.Validator `json:"validators"`
	EffectivePolicy *models.Policy      `json:"effective_policy,omitempty"`
}

// MilestoneService manages milestones.
type MilestoneService interface {
	Create(ctx context.Context, input *MilestoneInput) (*models.Milestone, error)
	Get(ctx context.Context, id int64) (*models.Milestone, error)
	GetDetail(ctx context.Context, id int64) (*MilestoneDetail, error)
	List(ctx context.Context) ([]*models.Milestone, error)
	Update(ctx context.Context, id int64, input *MilestoneInput) (*models.Milestone, error)
	// Delete removes the milestone and, by cascade, its validators.
	Delete(ctx context.Context, id int64) error
}

type milestoneService struct {
	milestoneRepo repositories.MilestoneRepository
	validatorRepo repositories.ValidatorRepository
	policyRepo    repositories.PolicyRepository
	logger        *zap.Logger
}

// NewMilestoneService creates a new milestone service.
func NewMilestoneService(
	milestoneRepo repositories.MilestoneRepository,
	validatorRepo repositories.ValidatorRepository,
	policyRepo repositories.PolicyRepository,
	logger *zap.Logger,
) MilestoneService {
	return &milestoneService{
		milestoneRepo: milestoneRepo,
		validatorRepo: validatorRepo,
		policyRepo:    policyRepo,
		logger:        logger.Named("milestones"),
	}
}

func (s *milestoneService) Create(ctx context.Context, input *MilestoneInput) (*models.Milestone, error) {
	m := &models.Milestone{}
	if err := s.apply(ctx, m, input); err != nil {
		return nil, err
	}

	if err := s.milestoneRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create milestone: %w", err)
	}

	s.logger.Info("Created milestone",
		zap.Int64("milestone_id", m.ID),
		zap.String("category", string(m.Category)))
	return m, nil
}

func (s *milestoneService) Get(ctx context.Context, id int64) (*models.Milestone, error) {
	m, err := s.milestoneRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	if m == nil {
		return nil, apperrors.ErrNotFound
	}
	return m, nil
}

func (s *milestoneService) GetDetail(ctx context.Context, id int64) (*MilestoneDetail, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	validators, err := s.validatorRepo.ListByMilestone(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list validators: %w", err)
	}

	policy, err := ResolvePolicy(ctx, s.policyRepo, m)
	if err != nil && !errors.Is(err, ErrNoPolicy) {
		return nil, err
	}

	return &MilestoneDetail{
		Milestone:       m,
		Validators:      validators,
		EffectivePolicy: policy,
	}, nil
}

func (s *milestoneService) List(ctx context.Context) ([]*models.Milestone, error) {
	milestones, err := s.milestoneRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestones, nil
}

func (s *milestoneService) Update(ctx context.Context, id int64, input *MilestoneInput) (*models.Milestone, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, m, input); err != nil {
		return nil, err
	}

	if err := s.milestoneRepo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update milestone: %w", err)
	}

	s.logger.Info("Updated milestone", zap.Int64("milestone_id", m.ID))
	return m, nil
}

func (s *milestoneService) Delete(ctx context.Context, id int64) error {
	if err := s.milestoneRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete milestone: %w", err)
	}

	s.logger.Info("Deleted milestone", zap.Int64("milestone_id", id))
	return nil
}

// apply validates input and copies it onto m.
func (s *milestoneService) apply(ctx context.Context, m *models.Milestone, input *MilestoneInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrInvalidInput)
	}

	category, err := models.ParseMilestoneCategory(input.Category)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	if input.PolicyID != nil {
		p, err := s.policyRepo.GetByID(ctx, *input.PolicyID)
		if err != nil {
			return fmt.Errorf("failed to check policy: %w", err)
		}
		if p == nil {
			return fmt.Errorf("%w: policy %d does not exist", apperrors.ErrInvalidInput, *input.PolicyID)
		}
	}

	m.Name = name
	m.Category = category
	m.PolicyID = input.PolicyID
	return nil
}

var _ MilestoneService = (*milestoneService)(nil)
