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

// TxRunner runs fn inside a transaction carried by ctx. *database.DB implements it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PolicyInput is the editable part of a policy.
type PolicyInput struct {
	Name                string  `json:"name"`
	MinValidatorsPassed float64 `json:"min_validators_passed"`
	MinConfidence       float64 `json:"min_confidence"`
	IsDefault           bool    `json:"is_default"`
}

// PolicyService manages scoring policies.
type PolicyService interface {
	// Create stores a policy; with IsDefault set it also becomes the only default.
	Create(ctx context.Context, input *PolicyInput) (*models.Policy, error)
	Get(ctx context.Context, id int64) (*models.Policy, error)
	List(ctx context.Context) ([]*models.Policy, error)
	// Update changes name and thresholds. IsDefault is ignored; use SetDefault.
	Update(ctx context.Context, id int64, input *PolicyInput) (*models.Policy, error)
	// Delete removes the policy. Milestones using it fall back to the default.
	Delete(ctx context.Context, id int64) error
	// SetDefault makes id the only default policy.
	SetDefault(ctx context.Context, id int64) (*models.Policy, error)
}

type policyService struct {
	policyRepo repositories.PolicyRepository
	tx         TxRunner
	logger     *zap.Logger
}

// NewPolicyService creates a new policy service.
func NewPolicyService(policyRepo repositories.PolicyRepository, tx TxRunner, logger *zap.Logger) PolicyService {
	return &policyService{
		policyRepo: policyRepo,
		tx:         tx,
		logger:     logger.Named("policies"),
	}
}

func (s *policyService) Create(ctx context.Context, input *PolicyInput) (*models.Policy, error) {
	p := &models.Policy{}
	if err := applyPolicyInput(p, input); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.policyRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to create policy: %w", err)
		}
		if input.IsDefault {
			return s.switchDefault(ctx, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Created policy",
		zap.Int64("policy_id", p.ID),
		zap.Bool("is_default", p.IsDefault))
	return p, nil
}

func (s *policyService) Get(ctx context.Context, id int64) (*models.Policy, error) {
	p, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}
	if p == nil {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (s *policyService) List(ctx context.Context) ([]*models.Policy, error) {
	policies, err := s.policyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	return policies, nil
}

func (s *policyService) Update(ctx context.Context, id int64, input *PolicyInput) (*models.Policy, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyPolicyInput(p, input); err != nil {
		return nil, err
	}

	if err := s.policyRepo.Update(ctx, p); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update policy: %w", err)
	}

	s.logger.Info("Updated policy", zap.Int64("policy_id", p.ID))
	return p, nil
}

func (s *policyService) Delete(ctx context.Context, id int64) error {
	if err := s.policyRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete policy: %w", err)
	}

	s.logger.Info("Deleted policy", zap.Int64("policy_id", id))
	return nil
}

func (s *policyService) SetDefault(ctx context.Context, id int64) (*models.Policy, error) {
	var p *models.Policy
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.Get(ctx, id)
		if err != nil {
			return err
		}
		return s.switchDefault(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Set default policy", zap.Int64("policy_id", id))
	return p, nil
}

// switchDefault clears every default flag then sets it on p. Must run inside a transaction.
func (s *policyService) switchDefault(ctx context.Context, p *models.Policy) error {
	if err := s.policyRepo.ClearDefaults(ctx); err != nil {
		return err
	}
	if err := s.policyRepo.MarkDefault(ctx, p.ID); err != nil {
		return err
	}
	p.IsDefault = true
	return nil
}

func applyPolicyInput(p *models.Policy, input *PolicyInput) error {
	p.Name = strings.TrimSpace(input.Name)
	p.MinValidatorsPassed = input.MinValidatorsPassed
	p.MinConfidence = input.MinConfidence
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return nil
}

var _ PolicyService = (*policyService)(nil)
