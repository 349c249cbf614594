package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/repositories"
)

// thresholdTolerance absorbs float rounding in the percentage arithmetic.
// 0.57*100 is 56.99999999999999, which a plain >= would fail against 57.
const thresholdTolerance = 1e-9

// ErrNoPolicy is returned by ResolvePolicy when no policy applies to a milestone.
var ErrNoPolicy = errors.New("no policy available")

// PolicyEvaluation is the arithmetic behind a verdict.
type PolicyEvaluation struct {
	Total         int                     `json:"total"`
	Passed        int                     `json:"passed"`
	PercentPassed float64                 `json:"percentPassed"`
	ConfidencePct float64                 `json:"confidencePct"`
	Result        bool                    `json:"result"`
	Policy        models.PolicyThresholds `json:"policy"`
}

// EvaluatePolicy applies the thresholds to a verdict. It is pure.
// With no validators the pass percentage is 0. Confidence is used as given;
// values outside [0,1] are not clamped. Both comparisons are inclusive and
// treat a value within thresholdTolerance below the threshold as meeting it,
// unlike a bare >= on the float products.
func EvaluatePolicy(verdict *models.ModelVerdict, policy models.PolicyThresholds) PolicyEvaluation {
	eval := PolicyEvaluation{Policy: policy}

	eval.Total = len(verdict.Validators)
	for _, v := range verdict.Validators {
		if v.Result {
			eval.Passed++
		}
	}

	if eval.Total > 0 {
		eval.PercentPassed = float64(eval.Passed) / float64(eval.Total) * 100
	}
	eval.ConfidencePct = verdict.Confidence * 100

	eval.Result = meetsThreshold(eval.PercentPassed, policy.MinValidatorsPassed) &&
		meetsThreshold(eval.ConfidencePct, policy.MinConfidence)

	return eval
}

func meetsThreshold(value, min float64) bool {
	return value+thresholdTolerance >= min
}

// ResolvePolicy returns the milestone's own policy when set, otherwise the
// default policy. A dangling policy reference does not fall back to the default.
func ResolvePolicy(ctx context.Context, policyRepo repositories.PolicyRepository, milestone *models.Milestone) (*models.Policy, error) {
	if milestone.PolicyID != nil {
		p, err := policyRepo.GetByID(ctx, *milestone.PolicyID)
		if err != nil {
			return nil, fmt.Errorf("load policy %d: %w", *milestone.PolicyID, err)
		}
		if p == nil {
			return nil, fmt.Errorf("%w: policy %d referenced by milestone %d does not exist", ErrNoPolicy, *milestone.PolicyID, milestone.ID)
		}
		return p, nil
	}

	p, err := policyRepo.GetDefault(ctx)
	if err != nil {
		return nil, fmt.Errorf("load default policy: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: milestone %d has no policy and no default is set", ErrNoPolicy, milestone.ID)
	}
	return p, nil
}
