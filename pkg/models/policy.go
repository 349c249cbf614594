package models

import (
	"fmt"
	"time"
)

// Policy holds the percentage thresholds that turn model output into a verdict.
// At most one policy is flagged IsDefault at a time.
type Policy struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	MinValidatorsPassed float64   `json:"min_validators_passed"`
	MinConfidence       float64   `json:"min_confidence"`
	IsDefault           bool      `json:"is_default"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Validate checks that both thresholds are percentages.
func (p *Policy) Validate() error {
	if p.MinValidatorsPassed < 0 || p.MinValidatorsPassed > 100 {
		return fmt.Errorf("min_validators_passed must be between 0 and 100")
	}
	if p.MinConfidence < 0 || p.MinConfidence > 100 {
		return fmt.Errorf("min_confidence must be between 0 and 100")
	}
	return nil
}

// Thresholds returns the snapshot of this policy included in analysis results.
func (p *Policy) Thresholds() PolicyThresholds {
	return PolicyThresholds{
		MinValidatorsPassed: p.MinValidatorsPassed,
		MinConfidence:       p.MinConfidence,
	}
}
