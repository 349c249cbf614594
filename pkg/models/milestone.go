package models

import (
	"fmt"
	"strings"
	"time"
)

// MilestoneCategory is the developmental domain a milestone belongs to.
type MilestoneCategory string

const (
	CategorySocial     MilestoneCategory = "SOCIAL"
	CategoryLanguage   MilestoneCategory = "LANGUAGE"
	CategoryFineMotor  MilestoneCategory = "FINE_MOTOR"
	CategoryGrossMotor MilestoneCategory = "GROSS_MOTOR"
)

// AllMilestoneCategories lists every valid category in display order.
var AllMilestoneCategories = []MilestoneCategory{
	CategorySocial,
	CategoryLanguage,
	CategoryFineMotor,
	CategoryGrossMotor,
}

// IsValid reports whether c is one of the fixed categories.
func (c MilestoneCategory) IsValid() bool {
	for _, valid := range AllMilestoneCategories {
		if c == valid {
			return true
		}
	}
	return false
}

// ParseMilestoneCategory normalizes and validates a category name.
func ParseMilestoneCategory(s string) (MilestoneCategory, error) {
	c := MilestoneCategory(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid milestone category %q", s)
	}
	return c, nil
}

// Milestone is a developmental checkpoint assessed from video.
// PolicyID is nil when the milestone uses the default policy.
type Milestone struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Category  MilestoneCategory `json:"category"`
	PolicyID  *int64            `json:"policy_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Validator is a natural-language pass/fail criterion owned by one milestone.
type Validator struct {
	ID          int64     `json:"id"`
	MilestoneID int64     `json:"milestone_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
