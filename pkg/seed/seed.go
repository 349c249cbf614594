// Package seed loads milestones, policies and a system prompt from a YAML fixture.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

// Fixture is the YAML document accepted by the seed command.
type Fixture struct {
	SystemPrompt string             `yaml:"system_prompt"`
	Policies     []PolicyFixture    `yaml:"policies"`
	Milestones   []MilestoneFixture `yaml:"milestones"`
}

// PolicyFixture describes one policy. Milestones refer to it by name.
type PolicyFixture struct {
	Name                string  `yaml:"name"`
	MinValidatorsPassed float64 `yaml:"min_validators_passed"`
	MinConfidence       float64 `yaml:"min_confidence"`
	Default             bool    `yaml:"default"`
}

// MilestoneFixture describes a milestone and its validators.
type MilestoneFixture struct {
	Name       string   `yaml:"name"`
	Category   string   `yaml:"category"`
	Policy     string   `yaml:"policy,omitempty"`
	Validators []string `yaml:"validators"`
}

// Services are the write paths the seeder goes through, so fixtures get the
// same validation as the admin API.
type Services struct {
	Milestones    services.MilestoneService
	Validators    services.ValidatorService
	Policies      services.PolicyService
	SystemPrompts services.SystemPromptService
}

// Summary counts what a seed run created.
type Summary struct {
	Policies     int
	Milestones   int
	Validators   int
	SystemPrompt bool
}

// LoadFile reads and parses a fixture file.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes a fixture and checks cross references. Unknown keys are rejected.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	names := make(map[string]bool, len(f.Policies))
	defaults := 0
	for _, p := range f.Policies {
		if p.Name == "" {
			return fmt.Errorf("policy without a name")
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate policy %q", p.Name)
		}
		names[p.Name] = true
		if p.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%d policies marked default, at most one allowed", defaults)
	}

	for _, m := range f.Milestones {
		if m.Policy != "" && !names[m.Policy] {
			return fmt.Errorf("milestone %q references unknown policy %q", m.Name, m.Policy)
		}
	}
	return nil
}

// Apply creates everything in the fixture. It is not idempotent: running it
// twice creates duplicates.
func Apply(ctx context.Context, svc Services, f *Fixture, createdBy string, logger *zap.Logger) (*Summary, error) {
	summary := &Summary{}
	policyIDs := make(map[string]int64, len(f.Policies))

	for _, p := range f.Policies {
		created, err := svc.Policies.Create(ctx, &services.PolicyInput{
			Name:                p.Name,
			MinValidatorsPassed: p.MinValidatorsPassed,
			MinConfidence:       p.MinConfidence,
			IsDefault:           p.Default,
		})
		if err != nil {
			return summary, fmt.Errorf("policy %q: %w", p.Name, err)
		}
		policyIDs[p.Name] = created.ID
		summary.Policies++
	}

	for _, m := range f.Milestones {
		input := &services.MilestoneInput{Name: m.Name, Category: m.Category}
		if m.Policy != "" {
			id := policyIDs[m.Policy]
			input.PolicyID = &id
		}
		created, err := svc.Milestones.Create(ctx, input)
		if err != nil {
			return summary, fmt.Errorf("milestone %q: %w", m.Name, err)
		}
		summary.Milestones++

		for _, description := range m.Validators {
			if _, err := svc.Validators.Create(ctx, created.ID, description); err != nil {
				return summary, fmt.Errorf("milestone %q validator %q: %w", m.Name, description, err)
			}
			summary.Validators++
		}
		if len(m.Validators) == 0 {
			logger.Warn("Seeded milestone has no validators and cannot be analyzed",
				zap.String("milestone", m.Name))
		}
	}

	if strings.TrimSpace(f.SystemPrompt) != "" {
		note := "Seeded"
		if _, err := svc.SystemPrompts.Create(ctx, f.SystemPrompt, &note, createdBy); err != nil {
			return summary, fmt.Errorf("system prompt: %w", err)
		}
		summary.SystemPrompt = true
	}

	return summary, nil
}

// Categories lists the accepted category names, for help text.
func Categories() []string {
	out := make([]string, len(models.AllMilestoneCategories))
	for i, c := range models.AllMilestoneCategories {
		out[i] = string(c)
	}
	return out
}
