package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/repositories"
)

// AssembledPrompt is the output of prompt assembly: everything the model call needs.
type AssembledPrompt struct {
	Text       string
	MIMEType   string
	Video      []byte
	Milestone  *models.Milestone
	Validators []*models.Validator
}

// promptAssembler loads the milestone, its validators and the current system
// prompt, and builds the directive sent with the video.
type promptAssembler struct {
	milestoneRepo    repositories.MilestoneRepository
	validatorRepo    repositories.ValidatorRepository
	systemPromptRepo repositories.SystemPromptRepository
}

// Assemble fetches the three inputs concurrently. The first fetch error cancels the others.
func (a *promptAssembler) Assemble(ctx context.Context, req *ValidatedRequest) (*AssembledPrompt, error) {
	var (
		milestone    *models.Milestone
		validators   []*models.Validator
		systemPrompt *models.SystemPromptSnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := a.milestoneRepo.GetByID(gctx, req.MilestoneID)
		if err != nil {
			return fmt.Errorf("load milestone: %w", err)
		}
		milestone = m
		return nil
	})
	g.Go(func() error {
		v, err := a.validatorRepo.ListByMilestone(gctx, req.MilestoneID)
		if err != nil {
			return fmt.Errorf("load validators: %w", err)
		}
		validators = v
		return nil
	})
	g.Go(func() error {
		s, err := a.systemPromptRepo.GetCurrent(gctx)
		if err != nil {
			return fmt.Errorf("load system prompt: %w", err)
		}
		systemPrompt = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, newAnalysisError(KindConfiguration, StageValidated, "failed to load analysis inputs", err)
	}

	if milestone == nil {
		return nil, newAnalysisError(KindNotFound, StageValidated, MsgMilestoneNotFound, nil)
	}
	if systemPrompt == nil || strings.TrimSpace(systemPrompt.Content) == "" {
		return nil, newAnalysisError(KindConfiguration, StageValidated, "system prompt not configured", nil)
	}
	if len(validators) == 0 {
		return nil, newAnalysisError(KindConfiguration, StageValidated,
			fmt.Sprintf("milestone %d has no validators", milestone.ID), nil)
	}

	return &AssembledPrompt{
		Text:       BuildPrompt(systemPrompt.Content, milestone.Name, validators),
		MIMEType:   ResolveVideoMIMEType(req.Video.ContentType, req.Video.Filename),
		Video:      req.Video.Data,
		Milestone:  milestone,
		Validators: validators,
	}, nil
}

// BuildPrompt joins the non-empty sections with a blank line: the system
// prompt, the milestone name and the bulleted validator list.
func BuildPrompt(systemPrompt, milestoneName string, validators []*models.Validator) string {
	var sections []string

	if s := strings.TrimSpace(systemPrompt); s != "" {
		sections = append(sections, s)
	}
	if milestoneName != "" {
		sections = append(sections, "Milestone: "+milestoneName)
	}
	if len(validators) > 0 {
		var sb strings.Builder
		sb.WriteString("Validators:")
		for _, v := range validators {
			sb.WriteString("\n- ")
			sb.WriteString(v.Description)
		}
		sections = append(sections, sb.String())
	}

	return strings.Join(sections, "\n\n")
}
