package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/llm"
	"github.com/ekaya-inc/milestone-gateway/pkg/logging"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/repositories"
)

// AnalysisService runs the analysis pipeline: validate the request, assemble
// the prompt, invoke the model and apply the policy.
type AnalysisService interface {
	// Analyze returns the verdict for one video. Every failure is an *AnalysisError.
	Analyze(ctx context.Context, req *AnalysisRequest) (*models.AnalysisResult, error)
}

type analysisService struct {
	assembler  *promptAssembler
	policyRepo repositories.PolicyRepository
	analyzer   llm.VideoAnalyzer
	logger     *zap.Logger
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(
	milestoneRepo repositories.MilestoneRepository,
	validatorRepo repositories.ValidatorRepository,
	systemPromptRepo repositories.SystemPromptRepository,
	policyRepo repositories.PolicyRepository,
	analyzer llm.VideoAnalyzer,
	logger *zap.Logger,
) AnalysisService {
	return &analysisService{
		assembler: &promptAssembler{
			milestoneRepo:    milestoneRepo,
			validatorRepo:    validatorRepo,
			systemPromptRepo: systemPromptRepo,
		},
		policyRepo: policyRepo,
		analyzer:   analyzer,
		logger:     logger.Named("analysis"),
	}
}

func (s *analysisService) Analyze(ctx context.Context, req *AnalysisRequest) (*models.AnalysisResult, error) {
	requestID := llm.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = llm.WithRequestID(ctx, requestID)
	}
	logger := s.logger.With(zap.String("request_id", requestID))
	start := time.Now()

	result, err := s.run(ctx, logger, req)
	if err != nil {
		s.logFailure(logger, err, time.Since(start))
		return nil, err
	}

	logger.Info("Analysis completed",
		zap.Int64("milestone_id", result.MilestoneID),
		zap.Bool("result", result.Result),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (s *analysisService) run(ctx context.Context, logger *zap.Logger, req *AnalysisRequest) (*models.AnalysisResult, error) {
	validated, err := ValidateAnalysisRequest(req)
	if err != nil {
		return nil, err
	}
	logger.Debug("Request validated",
		zap.Int64("milestone_id", validated.MilestoneID),
		zap.Int("video_bytes", len(validated.Video.Data)))

	prompt, err := s.assembler.Assemble(ctx, validated)
	if err != nil {
		return nil, err
	}
	logger.Debug("Prompt assembled",
		zap.Int("validators", len(prompt.Validators)),
		zap.Int("prompt_len", len(prompt.Text)),
		zap.String("mime_type", prompt.MIMEType))

	verdict, err := invokeModel(ctx, s.analyzer, prompt)
	if err != nil {
		return nil, err
	}
	logger.Debug("Model invoked",
		zap.Int("validator_results", len(verdict.Validators)),
		zap.Float64("confidence", verdict.Confidence))

	policy, err := ResolvePolicy(ctx, s.policyRepo, prompt.Milestone)
	if err != nil {
		return nil, newAnalysisError(KindConfiguration, StageModelInvoked, "no policy available", err)
	}
	logger.Debug("Policy resolved",
		zap.Int64("policy_id", policy.ID),
		zap.Bool("is_default", policy.IsDefault))

	eval := EvaluatePolicy(verdict, policy.Thresholds())

	return &models.AnalysisResult{
		MilestoneID: validated.MilestoneID,
		Result:      eval.Result,
		Confidence:  verdict.Confidence,
		Validators:  verdict.Validators,
		Policy:      eval.Policy,
	}, nil
}

// logFailure logs caller mistakes at info and system faults at error with the sanitized cause.
func (s *analysisService) logFailure(logger *zap.Logger, err error, elapsed time.Duration) {
	ae, ok := AsAnalysisError(err)
	if !ok {
		logger.Error("Analysis failed", zap.String("error", logging.SanitizeError(err)))
		return
	}

	fields := []zap.Field{
		zap.String("kind", string(ae.Kind)),
		zap.String("stage", string(ae.Stage)),
		zap.String("message", ae.Message),
		zap.Duration("elapsed", elapsed),
	}
	if ae.Cause != nil {
		fields = append(fields, zap.String("cause", logging.SanitizeError(ae.Cause)))
	}

	switch ae.Kind {
	case KindInvalidInput, KindNotFound:
		logger.Info("Analysis rejected", fields...)
	default:
		if t := llm.GetErrorType(ae.Cause); ae.Kind == KindProvider && t != llm.ErrorTypeUnknown {
			fields = append(fields, zap.String("llm_error_type", string(t)))
		}
		logger.Error("Analysis failed", fields...)
	}
}

var _ AnalysisService = (*analysisService)(nil)
