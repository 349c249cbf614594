package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ekaya-inc/milestone-gateway/pkg/llm"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
)

// errEmptyResponse is returned when the model produced no text.
var errEmptyResponse = errors.New("model returned empty response")

// invokeModel sends the assembled prompt and video to the model and returns the parsed verdict.
func invokeModel(ctx context.Context, analyzer llm.VideoAnalyzer, p *AssembledPrompt) (*models.ModelVerdict, error) {
	src, err := analyzer.AnalyzeVideo(ctx, &llm.VideoRequest{
		Prompt:   p.Text,
		MIMEType: p.MIMEType,
		Video:    p.Video,
	})
	if err != nil {
		return nil, newAnalysisError(KindProvider, StagePromptAssembled, "model call failed", err)
	}

	text, err := src.ExtractText()
	if err != nil {
		return nil, newAnalysisError(KindProvider, StagePromptAssembled, "failed to read model response", err)
	}

	verdict, err := ParseModelVerdict(text)
	if err != nil {
		return nil, newAnalysisError(KindProvider, StagePromptAssembled, "invalid model response", err)
	}
	return verdict, nil
}

// ParseModelVerdict parses model text into a ModelVerdict and checks its shape:
// validators must be an array of {description string, result bool} objects and
// confidence a finite number. Unknown fields are ignored.
func ParseModelVerdict(text string) (*models.ModelVerdict, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errEmptyResponse
	}

	raw, err := llm.DecodeObject[map[string]any](text)
	if err != nil {
		return nil, fmt.Errorf("parse model JSON: %w", err)
	}

	rawValidators, ok := raw["validators"].([]any)
	if !ok {
		return nil, fmt.Errorf("validators must be an array, got %T", raw["validators"])
	}

	validators := make([]models.ValidatorResult, 0, len(rawValidators))
	for i, item := range rawValidators {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("validators[%d] must be an object, got %T", i, item)
		}
		description, ok := obj["description"].(string)
		if !ok {
			return nil, fmt.Errorf("validators[%d].description must be a string, got %T", i, obj["description"])
		}
		result, ok := obj["result"].(bool)
		if !ok {
			return nil, fmt.Errorf("validators[%d].result must be a boolean, got %T", i, obj["result"])
		}
		validators = append(validators, models.ValidatorResult{Description: description, Result: result})
	}

	confidence, ok := raw["confidence"].(float64)
	if !ok {
		return nil, fmt.Errorf("confidence must be a number, got %T", raw["confidence"])
	}
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		return nil, fmt.Errorf("confidence must be finite")
	}

	return &models.ModelVerdict{
		Validators: validators,
		Confidence: confidence,
	}, nil
}
