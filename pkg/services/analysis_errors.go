package services

import (
	"errors"
	"fmt"
)

// AnalysisErrorKind classifies why an analysis request failed.
type AnalysisErrorKind string

const (
	// KindInvalidInput means the caller sent a bad video or milestone id.
	KindInvalidInput AnalysisErrorKind = "invalid_input"
	// KindNotFound means the milestone does not exist.
	KindNotFound AnalysisErrorKind = "not_found"
	// KindConfiguration means stored data needed for analysis is missing.
	KindConfiguration AnalysisErrorKind = "configuration"
	// KindProvider means the model call failed or returned unusable output.
	KindProvider AnalysisErrorKind = "provider"
)

// Messages returned to API callers.
const (
	MsgInvalidVideo       = "Missing or invalid 'video' file"
	MsgInvalidMilestoneID = "Missing or invalid 'milestoneId'"
	MsgMilestoneNotFound  = "Milestone not found"
	MsgInternal           = "Internal server error"
)

// AnalysisStage is a step of the analysis pipeline.
type AnalysisStage string

const (
	StageReceived        AnalysisStage = "received"
	StageValidated       AnalysisStage = "validated"
	StagePromptAssembled AnalysisStage = "prompt_assembled"
	StageModelInvoked    AnalysisStage = "model_invoked"
	StagePolicyResolved  AnalysisStage = "policy_resolved"
	StageVerdicted       AnalysisStage = "verdicted"
)

// AnalysisError is the single error type returned by the analysis pipeline.
// Stage is the last stage reached before the failure.
type AnalysisError struct {
	Kind    AnalysisErrorKind
	Stage   AnalysisStage
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s at %s: %s: %v", e.Kind, e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Stage, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// PublicMessage is the text safe to return to the caller. Configuration and
// provider details stay server-side.
func (e *AnalysisError) PublicMessage() string {
	switch e.Kind {
	case KindInvalidInput, KindNotFound:
		return e.Message
	default:
		return MsgInternal
	}
}

func newAnalysisError(kind AnalysisErrorKind, stage AnalysisStage, message string, cause error) *AnalysisError {
	return &AnalysisError{Kind: kind, Stage: stage, Message: message, Cause: cause}
}

// AsAnalysisError extracts an *AnalysisError from err.
func AsAnalysisError(err error) (*AnalysisError, bool) {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
