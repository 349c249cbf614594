package models

// ValidatorResult is the model's judgement on one validator.
type ValidatorResult struct {
	Description string `json:"description"`
	Result      bool   `json:"result"`
}

// ModelVerdict is the structured output returned by the model before policy evaluation.
// Confidence is a fraction, nominally in [0,1].
type ModelVerdict struct {
	Validators []ValidatorResult `json:"validators"`
	Confidence float64           `json:"confidence"`
}

// PolicyThresholds is the policy snapshot echoed back with a verdict.
type PolicyThresholds struct {
	MinValidatorsPassed float64 `json:"minValidatorsPassed"`
	MinConfidence       float64 `json:"minConfidence"`
}

// AnalysisResult is the response payload of /api/analyze.
type AnalysisResult struct {
	MilestoneID int64             `json:"milestoneId"`
	Result      bool              `json:"result"`
	Confidence  float64           `json:"confidence"`
	Validators  []ValidatorResult `json:"validators"`
	Policy      PolicyThresholds  `json:"policy"`
}
