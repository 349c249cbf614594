package llm

import (
	"context"
)

// MockVideoAnalyzer is a configurable mock for testing analysis flows.
// Set the function fields to control behavior in tests.
type MockVideoAnalyzer struct {
	// AnalyzeVideoFunc is called when AnalyzeVideo is invoked.
	// If nil, Response is returned as StaticText.
	AnalyzeVideoFunc func(ctx context.Context, req *VideoRequest) (TextSource, error)

	// Response is the canned response text used when AnalyzeVideoFunc is nil.
	Response string

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Call tracking for verification
	AnalyzeVideoCalls int
	LastRequest       *VideoRequest
}

// NewMockVideoAnalyzer creates a mock that returns response for every call.
func NewMockVideoAnalyzer(response string) *MockVideoAnalyzer {
	return &MockVideoAnalyzer{
		Response: response,
		Model:    "mock-model",
	}
}

// AnalyzeVideo implements VideoAnalyzer.
func (m *MockVideoAnalyzer) AnalyzeVideo(ctx context.Context, req *VideoRequest) (TextSource, error) {
	m.AnalyzeVideoCalls++
	m.LastRequest = req
	if m.AnalyzeVideoFunc != nil {
		return m.AnalyzeVideoFunc(ctx, req)
	}
	return StaticText(m.Response), nil
}

// GetModel implements VideoAnalyzer.
func (m *MockVideoAnalyzer) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

var _ VideoAnalyzer = (*MockVideoAnalyzer)(nil)
