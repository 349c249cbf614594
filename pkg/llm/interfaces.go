package llm

import (
	"context"
)

// VideoRequest is a single multimodal analysis call.
type VideoRequest struct {
	Prompt   string
	MIMEType string
	Video    []byte
}

// VideoAnalyzer defines the interface for multimodal video analysis.
// Use this interface for dependency injection to enable mocking in tests.
type VideoAnalyzer interface {
	// AnalyzeVideo sends the prompt plus video and returns the raw response text accessor.
	AnalyzeVideo(ctx context.Context, req *VideoRequest) (TextSource, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Ensure Client implements VideoAnalyzer at compile time.
var _ VideoAnalyzer = (*Client)(nil)
