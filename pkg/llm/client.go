// Package llm provides the OpenAI-compatible multimodal client used for video analysis.
package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client sends video analysis requests to an OpenAI-compatible chat completions endpoint.
type Client struct {
	client      *openai.Client
	endpoint    string
	model       string
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

// Config holds configuration for creating an LLM client.
type Config struct {
	Endpoint    string        // Base URL, e.g., "https://generativelanguage.googleapis.com/v1beta/openai"
	Model       string        // Model name, e.g., "gemini-2.5-flash"
	APIKey      string        // Provider credential
	Temperature float64       // Sampling temperature
	Timeout     time.Duration // Per-request timeout; 0 means no timeout
}

// NewClient creates a new OpenAI-compatible LLM client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	clientConfig.HTTPClient = &http.Client{
		Transport: &contextAwareTransport{base: http.DefaultTransport},
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger.Named("llm"),
	}, nil
}

// AnalyzeVideo sends the prompt and the inline video to the model and returns
// the text of the first choice. The response is constrained to VerdictSchema.
func (c *Client) AnalyzeVideo(ctx context.Context, req *VideoRequest) (TextSource, error) {
	if len(req.Video) == 0 {
		return nil, NewError(ErrorTypeRequest, "video is empty", false, nil)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: DataURI(req.MIMEType, req.Video)},
				},
			},
		},
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.String("mime_type", req.MIMEType),
		zap.Int("video_bytes", len(req.Video)))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(c.temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   VerdictSchemaName,
				Schema: VerdictSchema,
				Strict: true,
			},
		},
	})
	if err != nil {
		llmErr := ClassifyError(err)
		llmErr.Model = c.model
		llmErr.Endpoint = c.endpoint
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error_type", string(llmErr.Type)),
			zap.Int("status_code", llmErr.StatusCode))
		return nil, llmErr
	}

	if len(resp.Choices) == 0 {
		return nil, NewError(ErrorTypeResponse, "no choices in response", false, nil)
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Duration("elapsed", time.Since(start)))

	return MessageText(resp.Choices[0].Message), nil
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *Client) GetEndpoint() string {
	return c.endpoint
}

// DataURI encodes media bytes as an inline data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
