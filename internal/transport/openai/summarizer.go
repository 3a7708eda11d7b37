package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylist/internal/domain"
	"github.com/kailas-cloud/stylist/internal/metrics"
)

// Summarizer generates recommendation text via an OpenAI-compatible chat
// completions endpoint.
type Summarizer struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// SummarizerConfig holds the generation provider settings.
type SummarizerConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Logger    *zap.Logger
}

// NewSummarizer creates a chat completion client.
func NewSummarizer(cfg *SummarizerConfig) *Summarizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &Summarizer{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: maxTokens,
		logger:    cfg.Logger,
	}
}

// Summarize implements domain.Summarizer. The output is trimmed and returned
// verbatim; it is never parsed or validated further.
func (s *Summarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(s.model, "error").Inc()
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(s.model, "error").Inc()
		return "", fmt.Errorf("%w: empty completion response", domain.ErrGenerationFailed)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(s.model, "success").Inc()
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
