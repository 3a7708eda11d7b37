// Package openai holds the clients for the OpenAI-compatible embedding and
// chat endpoints (e.g. a CLIP-serving gateway plus any chat-capable provider).
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylist/internal/domain"
	"github.com/kailas-cloud/stylist/internal/metrics"
)

// Embedder speaks to an OpenAI-compatible /v1/embeddings endpoint backed by a
// multimodal (CLIP-style) model. Text is sent as-is; images are sent as
// base64 data URIs in the same input array, which is the convention
// CLIP-serving gateways accept. Both modalities land in one vector space, so
// cross-modal similarity is meaningful.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	logger     *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Logger     *zap.Logger
}

// NewEmbedder creates an embedding client.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		logger:     cfg.Logger,
	}
}

// Embed implements domain.Embedder for text queries.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return e.embed(ctx, text, "text")
}

// EmbedImage implements domain.ImageEmbedder. Raw bytes are wrapped in a
// base64 data URI with a sniffed media type.
func (e *Embedder) EmbedImage(ctx context.Context, data []byte) (domain.EmbeddingResult, error) {
	uri := "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
	return e.embed(ctx, uri, "image")
}

func (e *Embedder) embed(ctx context.Context, input, modality string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{input},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(string(e.model), modality, "error").Inc()
		return domain.EmbeddingResult{}, parseAPIError(err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(string(e.model), modality, "error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(string(e.model), modality, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(string(e.model), modality).Observe(duration.Seconds())

	// Not every serving stack unit-normalizes CLIP outputs; the search
	// contract requires it, so normalize here before anything downstream
	// compares inner products.
	vec, err := normalize(resp.Data[0].Embedding)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %v", domain.ErrEmbeddingProviderError, err)
	}

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func normalize(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil, errors.New("zero-norm embedding")
	}
	inv := float32(1 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * inv
	}
	return out, nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrEmbeddingProviderError for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
