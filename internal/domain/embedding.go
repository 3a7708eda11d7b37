package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// Implementations must return unit-normalized vectors so that inner product
// equals cosine similarity downstream.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// ImageEmbedder vectorizes raw image bytes into the same embedding space as
// text. Text and image vectors must be comparable for cross-modal search.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, data []byte) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
