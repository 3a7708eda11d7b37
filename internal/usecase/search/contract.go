package search

import (
	"context"

	"github.com/kailas-cloud/stylist/internal/domain"
)

// Index is the nearest-neighbor contract. The index has no notion of query
// modality; only the embedder upstream differs between text and image search.
type Index interface {
	Search(query []float32, topK int) ([]domain.Hit, error)
	Len() int
}

// Catalog reads item metadata by slot.
type Catalog interface {
	Get(slot int) (domain.CatalogItem, error)
	Len() int
}

// Embedder vectorizes text queries.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ImageEmbedder vectorizes image queries.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, data []byte) (domain.EmbeddingResult, error)
}

// Summarizer produces recommendation text from a retrieval-grounded prompt.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}
