// Package search implements the online retrieval flow: embed the query, ask
// the vector index for top-K neighbors, join against catalog metadata, and
// optionally generate a grounded recommendation.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylist/internal/domain"
	"github.com/kailas-cloud/stylist/internal/metrics"
)

// ImageQueryPlaceholder stands in for the user query on image searches, both
// in the response and in the generation prompt.
const ImageQueryPlaceholder = "image_query"

// Response is the retrieval outcome. RAGText is empty when generation is
// disabled or failed; retrieval results are never withheld because of a
// summarizer error.
type Response struct {
	Query   string
	Results []domain.SearchResult
	RAGText string
}

// Service handles text and image search over the loaded catalog.
// index and catalog may be nil when the service started degraded (artifacts
// missing at boot); every search then fails with domain.ErrIndexNotLoaded.
// summarizer may be nil to disable generation entirely.
type Service struct {
	index      Index
	catalog    Catalog
	text       Embedder
	image      ImageEmbedder
	summarizer Summarizer
	maxTopK    int
	logger     *zap.Logger
}

// New creates a search service. maxTopK bounds client-supplied top_k values.
func New(
	index Index,
	catalog Catalog,
	text Embedder,
	image ImageEmbedder,
	summarizer Summarizer,
	maxTopK int,
	logger *zap.Logger,
) *Service {
	if maxTopK <= 0 {
		maxTopK = 50
	}
	return &Service{
		index:      index,
		catalog:    catalog,
		text:       text,
		image:      image,
		summarizer: summarizer,
		maxTopK:    maxTopK,
		logger:     logger,
	}
}

// Loaded reports whether an index/metadata pair is available.
func (s *Service) Loaded() bool {
	return s.index != nil && s.catalog != nil
}

// CatalogSize returns the number of indexed items, 0 when degraded.
func (s *Service) CatalogSize() int {
	if s.catalog == nil {
		return 0
	}
	return s.catalog.Len()
}

// SearchText embeds the query text and retrieves the top-K catalog items.
func (s *Service) SearchText(ctx context.Context, query string, topK int) (Response, error) {
	if !s.Loaded() {
		metrics.SearchRequestsTotal.WithLabelValues("text", "unavailable").Inc()
		return Response{}, domain.ErrIndexNotLoaded
	}

	emb, err := s.text.Embed(ctx, query)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("text", "error").Inc()
		return Response{}, fmt.Errorf("vectorize query: %w", err)
	}

	resp, err := s.retrieve(ctx, query, emb.Embedding, topK)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("text", "error").Inc()
		return Response{}, err
	}
	metrics.SearchRequestsTotal.WithLabelValues("text", "success").Inc()
	return resp, nil
}

// SearchImage embeds the uploaded image and retrieves the top-K catalog
// items. The response query field carries a fixed placeholder.
func (s *Service) SearchImage(ctx context.Context, data []byte, topK int) (Response, error) {
	if !s.Loaded() {
		metrics.SearchRequestsTotal.WithLabelValues("image", "unavailable").Inc()
		return Response{}, domain.ErrIndexNotLoaded
	}

	emb, err := s.image.EmbedImage(ctx, data)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("image", "error").Inc()
		return Response{}, fmt.Errorf("vectorize image: %w", err)
	}

	resp, err := s.retrieve(ctx, ImageQueryPlaceholder, emb.Embedding, topK)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("image", "error").Inc()
		return Response{}, err
	}
	metrics.SearchRequestsTotal.WithLabelValues("image", "success").Inc()
	return resp, nil
}

// Item returns the catalog item at slot, for the image streaming route.
func (s *Service) Item(slot int) (domain.CatalogItem, error) {
	if !s.Loaded() {
		return domain.CatalogItem{}, domain.ErrIndexNotLoaded
	}
	return s.catalog.Get(slot)
}

func (s *Service) retrieve(ctx context.Context, query string, vec []float32, topK int) (Response, error) {
	if topK <= 0 {
		return Response{}, fmt.Errorf("retrieve: %w, got %d", domain.ErrInvalidTopK, topK)
	}
	if topK > s.maxTopK {
		topK = s.maxTopK
	}

	hits, err := s.index.Search(vec, topK)
	if err != nil {
		return Response{}, fmt.Errorf("index search: %w", err)
	}

	results := make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		item, err := s.catalog.Get(h.Slot)
		if err != nil {
			// A slot the index returned but the catalog lacks means the
			// artifact pair is inconsistent; that is a server fault, not a
			// bad request.
			return Response{}, fmt.Errorf("join slot %d: %w", h.Slot, err)
		}
		results[i] = domain.SearchResult{Slot: h.Slot, Score: h.Score, Item: item}
	}

	return Response{
		Query:   query,
		Results: results,
		RAGText: s.summarize(ctx, query, results),
	}, nil
}

// summarize degrades gracefully: any generation failure is logged and results
// go out with empty recommendation text.
func (s *Service) summarize(ctx context.Context, query string, results []domain.SearchResult) string {
	if s.summarizer == nil || len(results) == 0 {
		return ""
	}
	prompt := BuildPrompt(query, BuildContext(results))
	text, err := s.summarizer.Summarize(ctx, prompt)
	if err != nil {
		s.logger.Warn("Recommendation generation failed, returning results without it", zap.Error(err))
		return ""
	}
	return text
}
