package health

import "context"

// IndexState reports whether the artifact pair loaded and how large it is.
type IndexState interface {
	Loaded() bool
	CatalogSize() int
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
