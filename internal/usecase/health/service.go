// Package health aggregates readiness checks for the API.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the service is up but searches will fail.
	Degraded Status = "degraded"
)

// Report aggregates health check results.
type Report struct {
	Status      Status          `json:"status"`
	IndexLoaded bool            `json:"index_loaded"`
	CatalogSize int             `json:"catalog_size"`
	Checks      map[string]bool `json:"checks,omitempty"`
}

// Service coordinates health checks.
type Service struct {
	index     IndexState
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(index IndexState, embedding EmbeddingChecker) *Service {
	return &Service{index: index, embedding: embedding}
}

// Check reports index availability and embedding provider reachability.
// A missing index degrades the report; an unreachable embedding provider does
// too, since both make every search fail.
func (s *Service) Check(ctx context.Context) Report {
	report := Report{
		Status:      Healthy,
		IndexLoaded: s.index.Loaded(),
		CatalogSize: s.index.CatalogSize(),
		Checks:      make(map[string]bool),
	}
	if !report.IndexLoaded {
		report.Status = Degraded
	}

	if s.embedding != nil {
		ok := s.embedding.HealthCheck(ctx) == nil
		report.Checks["embedding"] = ok
		if !ok {
			report.Status = Degraded
		}
	}
	return report
}
