package index

import (
	"fmt"
	"sort"

	"github.com/viterin/vek/vek32"

	"github.com/kailas-cloud/stylist/internal/domain"
)

// Flat is an exact inner-product index over unit-normalized vectors.
// Vectors are normalized at insertion, so inner product equals cosine
// similarity for any unit-normalized query. The index is append-only during
// the offline build and read-only afterwards; concurrent Search calls need no
// locking once the build is done.
type Flat struct {
	dim     int
	vectors [][]float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	return &Flat{dim: dim}, nil
}

// Len returns the number of stored vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.dim }

// Add normalizes vec and appends it, returning the slot it now occupies.
// The vector is copied; the caller may reuse the slice.
func (f *Flat) Add(vec []float32) (int, error) {
	if len(vec) != f.dim {
		return 0, fmt.Errorf("add vector: %w: got %d, want %d", domain.ErrVectorDimMismatch, len(vec), f.dim)
	}
	norm := vek32.Norm(vec)
	if norm == 0 {
		return 0, fmt.Errorf("add vector: zero-norm vector cannot be normalized")
	}
	v := make([]float32, f.dim)
	copy(v, vec)
	vek32.DivNumber_Inplace(v, norm)
	f.vectors = append(f.vectors, v)
	return len(f.vectors) - 1, nil
}

// Search returns the topK highest-scoring slots for the query vector, sorted
// by descending score with ties broken by ascending slot. topK is clamped to
// the index size; a topK above Len() returns everything, never an error.
func (f *Flat) Search(query []float32, topK int) ([]domain.Hit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("search: %w, got %d", domain.ErrInvalidTopK, topK)
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("search: %w: got %d, want %d", domain.ErrVectorDimMismatch, len(query), f.dim)
	}

	hits := make([]domain.Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = domain.Hit{Slot: i, Score: vek32.Dot(query, v)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Slot < hits[j].Slot
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

// Vector returns the stored vector at slot. The returned slice must not be
// mutated.
func (f *Flat) Vector(slot int) ([]float32, error) {
	if slot < 0 || slot >= len(f.vectors) {
		return nil, fmt.Errorf("vector: %w: slot %d, size %d", domain.ErrSlotOutOfRange, slot, len(f.vectors))
	}
	return f.vectors[slot], nil
}
