// Package catalog provides read-only slot access to catalog item metadata.
package catalog

import (
	"fmt"

	"github.com/kailas-cloud/stylist/internal/domain"
)

// Store is the positional metadata store: slot i here corresponds to vector
// slot i in the index. It is immutable after construction and safe for
// concurrent readers.
type Store struct {
	items []domain.CatalogItem
}

// New validates the loaded metadata rows and wraps them in a Store.
// Rows come from an external artifact and are treated as untrusted: shape is
// checked once here rather than on every access.
func New(items []domain.CatalogItem) (*Store, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("catalog: no metadata rows")
	}
	for i, item := range items {
		if item.ImagePath == "" {
			return nil, fmt.Errorf("catalog: row %d has no image path", i)
		}
	}
	return &Store{items: items}, nil
}

// Len returns the number of catalog items.
func (s *Store) Len() int { return len(s.items) }

// Get returns the item at slot.
func (s *Store) Get(slot int) (domain.CatalogItem, error) {
	if slot < 0 || slot >= len(s.items) {
		return domain.CatalogItem{}, fmt.Errorf(
			"catalog: %w: slot %d, size %d", domain.ErrSlotOutOfRange, slot, len(s.items),
		)
	}
	return s.items[slot], nil
}
