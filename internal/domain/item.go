package domain

// CatalogItem is one product record in the catalog. Items are created during
// the offline build and are immutable afterwards; an item is identified by its
// slot, the position it occupies in both the vector index and the metadata
// artifact.
type CatalogItem struct {
	ImagePath   string `json:"image_path"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Hit is a raw nearest-neighbor match before the metadata join.
// Score is the inner product of unit vectors, so it equals cosine similarity.
type Hit struct {
	Slot  int
	Score float32
}

// SearchResult is a hit joined with its catalog item.
type SearchResult struct {
	Slot  int
	Score float32
	Item  CatalogItem
}
