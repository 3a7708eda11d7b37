package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/stylist/internal/domain"
)

func buildTestIndex(t *testing.T, vecs [][]float32) *Flat {
	t.Helper()
	f, err := NewFlat(len(vecs[0]))
	if err != nil {
		t.Fatalf("NewFlat: %v", err)
	}
	for _, v := range vecs {
		if _, err := f.Add(v); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	return f
}

func testItems(n int) []domain.CatalogItem {
	items := make([]domain.CatalogItem, n)
	for i := range items {
		items[i] = domain.CatalogItem{
			ImagePath:   "images/item.jpg",
			DisplayName: "Item",
			Category:    "Apparel",
		}
	}
	return items
}

func TestSaveLoadPair_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	vecPath := filepath.Join(dir, "catalog.index")
	metaPath := filepath.Join(dir, "catalog_metadata.json")

	f := buildTestIndex(t, [][]float32{{1, 0}, {0, 1}, {1, 1}})
	if err := SavePair(vecPath, metaPath, f, testItems(3)); err != nil {
		t.Fatalf("SavePair: %v", err)
	}

	loaded, items, err := LoadPair(vecPath, metaPath)
	if err != nil {
		t.Fatalf("LoadPair: %v", err)
	}
	if loaded.Len() != 3 || loaded.Dim() != 2 {
		t.Fatalf("unexpected shape: len=%d dim=%d", loaded.Len(), loaded.Dim())
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 metadata rows, got %d", len(items))
	}

	// The reloaded index must rank identically to the original.
	query := []float32{1, 0}
	want, err := f.Search(query, 3)
	if err != nil {
		t.Fatalf("Search original: %v", err)
	}
	got, err := loaded.Search(query, 3)
	if err != nil {
		t.Fatalf("Search loaded: %v", err)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("hit %d differs after round trip: %v vs %v", i, want[i], got[i])
		}
	}
}

func TestSavePair_RefusesEmptyIndex(t *testing.T) {
	dir := t.TempDir()
	f, _ := NewFlat(2)

	err := SavePair(filepath.Join(dir, "v"), filepath.Join(dir, "m"), f, nil)
	if err == nil {
		t.Fatal("expected error for empty index")
	}
}

func TestSavePair_RefusesCountMismatch(t *testing.T) {
	dir := t.TempDir()
	f := buildTestIndex(t, [][]float32{{1, 0}, {0, 1}})

	err := SavePair(filepath.Join(dir, "v"), filepath.Join(dir, "m"), f, testItems(1))
	if err == nil {
		t.Fatal("expected error for vector/metadata count mismatch")
	}
}

func TestLoadPair_RejectsMismatchedPair(t *testing.T) {
	dir := t.TempDir()
	vecPath := filepath.Join(dir, "v")
	metaPath := filepath.Join(dir, "m")

	f := buildTestIndex(t, [][]float32{{1, 0}, {0, 1}})
	if err := SavePair(vecPath, metaPath, f, testItems(2)); err != nil {
		t.Fatalf("SavePair: %v", err)
	}

	// Overwrite metadata with a shorter list: the pair is now inconsistent.
	if err := os.WriteFile(metaPath, []byte(`[{"image_path":"a.jpg"}]`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, _, err := LoadPair(vecPath, metaPath); err == nil {
		t.Fatal("expected error for mismatched pair")
	}
}

func TestLoadPair_RejectsCorruptArtifacts(t *testing.T) {
	dir := t.TempDir()
	vecPath := filepath.Join(dir, "v")
	metaPath := filepath.Join(dir, "m")

	f := buildTestIndex(t, [][]float32{{1, 0}})
	if err := SavePair(vecPath, metaPath, f, testItems(1)); err != nil {
		t.Fatalf("SavePair: %v", err)
	}
	good, err := os.ReadFile(vecPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"truncated header", good[:8]},
		{"bad magic", append([]byte("NOPE"), good[4:]...)},
		{"truncated payload", good[:len(good)-4]},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := os.WriteFile(vecPath, tc.data, 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, _, err := LoadPair(vecPath, metaPath); err == nil {
				t.Fatal("expected load to fail")
			}
		})
	}
}

func TestLoadPair_RejectsDenormalizedVectors(t *testing.T) {
	dir := t.TempDir()
	vecPath := filepath.Join(dir, "v")
	metaPath := filepath.Join(dir, "m")

	// Bypass Add's normalization to persist a non-unit vector.
	f := &Flat{dim: 2, vectors: [][]float32{{3, 4}}}
	if err := SavePair(vecPath, metaPath, f, testItems(1)); err != nil {
		t.Fatalf("SavePair: %v", err)
	}

	if _, _, err := LoadPair(vecPath, metaPath); err == nil {
		t.Fatal("expected error for denormalized stored vector")
	}
}

func TestLoadPair_RejectsRowsWithoutImagePath(t *testing.T) {
	dir := t.TempDir()
	vecPath := filepath.Join(dir, "v")
	metaPath := filepath.Join(dir, "m")

	f := buildTestIndex(t, [][]float32{{1, 0}})
	if err := SavePair(vecPath, metaPath, f, testItems(1)); err != nil {
		t.Fatalf("SavePair: %v", err)
	}
	if err := os.WriteFile(metaPath, []byte(`[{"display_name":"x"}]`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, _, err := LoadPair(vecPath, metaPath); err == nil {
		t.Fatal("expected error for metadata row without image path")
	}
}

func TestLoadPair_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, _, err := LoadPair(filepath.Join(dir, "absent"), filepath.Join(dir, "absent2"))
	if err == nil {
		t.Fatal("expected error for missing artifacts")
	}
}
