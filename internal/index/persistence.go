package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/google/renameio"

	"github.com/kailas-cloud/stylist/internal/domain"
)

// Artifact layout: the vector index and the metadata list are two files with
// an implicit slot-order contract: slot i in the vectors file is row i in the
// metadata file. They are one logical artifact and are only ever written and
// loaded as a pair.
//
// Vectors file: 4-byte magic, uint32 dim, uint32 count, then count*dim
// little-endian float32 values. Metadata file: JSON array of CatalogItem.

const vectorsMagic = "STY1"

// normTolerance bounds the accepted deviation from unit norm when loading
// stored vectors back from disk.
const normTolerance = 1e-3

// SavePair persists the index and metadata as a matched pair. Both files are
// written via temp-and-rename so a crash mid-write never leaves a
// valid-looking but mismatched pair behind.
func SavePair(vecPath, metaPath string, f *Flat, items []domain.CatalogItem) error {
	if f == nil || f.Len() == 0 {
		return fmt.Errorf("save artifacts: refusing to write an empty index")
	}
	if f.Len() != len(items) {
		return fmt.Errorf("save artifacts: %d vectors but %d metadata rows", f.Len(), len(items))
	}

	vecData := encodeVectors(f)
	metaData, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if err := renameio.WriteFile(vecPath, vecData, 0o644); err != nil {
		return fmt.Errorf("write vectors artifact: %w", err)
	}
	if err := renameio.WriteFile(metaPath, metaData, 0o644); err != nil {
		return fmt.Errorf("write metadata artifact: %w", err)
	}
	return nil
}

// LoadPair reads and cross-validates the artifact pair. Any shape violation
// (bad magic, truncated payload, slot-count mismatch, denormalized vectors,
// rows without an image path) fails the load; the caller decides whether to
// start degraded.
func LoadPair(vecPath, metaPath string) (*Flat, []domain.CatalogItem, error) {
	vecData, err := os.ReadFile(vecPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read vectors artifact: %w", err)
	}
	f, err := decodeVectors(vecData)
	if err != nil {
		return nil, nil, fmt.Errorf("decode vectors artifact %s: %w", vecPath, err)
	}

	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read metadata artifact: %w", err)
	}
	var items []domain.CatalogItem
	if err := json.Unmarshal(metaData, &items); err != nil {
		return nil, nil, fmt.Errorf("decode metadata artifact %s: %w", metaPath, err)
	}

	if f.Len() != len(items) {
		return nil, nil, fmt.Errorf(
			"artifact pair mismatch: %d vectors in %s, %d rows in %s",
			f.Len(), vecPath, len(items), metaPath,
		)
	}
	for i, item := range items {
		if item.ImagePath == "" {
			return nil, nil, fmt.Errorf("metadata row %d has no image path", i)
		}
	}
	return f, items, nil
}

func encodeVectors(f *Flat) []byte {
	buf := make([]byte, 12+f.Len()*f.dim*4)
	copy(buf, vectorsMagic)
	binary.LittleEndian.PutUint32(buf[4:], uint32(f.dim))
	binary.LittleEndian.PutUint32(buf[8:], uint32(f.Len()))
	off := 12
	for _, v := range f.vectors {
		for _, x := range v {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(x))
			off += 4
		}
	}
	return buf
}

func decodeVectors(data []byte) (*Flat, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("truncated header: %d bytes", len(data))
	}
	if string(data[:4]) != vectorsMagic {
		return nil, fmt.Errorf("bad magic %q", data[:4])
	}
	dim := int(binary.LittleEndian.Uint32(data[4:]))
	count := int(binary.LittleEndian.Uint32(data[8:]))
	if dim <= 0 || count <= 0 {
		return nil, fmt.Errorf("invalid shape: dim=%d count=%d", dim, count)
	}
	if want := 12 + count*dim*4; len(data) != want {
		return nil, fmt.Errorf("payload size %d does not match dim=%d count=%d (want %d)", len(data), dim, count, want)
	}

	f := &Flat{dim: dim, vectors: make([][]float32, count)}
	off := 12
	for i := 0; i < count; i++ {
		v := make([]float32, dim)
		for j := 0; j < dim; j++ {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		if err := checkUnitNorm(v); err != nil {
			return nil, fmt.Errorf("vector at slot %d: %w", i, err)
		}
		f.vectors[i] = v
	}
	return f, nil
}

func checkUnitNorm(v []float32) error {
	norm := float64(0)
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1) > normTolerance {
		return fmt.Errorf("not unit-normalized: norm=%g", norm)
	}
	return nil
}
