// Package builder implements the one-shot offline pipeline that turns a
// tabular catalog dataset and an image tree into the persisted
// (vector index, metadata) artifact pair consumed at service start.
package builder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	// Image formats accepted during embedding extraction.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylist/internal/domain"
	"github.com/kailas-cloud/stylist/internal/index"
)

// Config holds build inputs and outputs.
type Config struct {
	DatasetPath string
	ImagesRoot  string
	IndexPath   string
	MetaPath    string
	// MaxItems caps accepted rows to bound memory and build time. 0 = unlimited.
	MaxItems int
	// ProgressEvery controls progress log frequency during embedding.
	ProgressEvery int
}

// Builder orchestrates dataset ingestion, image resolution, embedding
// extraction, and artifact persistence.
type Builder struct {
	cfg      Config
	embedder domain.ImageEmbedder
	logger   *zap.Logger
}

// New creates a Builder.
func New(cfg Config, embedder domain.ImageEmbedder, logger *zap.Logger) *Builder {
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 500
	}
	return &Builder{cfg: cfg, embedder: embedder, logger: logger}
}

// Result reports build counters.
type Result struct {
	Indexed           int
	SkippedUnresolved int
	SkippedFailed     int
	Dim               int
}

// resolvedRow is a dataset row whose image reference resolved to a file.
type resolvedRow struct {
	path string
	row  Row
}

// Run executes the full pipeline. Per-item failures (unresolvable reference,
// undecodable image, embedding error) are logged and skipped; an empty
// dataset, zero resolvable images, or zero extracted embeddings abort the
// build before any artifact is written.
func (b *Builder) Run(ctx context.Context) (Result, error) {
	rows, err := ReadDataset(b.cfg.DatasetPath)
	if err != nil {
		return Result{}, fmt.Errorf("load dataset: %w", err)
	}
	if len(rows) == 0 {
		return Result{}, fmt.Errorf("dataset %s has no rows", b.cfg.DatasetPath)
	}
	b.logger.Info("Dataset loaded",
		zap.String("path", b.cfg.DatasetPath),
		zap.Int("rows", len(rows)),
	)

	resolved, skippedUnresolved, err := b.resolveImages(rows)
	if err != nil {
		return Result{}, err
	}
	b.logger.Info("Image references resolved",
		zap.Int("resolved", len(resolved)),
		zap.Int("skipped", skippedUnresolved),
	)

	flat, items, skippedFailed, err := b.extractEmbeddings(ctx, resolved)
	if err != nil {
		return Result{}, err
	}

	if err := index.SavePair(b.cfg.IndexPath, b.cfg.MetaPath, flat, items); err != nil {
		return Result{}, fmt.Errorf("persist artifacts: %w", err)
	}
	b.logger.Info("Artifacts written",
		zap.String("index", b.cfg.IndexPath),
		zap.String("metadata", b.cfg.MetaPath),
		zap.Int("vectors", flat.Len()),
		zap.Int("dim", flat.Dim()),
	)

	return Result{
		Indexed:           flat.Len(),
		SkippedUnresolved: skippedUnresolved,
		SkippedFailed:     skippedFailed,
		Dim:               flat.Dim(),
	}, nil
}

func (b *Builder) resolveImages(rows []Row) ([]resolvedRow, int, error) {
	resolver, err := NewResolver(b.cfg.ImagesRoot)
	if err != nil {
		return nil, 0, err
	}

	var resolved []resolvedRow
	skipped := 0
	for _, row := range rows {
		if b.cfg.MaxItems > 0 && len(resolved) >= b.cfg.MaxItems {
			break
		}
		path, ok := resolver.Resolve(row.ImageRef)
		if !ok {
			skipped++
			b.logger.Debug("Image reference not resolvable", zap.String("ref", row.ImageRef))
			continue
		}
		resolved = append(resolved, resolvedRow{path: path, row: row})
	}
	if len(resolved) == 0 {
		return nil, skipped, fmt.Errorf("no resolvable images in dataset (checked %d rows)", len(rows))
	}
	return resolved, skipped, nil
}

func (b *Builder) extractEmbeddings(
	ctx context.Context, resolved []resolvedRow,
) (*index.Flat, []domain.CatalogItem, int, error) {
	var flat *index.Flat
	items := make([]domain.CatalogItem, 0, len(resolved))
	failed := 0

	for i, r := range resolved {
		if err := ctx.Err(); err != nil {
			return nil, nil, failed, fmt.Errorf("build interrupted: %w", err)
		}

		vec, err := b.embedOne(ctx, r.path)
		if err != nil {
			failed++
			b.logger.Warn("Skipping item", zap.String("image", r.path), zap.Error(err))
			continue
		}

		if flat == nil {
			flat, err = index.NewFlat(len(vec))
			if err != nil {
				return nil, nil, failed, fmt.Errorf("init index: %w", err)
			}
		}
		// Append to metadata only after a successful Add so slot order stays
		// in lockstep with the index.
		if _, err := flat.Add(vec); err != nil {
			failed++
			b.logger.Warn("Skipping item", zap.String("image", r.path), zap.Error(err))
			continue
		}
		items = append(items, domain.CatalogItem{
			ImagePath:   r.path,
			DisplayName: r.row.DisplayName,
			Category:    r.row.Category,
			Description: r.row.Description,
		})

		if (i+1)%b.cfg.ProgressEvery == 0 {
			b.logger.Info("Embedding progress",
				zap.Int("processed", i+1),
				zap.Int("total", len(resolved)),
				zap.Int("failed", failed),
			)
		}
	}

	if flat == nil || flat.Len() == 0 {
		return nil, nil, failed, fmt.Errorf("no embeddings extracted (%d items failed)", failed)
	}
	return flat, items, failed, nil
}

// embedOne loads one image file, verifies it decodes, and extracts its
// embedding. Normalization happens at index insertion, not here.
func (b *Builder) embedOne(ctx context.Context, path string) ([]float32, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- paths come from the scanned images root
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAnImage, err)
	}
	res, err := b.embedder.EmbedImage(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("embed image: %w", err)
	}
	if len(res.Embedding) == 0 {
		return nil, fmt.Errorf("embed image: empty embedding")
	}
	return res.Embedding, nil
}
