// Command stylist-build runs the one-shot offline index build: it reads a
// tabular catalog dataset plus an image tree and writes the vector index and
// metadata artifacts consumed by the stylist API server.
//
// Usage:
//
//	stylist-build -dataset /data/catalog.csv -images-root /data/images
//
// Provider credentials and artifact paths come from config/<ENV>.yaml; flags
// override the configured build inputs.
package main

import (
	"context"
	"flag"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylist/internal/builder"
	"github.com/kailas-cloud/stylist/internal/config"
	logpkg "github.com/kailas-cloud/stylist/internal/logger"
	openaiTransport "github.com/kailas-cloud/stylist/internal/transport/openai"
	"github.com/kailas-cloud/stylist/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	bcfg := parseFlags(cfg)
	if bcfg.DatasetPath == "" {
		logger.Fatal("No dataset: set -dataset or builder.dataset_path in config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger.Info("Starting index build",
		zap.String("version", version.Version),
		zap.String("dataset", bcfg.DatasetPath),
		zap.String("images_root", bcfg.ImagesRoot),
		zap.String("index_path", bcfg.IndexPath),
		zap.String("metadata_path", bcfg.MetaPath),
		zap.Int("max_items", bcfg.MaxItems),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	embedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	start := time.Now()
	result, err := builder.New(bcfg, embedder, logger).Run(ctx)
	if err != nil {
		logger.Fatal("Index build failed", zap.Error(err))
	}

	logger.Info("Index build complete",
		zap.Duration("elapsed", time.Since(start).Round(time.Second)),
		zap.Int("indexed", result.Indexed),
		zap.Int("dim", result.Dim),
		zap.Int("skipped_unresolved", result.SkippedUnresolved),
		zap.Int("skipped_failed", result.SkippedFailed),
	)
}

func parseFlags(cfg config.Config) builder.Config {
	bcfg := builder.Config{
		DatasetPath:   cfg.Builder.DatasetPath,
		ImagesRoot:    cfg.Builder.ImagesRoot,
		IndexPath:     cfg.Artifacts.IndexPath,
		MetaPath:      cfg.Artifacts.MetadataPath,
		MaxItems:      cfg.Builder.MaxItems,
		ProgressEvery: cfg.Builder.ProgressEvery,
	}
	flag.StringVar(&bcfg.DatasetPath, "dataset", bcfg.DatasetPath, "tabular dataset file (.csv or .parquet)")
	flag.StringVar(&bcfg.ImagesRoot, "images-root", bcfg.ImagesRoot, "directory searched recursively for image files")
	flag.StringVar(&bcfg.IndexPath, "out-index", bcfg.IndexPath, "vector index artifact path")
	flag.StringVar(&bcfg.MetaPath, "out-meta", bcfg.MetaPath, "metadata artifact path")
	flag.IntVar(&bcfg.MaxItems, "max-items", bcfg.MaxItems, "max catalog items to index (0=unlimited)")
	flag.Parse()

	if bcfg.ImagesRoot == "" && bcfg.DatasetPath != "" {
		bcfg.ImagesRoot = filepath.Dir(bcfg.DatasetPath)
	}
	return bcfg
}
