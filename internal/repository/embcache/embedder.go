// Package embcache caches query embeddings in a key-value store so repeated
// text searches skip the embedding provider entirely.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylist/internal/cache"
	"github.com/kailas-cloud/stylist/internal/domain"
)

const keyPrefix = "stylist:emb_cache:"

// store is the consumer interface for the embedding cache.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder is a decorator around a text Embedder. Image queries are
// never cached (uploads are effectively unique), so the decorator only
// implements the text side of the contract.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	model      string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. The cache key is derived from the model
// name and the query text, so switching models never serves stale vectors.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"); may be nil.
func New(
	inner domain.Embedder,
	s store,
	model string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		model:      model,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// A cache hit reports zero token usage since no provider call was made.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)

	if vec, ok := c.lookup(ctx, key); ok {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	// Cache write failures are logged and swallowed: the embedding is valid
	// regardless of whether the cache accepted it.
	if err := c.store.SetWithTTL(ctx, key, encodeVector(result.Embedding), c.ttl); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

func (c *CachedEmbedder) key(text string) string {
	h := sha256.Sum256([]byte(c.model + "\x00" + text))
	return keyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) count(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	vec, err := decodeVector(data)
	if err != nil {
		c.logger.Warn("Dropping corrupt cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid cached embedding: len=%d", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
