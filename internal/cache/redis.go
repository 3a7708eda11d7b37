// Package cache provides the key-value client backing the optional
// query-embedding cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// ErrKeyNotFound signals a cache miss.
var ErrKeyNotFound = errors.New("key not found")

// Redis is a minimal KV client over rueidis. The service only ever performs
// GET and SET with TTL; client-side caching is disabled because embedding
// blobs are large and rarely re-read within one process.
type Redis struct {
	client rueidis.Client
}

// NewRedis connects to the given addresses.
func NewRedis(addrs []string, password string) (*Redis, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  addrs,
		Password:     password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect cache: %w", err)
	}
	return &Redis{client: client}, nil
}

// Get retrieves a value by key. Returns ErrKeyNotFound on miss.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := r.client.B().Get().Key(key).Build()
	data, err := r.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return data, nil
}

// SetWithTTL stores a value with an expiration. ttl <= 0 stores without expiry.
func (r *Redis) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = r.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	} else {
		cmd = r.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	}
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close releases the client.
func (r *Redis) Close() {
	r.client.Close()
}
