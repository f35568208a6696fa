package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/movie-catalog/internal/domain"
)

const queryCachePrefix = "catalog:query:"

// QueryCache caches catalog listing pages
type QueryCache struct {
	client *Client
	ttl    time.Duration
}

// NewQueryCache creates a new catalog query cache
func NewQueryCache(client *Client, ttl time.Duration) *QueryCache {
	return &QueryCache{client: client, ttl: ttl}
}

func cacheKey(req domain.QueryRequest) string {
	raw := fmt.Sprintf("%d|%d|%s|%s", req.Page, req.Limit, req.Genre, req.SortBy)
	sum := sha256.Sum256([]byte(raw))
	return queryCachePrefix + hex.EncodeToString(sum[:16])
}

// Get returns a cached page, or nil on a miss
func (c *QueryCache) Get(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	data, err := c.client.rdb.Get(ctx, cacheKey(req)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read query cache: %w", err)
	}

	return decodeResult(data)
}

// Set caches a page
func (c *QueryCache) Set(ctx context.Context, req domain.QueryRequest, result *domain.QueryResult) error {
	data, err := encodeResult(result)
	if err != nil {
		return err
	}

	return c.client.rdb.Set(ctx, cacheKey(req), data, c.ttl).Err()
}

// encodeResult stores movies as their rendered documents, so a cached page
// serves the same body as a fresh one
func encodeResult(result *domain.QueryResult) ([]byte, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return data, nil
}

func decodeResult(data []byte) (*domain.QueryResult, error) {
	var result domain.QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached result: %w", err)
	}
	return &result, nil
}
