package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adgm-agent/backend/pkg/logger"
)

// Client caches query embeddings and resolved citations. The cache is an
// optimization only; every caller must work when it is absent.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetEmbedding(ctx context.Context, textHash string, embedding []float32, ttl time.Duration) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	if err := c.client.Set(ctx, fmt.Sprintf("embedding:%s", textHash), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set embedding cache: %w", err)
	}

	logger.Debug("Embedding cached", zap.String("text_hash", textHash))
	return nil
}

func (c *Client) GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("embedding:%s", textHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get embedding cache: %w", err)
	}

	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal embedding: %w", err)
	}

	logger.Debug("Embedding cache hit", zap.String("text_hash", textHash))
	return embedding, true, nil
}

func (c *Client) SetCitation(ctx context.Context, queryHash string, citation interface{}, ttl time.Duration) error {
	data, err := json.Marshal(citation)
	if err != nil {
		return fmt.Errorf("failed to marshal citation: %w", err)
	}

	if err := c.client.Set(ctx, fmt.Sprintf("citation:%s", queryHash), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set citation cache: %w", err)
	}

	return nil
}

func (c *Client) GetCitation(ctx context.Context, queryHash string, citation interface{}) (bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("citation:%s", queryHash)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get citation cache: %w", err)
	}

	if err := json.Unmarshal(data, citation); err != nil {
		return false, fmt.Errorf("failed to unmarshal citation: %w", err)
	}

	logger.Debug("Citation cache hit", zap.String("query_hash", queryHash))
	return true, nil
}

// InvalidateCitations drops cached citations, used after an index rebuild.
func (c *Client) InvalidateCitations(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "citation:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Citation cache invalidated")
	return nil
}
