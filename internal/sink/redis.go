package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ytcomments/internal/scraper"
)

// DefaultRedisKey is the list records are pushed to.
const DefaultRedisKey = "ytcomments:comments"

// Redis appends JSON records to a Redis list.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis connects to url and verifies the connection.
func NewRedis(url, key string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisClient(client, key), nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

func (r *Redis) Append(ctx context.Context, c scraper.Comment) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.client.RPush(ctx, r.key, payload).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
