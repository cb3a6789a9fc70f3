package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Sendient/ai-detector-sub000/internal/config"
	"github.com/Sendient/ai-detector-sub000/internal/model"
)

// RedisStore keeps the document cache in a Redis hash so that several UI
// processes can share one engine's view of the pipeline. Documents are
// stored as JSON values keyed by document id.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisStore{
		client: rdb,
		key:    cfg.Redis.Keyspace,
	}, nil
}

func (s *RedisStore) List(ctx context.Context) ([]model.Document, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	out := make([]model.Document, 0, len(values))
	for id, raw := range values {
		var doc model.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("corrupt document %s in store: %w", id, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.Document, error) {
	raw, err := s.client.HGet(ctx, s.key, id).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}

	var doc model.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("corrupt document %s in store: %w", id, err)
	}
	return &doc, nil
}

func (s *RedisStore) Put(ctx context.Context, doc model.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", doc.ID, err)
	}
	return s.client.HSet(ctx, s.key, doc.ID, data).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.HDel(ctx, s.key, id).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
