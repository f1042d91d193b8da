package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"staybook/internal/config"
	"staybook/internal/flow"

	"github.com/redis/go-redis/v9"
)

const (
	flowKeyPrefix  = "flow:"
	tokenKeyPrefix = "auth_token:"
)

type RedisFlowRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a client from the redis section of the config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

// NewRedisFlowRepository stores flows with ttl as the abandonment timeout.
// Every save refreshes the timeout.
func NewRedisFlowRepository(client *redis.Client, ttl time.Duration) *RedisFlowRepository {
	return &RedisFlowRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisFlowRepository) GetFlow(ctx context.Context, flowID string) (*flow.Flow, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, flowKeyPrefix+flowID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flow from redis: %w", err)
	}

	var f flow.Flow
	if err := json.Unmarshal([]byte(val), &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow: %w", err)
	}

	return &f, nil
}

func (r *RedisFlowRepository) SaveFlow(ctx context.Context, f *flow.Flow) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	if err := r.client.Set(ctx, flowKeyPrefix+f.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set flow in redis: %w", err)
	}

	return nil
}

func (r *RedisFlowRepository) DeleteFlow(ctx context.Context, flowID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, flowKeyPrefix+flowID).Err(); err != nil {
		return fmt.Errorf("failed to delete flow from redis: %w", err)
	}
	return nil
}

// RedisTokenStore persists the bearer token under a per-profile key.
type RedisTokenStore struct {
	client  *redis.Client
	profile string
}

func NewRedisTokenStore(client *redis.Client, profile string) *RedisTokenStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisTokenStore{client: client, profile: profile}
}

func (s *RedisTokenStore) GetToken(ctx context.Context) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}
	val, err := s.client.Get(ctx, tokenKeyPrefix+s.profile).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get token from redis: %w", err)
	}
	return val, nil
}

func (s *RedisTokenStore) SetToken(ctx context.Context, token string) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := s.client.Set(ctx, tokenKeyPrefix+s.profile, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to set token in redis: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) ClearToken(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := s.client.Del(ctx, tokenKeyPrefix+s.profile).Err(); err != nil {
		return fmt.Errorf("failed to delete token from redis: %w", err)
	}
	return nil
}

// Ping checks the connection.
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
