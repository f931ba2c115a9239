package redis

import (
	"context"
	"time"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const pingTimeout = 3 * time.Second

type Service struct {
	client *redis.Client
}

// NewService connects to Redis, or returns nil when Redis is not
// configured or not reachable.
func NewService(cfg *config.Config) *Service {
	if cfg.RedisURL == "" {
		log.Info().Msg("Redis URL not configured - using in-memory resource ledger")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Error().
			Err(err).
			Str("addr", cfg.RedisURL).
			Msg("Failed to establish Redis connection")
		_ = client.Close()
		return nil
	}

	return NewServiceWithClient(client)
}

// NewServiceWithClient wraps an existing client.
func NewServiceWithClient(client *redis.Client) *Service {
	return &Service{client: client}
}

// AddToSet adds members to the set stored at key
func (s *Service) AddToSet(ctx context.Context, key string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}

	if err := s.client.SAdd(ctx, key, args...).Err(); err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Redis SADD operation failed")
		return err
	}
	return nil
}

// RemoveFromSet removes members from the set stored at key
func (s *Service) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}

	if err := s.client.SRem(ctx, key, args...).Err(); err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Redis SREM operation failed")
		return err
	}
	return nil
}

// SetMembers returns every member of the set stored at key
func (s *Service) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil && err != redis.Nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Redis SMEMBERS operation failed")
		return nil, err
	}
	return members, nil
}

// Set stores a value at key with an expiration
func (s *Service) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := s.client.Set(ctx, key, value, expiration).Err(); err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Dur("expiration", expiration).
			Msg("Redis SET operation failed")
		return err
	}
	return nil
}

// Exists reports whether key is present
func (s *Service) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Redis EXISTS operation failed")
		return false, err
	}
	return n > 0, nil
}

// Delete removes keys from Redis
func (s *Service) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// Ping checks if Redis is accessible
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Service) Close() error {
	return s.client.Close()
}
