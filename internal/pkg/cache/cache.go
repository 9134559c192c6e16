package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/env"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
)

var client *redis.Client

// SetupCache initializes the connection to the Redis server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       env.GetInt("CACHE_DB", 0),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		logger.L().Warn("could not connect to redis", zap.Error(err))
	} else {
		logger.L().Info("connected to redis", zap.String("pong", pong))
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// SetClient replaces the shared client. Used by tests.
func SetClient(c *redis.Client) {
	client = c
}

// Set stores a value in the cache with the given key and expiration time
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value from the cache by key
func Get(ctx context.Context, key string) (string, error) {
	return GetClient().Get(ctx, key).Result()
}

// SetJSON stores v JSON-encoded.
func SetJSON(ctx context.Context, key string, v interface{}, expiration time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return Set(ctx, key, b, expiration)
}

// GetJSON decodes the value at key into v. A missing key returns redis.Nil.
func GetJSON(ctx context.Context, key string, v interface{}) error {
	b, err := GetClient().Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Delete removes a value from the cache by key
func Delete(ctx context.Context, key string) error {
	return GetClient().Del(ctx, key).Err()
}

// JSONStore exposes the JSON helpers of the shared client as a value that can
// be injected into services.
type JSONStore struct{}

func (JSONStore) Get(ctx context.Context, key string, v interface{}) error {
	return GetJSON(ctx, key, v)
}

func (JSONStore) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	return SetJSON(ctx, key, v, ttl)
}

func (JSONStore) Delete(ctx context.Context, key string) error {
	return Delete(ctx, key)
}
