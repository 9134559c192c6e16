// Package testutil holds helpers shared by tests that need live infrastructure.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/env"
)

// isolatedRedisDB keeps test keys away from a developer's local data.
const isolatedRedisDB = 14

// RedisClient returns a client for the first reachable Redis endpoint on an
// isolated, flushed database. The test is skipped when none responds.
func RedisClient(t *testing.T) *redis.Client {
	t.Helper()

	hosts := uniq(env.GetEnv("CACHE_HOST", ""), "cache", "localhost", "127.0.0.1")
	ports := uniq(env.GetEnv("CACHE_PORT", "6379"), "6379")
	passwords := []string{env.GetEnv("CACHE_PASSWORD", "")}
	if passwords[0] != "" {
		passwords = append(passwords, "")
	}

	var lastErr error
	for _, host := range hosts {
		for _, port := range ports {
			for _, password := range passwords {
				client := redis.NewClient(&redis.Options{
					Addr:     fmt.Sprintf("%s:%s", host, port),
					Password: password,
					DB:       isolatedRedisDB,
				})
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				err := client.Ping(ctx).Err()
				if err == nil {
					err = client.FlushDB(ctx).Err()
				}
				cancel()
				if err == nil {
					t.Cleanup(func() {
						_ = client.FlushDB(context.Background()).Err()
						_ = client.Close()
					})
					return client
				}
				_ = client.Close()
				lastErr = err
			}
		}
	}

	t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", lastErr)
	return nil
}

func uniq(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
