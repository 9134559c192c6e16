package cache

import (
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/redis"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/env"
)

// LimiterDatabase keeps rate limiter counters away from the cache keys in DB 0.
const LimiterDatabase = 1

// NewFiberStorage returns a fiber.Storage on the same Redis server as the
// shared client, using database db.
func NewFiberStorage(db int) fiber.Storage {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetInt("CACHE_PORT", 6379)
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: db,
		Reset:    false,
	})
}
