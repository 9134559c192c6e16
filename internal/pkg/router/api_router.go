package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	apiv1 "github.com/Vortex-Hub-Tech/agendamento/internal/api/v1"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/metrics"
)

// LimiterConfig controls the per-IP limiter of the /api group. A nil Storage
// keeps counters in memory.
type LimiterConfig struct {
	Max        int
	Expiration time.Duration
	Storage    fiber.Storage
}

type ApiRouter struct {
	server  *apiv1.APIServer
	limiter LimiterConfig
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        h.limiter.Max,
		Expiration: h.limiter.Expiration,
		Storage:    h.limiter.Storage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Muitas requisições, tente novamente em instantes",
			})
		},
	}))
	api.Get("/health", h.server.Controllers.Health.HandleHealth)

	// API v1 routes
	v1 := api.Group("/v1")
	apiv1.RegisterHandlers(v1, h.server)
}

func NewApiRouter(server *apiv1.APIServer, limiter LimiterConfig) *ApiRouter {
	if limiter.Max <= 0 {
		limiter.Max = 120
	}
	if limiter.Expiration <= 0 {
		limiter.Expiration = time.Minute
	}
	return &ApiRouter{server: server, limiter: limiter}
}
