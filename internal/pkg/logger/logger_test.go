package logger

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	prev := log
	t.Cleanup(func() { log = prev })

	require.NoError(t, Init(Config{Level: "debug", Environment: "dev", ServiceName: "test"}))
	assert.True(t, L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init(Config{Level: "warn", Environment: "production", ServiceName: "test"}))
	assert.False(t, L().Core().Enabled(zap.InfoLevel))
}

func TestMiddleware_LogsWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := log
	log = zap.New(core)
	t.Cleanup(func() { log = prev })

	app := fiber.New()
	app.Use(Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error {
		FromCtx(c).Info("inside")
		return c.SendString("pong")
	})

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "inside", entries[0].Message)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "HTTP request", entries[1].Message)
	assert.EqualValues(t, fiber.StatusOK, entries[1].ContextMap()["status"])
	assert.Equal(t, "/ping", entries[1].ContextMap()["path"])
}

func TestFromCtx_FallsBackToProcessLogger(t *testing.T) {
	app := fiber.New()
	var got *zap.Logger
	app.Get("/", func(c *fiber.Ctx) error {
		got = FromCtx(c)
		return nil
	})
	_, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	assert.Same(t, log, got)
}
