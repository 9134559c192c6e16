package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/security"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/tenantcontext"
)

// RequireAdmin authenticates moderation requests carrying an admin bearer token.
func RequireAdmin(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			logger.FromCtx(c).Error("admin auth: ADMIN_JWT_SECRET is not configured")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "configuration_error", "message": "Autenticação administrativa não configurada"})
		}

		tokenStr := extractBearerToken(c)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Token administrativo ausente"})
		}

		claims, err := security.VerifyAdminToken(tokenStr, secret)
		if err != nil {
			logger.FromCtx(c).Debug("admin token rejected", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Token administrativo inválido ou expirado"})
		}

		c.Locals(tenantcontext.KeyAdminSubject, claims.Moderator())
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(tenantcontext.HeaderAdminToken))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
