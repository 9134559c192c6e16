package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/tenantcontext"
)

// TenantLookup is the part of the tenant repository the middleware needs.
type TenantLookup interface {
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
}

// TenantMiddleware resolves the tenant from the X-Tenant-ID header or the
// tenant_id query parameter. A numeric value is an id, anything else a slug.
func TenantMiddleware(tenants TenantLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(tenantcontext.HeaderTenantID))
		if raw == "" {
			raw = strings.TrimSpace(c.Query(tenantcontext.QueryTenantID))
		}
		if raw == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "tenant_required",
				"message": "Tenant ID é obrigatório",
			})
		}

		var (
			tenant *models.Tenant
			err    error
		)
		if id, perr := strconv.ParseUint(raw, 10, 64); perr == nil {
			tenant, err = tenants.GetByID(c.UserContext(), uint(id))
		} else {
			tenant, err = tenants.GetBySlug(c.UserContext(), raw)
		}
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error":   "tenant_not_found",
					"message": "Tenant não encontrado",
				})
			}
			logger.FromCtx(c).Error("tenant lookup failed", zap.String("tenant", raw), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "internal_server_error",
				"message": "Falha ao validar tenant",
			})
		}

		if !tenant.IsActive() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "tenant_inactive",
				"message": "Tenant inativo",
			})
		}

		tenantcontext.SetTenant(c, tenant)
		return c.Next()
	}
}
