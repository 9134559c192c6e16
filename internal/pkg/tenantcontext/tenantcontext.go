package tenantcontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

// Quota is the remaining-quota information the appointment guard leaves for handlers.
type Quota struct {
	Limit     int64 `json:"limit"`
	Current   int64 `json:"current"`
	Remaining int64 `json:"remaining"`
}

// GetTenant returns the tenant resolved by the tenant middleware, or nil.
func GetTenant(c *fiber.Ctx) *models.Tenant {
	if t, ok := c.Locals(KeyTenant).(*models.Tenant); ok {
		return t
	}
	return nil
}

// GetTenantID returns the current tenant id, or 0 when the route is not tenant scoped.
func GetTenantID(c *fiber.Ctx) uint {
	if id, ok := c.Locals(KeyTenantID).(uint); ok {
		return id
	}
	return 0
}

// SetTenant stores the resolved tenant on the request.
func SetTenant(c *fiber.Ctx, t *models.Tenant) {
	c.Locals(KeyTenant, t)
	c.Locals(KeyTenantID, t.ID)
}

// GetDeviceID returns the canonical device id sent by the client, if any.
func GetDeviceID(c *fiber.Ctx) string {
	return c.Get(HeaderDeviceID)
}

// GetPlan returns the plan resolved by a quota guard earlier in the chain.
func GetPlan(c *fiber.Ctx) *models.Plan {
	if p, ok := c.Locals(KeyPlan).(*models.Plan); ok {
		return p
	}
	return nil
}

// GetQuota returns the quota annotation left by the appointment guard.
func GetQuota(c *fiber.Ctx) (Quota, bool) {
	q, ok := c.Locals(KeyQuota).(Quota)
	return q, ok
}

// GetAdminSubject returns the moderator identity from a verified admin token.
func GetAdminSubject(c *fiber.Ctx) string {
	if s, ok := c.Locals(KeyAdminSubject).(string); ok {
		return s
	}
	return ""
}
