package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/entitlements"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/tenantcontext"
)

// PlanUsageResolver is what the plan endpoints need from entitlements.Resolver.
type PlanUsageResolver interface {
	Resolve(ctx context.Context, tenantID uint) (*models.Plan, error)
	CurrentUsage(ctx context.Context, tenantID uint) (entitlements.Usage, error)
}

type PlanController struct {
	plans    repository.PlanRepository
	resolver PlanUsageResolver
}

func NewPlanController(plans repository.PlanRepository, resolver PlanUsageResolver) *PlanController {
	return &PlanController{plans: plans, resolver: resolver}
}

// HandleList returns the public plan catalog.
func (pc *PlanController) HandleList(c *fiber.Ctx) error {
	plans, err := pc.plans.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"plans": plans})
}

type limitView struct {
	Limit     *int64 `json:"limit"`
	Used      int64  `json:"used"`
	Remaining *int64 `json:"remaining"`
}

func newLimitView(limit *int, used int64) limitView {
	v := limitView{Used: used}
	if l, limited := entitlements.Limit(limit); limited {
		remaining := l - used
		if remaining < 0 {
			remaining = 0
		}
		v.Limit, v.Remaining = &l, &remaining
	}
	return v
}

// HandleCurrent returns the tenant's resolved plan with this month's usage.
func (pc *PlanController) HandleCurrent(c *fiber.Ctx) error {
	tenantID := tenantcontext.GetTenantID(c)
	plan, err := pc.resolver.Resolve(c.UserContext(), tenantID)
	if err != nil {
		return respondError(c, err)
	}
	usage, err := pc.resolver.CurrentUsage(c.UserContext(), tenantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"plan":  plan,
		"usage": usage,
		"limits": fiber.Map{
			"appointments": newLimitView(plan.MaxAppointmentsPerMonth, usage.AppointmentsUsedThisMonth),
			"providers":    newLimitView(plan.MaxProviders, usage.ProvidersCount),
		},
	})
}
