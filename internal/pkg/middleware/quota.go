package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/entitlements"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/metrics"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/tenantcontext"
)

// PlanResolver is what the guards need from entitlements.Resolver.
type PlanResolver interface {
	Resolve(ctx context.Context, tenantID uint) (*models.Plan, error)
	CurrentUsage(ctx context.Context, tenantID uint) (entitlements.Usage, error)
}

// Outcome of a guard evaluation.
type Outcome int

const (
	Allow Outcome = iota
	Deny
	// Indeterminate means the lookup failed. Guards let the request through.
	Indeterminate
)

func (o Outcome) String() string {
	switch o {
	case Deny:
		return "deny"
	case Indeterminate:
		return "indeterminate"
	default:
		return "allow"
	}
}

const (
	guardAppointments = "appointments"
	guardProviders    = "providers"
	guardFeature      = "feature"
)

// Decision is the typed result of evaluating a guard.
type Decision struct {
	Outcome   Outcome
	Plan      *models.Plan
	Limited   bool
	Limit     int64
	Current   int64
	Remaining int64
	Err       error
}

// EvaluateAppointmentQuota compares this month's appointments with the plan limit.
func EvaluateAppointmentQuota(ctx context.Context, r PlanResolver, tenantID uint) Decision {
	return evaluateLimit(ctx, r, tenantID, func(p *models.Plan) *int { return p.MaxAppointmentsPerMonth },
		func(u entitlements.Usage) int64 { return u.AppointmentsUsedThisMonth })
}

// EvaluateProviderQuota compares distinct owner devices with the plan's provider limit.
func EvaluateProviderQuota(ctx context.Context, r PlanResolver, tenantID uint) Decision {
	return evaluateLimit(ctx, r, tenantID, func(p *models.Plan) *int { return p.MaxProviders },
		func(u entitlements.Usage) int64 { return u.ProvidersCount })
}

func evaluateLimit(ctx context.Context, r PlanResolver, tenantID uint, limitOf func(*models.Plan) *int, usageOf func(entitlements.Usage) int64) Decision {
	plan, err := r.Resolve(ctx, tenantID)
	if err != nil {
		return Decision{Outcome: Indeterminate, Err: err}
	}
	limit, limited := entitlements.Limit(limitOf(plan))
	if !limited {
		return Decision{Outcome: Allow, Plan: plan}
	}
	usage, err := r.CurrentUsage(ctx, tenantID)
	if err != nil {
		return Decision{Outcome: Indeterminate, Plan: plan, Err: err}
	}
	current := usageOf(usage)
	d := Decision{Plan: plan, Limited: true, Limit: limit, Current: current}
	if current >= limit {
		d.Outcome = Deny
		return d
	}
	d.Outcome = Allow
	d.Remaining = limit - current
	return d
}

// EvaluateFeature checks the has_<feature> flag of the plan. Only an explicit
// false denies; unknown feature names are allowed.
func EvaluateFeature(ctx context.Context, r PlanResolver, tenantID uint, feature string) Decision {
	plan, err := r.Resolve(ctx, tenantID)
	if err != nil {
		return Decision{Outcome: Indeterminate, Err: err}
	}
	enabled, known := plan.Feature(feature)
	if known && !enabled {
		return Decision{Outcome: Deny, Plan: plan}
	}
	return Decision{Outcome: Allow, Plan: plan}
}

func record(c *fiber.Ctx, guard string, d Decision) {
	metrics.QuotaDecisions.WithLabelValues(guard, d.Outcome.String()).Inc()
	if d.Outcome == Indeterminate {
		logger.FromCtx(c).Warn("plan guard lookup failed, allowing request",
			zap.String("guard", guard),
			zap.Uint("tenant_id", tenantcontext.GetTenantID(c)),
			zap.Error(d.Err),
		)
	}
	if d.Plan != nil {
		c.Locals(tenantcontext.KeyPlan, d.Plan)
	}
}

// AppointmentQuota rejects appointment creation once the monthly limit is used up.
func AppointmentQuota(r PlanResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d := EvaluateAppointmentQuota(c.UserContext(), r, tenantcontext.GetTenantID(c))
		record(c, guardAppointments, d)
		if d.Outcome == Deny {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":            "appointment_limit_reached",
				"message":          "Limite mensal de agendamentos do plano atingido",
				"limit":            d.Limit,
				"current":          d.Current,
				"upgrade_required": true,
			})
		}
		if d.Outcome == Allow && d.Limited {
			c.Locals(tenantcontext.KeyQuota, tenantcontext.Quota{Limit: d.Limit, Current: d.Current, Remaining: d.Remaining})
		}
		return c.Next()
	}
}

// OwnerLookup is what ProviderQuota needs from devices.Service.
type OwnerLookup interface {
	IsOwner(ctx context.Context, tenantID uint, canonicalID string) (bool, error)
}

// ProviderQuota rejects owner claims beyond the plan's provider limit. The
// device in :canonical_id passes when it is already an owner, since a repeated
// claim takes no new slot. owners may be nil.
func ProviderQuota(r PlanResolver, owners OwnerLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if owners != nil {
			if id := c.Params("canonical_id"); id != "" {
				owner, err := owners.IsOwner(c.UserContext(), tenantcontext.GetTenantID(c), id)
				if err != nil {
					logger.FromCtx(c).Warn("owner lookup failed, applying provider limit", zap.Error(err))
				}
				if owner {
					return c.Next()
				}
			}
		}
		d := EvaluateProviderQuota(c.UserContext(), r, tenantcontext.GetTenantID(c))
		record(c, guardProviders, d)
		if d.Outcome == Deny {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":            "provider_limit_reached",
				"message":          "Limite de prestadores do plano atingido",
				"limit":            d.Limit,
				"current":          d.Current,
				"upgrade_required": true,
			})
		}
		if d.Outcome == Allow && d.Limited {
			c.Locals(tenantcontext.KeyQuota, tenantcontext.Quota{Limit: d.Limit, Current: d.Current, Remaining: d.Remaining})
		}
		return c.Next()
	}
}

// RequireFeature gates a route behind a plan feature flag such as "sms_notifications".
func RequireFeature(r PlanResolver, feature string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d := EvaluateFeature(c.UserContext(), r, tenantcontext.GetTenantID(c), feature)
		record(c, guardFeature, d)
		if d.Outcome == Deny {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":            "feature_not_available",
				"message":          "Recurso não disponível no plano atual",
				"feature":          feature,
				"current_plan":     d.Plan.Slug,
				"upgrade_required": true,
			})
		}
		return c.Next()
	}
}
