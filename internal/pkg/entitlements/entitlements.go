package entitlements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
)

// Usage is a tenant's consumption in the current calendar month.
type Usage struct {
	AppointmentsUsedThisMonth int64 `json:"appointments_used_this_month"`
	ProvidersCount            int64 `json:"providers_count"`
}

// Resolver answers which plan applies to a tenant and how much of it is used.
type Resolver struct {
	repo  Repository
	cache PlanCache
	now   func() time.Time
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(repo Repository, cache PlanCache) *Resolver {
	if cache == nil {
		cache = noopCache{}
	}
	return &Resolver{repo: repo, cache: cache, now: time.Now}
}

// NewResolverFromDB creates a resolver backed by GORM and the given plan cache.
func NewResolverFromDB(db *gorm.DB, cache PlanCache) *Resolver {
	return NewResolver(NewRepository(db), cache)
}

// Resolve returns the plan of the tenant's active subscription, or the starter
// plan when there is none. A missing starter plan is a ConfigurationError.
func (r *Resolver) Resolve(ctx context.Context, tenantID uint) (*models.Plan, error) {
	if plan, ok := r.cache.Get(ctx, tenantID); ok {
		return plan, nil
	}

	plan, err := r.repo.ActivePlanForTenant(ctx, tenantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("resolve plan for tenant %d: %w", tenantID, err)
	}
	if plan == nil {
		plan, err = r.repo.PlanBySlug(ctx, models.DefaultPlanSlug)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Configuration("default plan %q is missing from the plan catalog", models.DefaultPlanSlug)
		}
		if err != nil {
			return nil, fmt.Errorf("load default plan: %w", err)
		}
	}

	r.cache.Set(ctx, tenantID, plan)
	return plan, nil
}

// CurrentUsage counts appointments created this calendar month and distinct owner devices.
func (r *Resolver) CurrentUsage(ctx context.Context, tenantID uint) (Usage, error) {
	start, end := MonthWindow(r.now())
	appts, err := r.repo.CountAppointmentsCreatedBetween(ctx, tenantID, start, end)
	if err != nil {
		return Usage{}, fmt.Errorf("count appointments: %w", err)
	}
	providers, err := r.repo.CountOwnerDevices(ctx, tenantID)
	if err != nil {
		return Usage{}, fmt.Errorf("count owner devices: %w", err)
	}
	return Usage{AppointmentsUsedThisMonth: appts, ProvidersCount: providers}, nil
}

// Invalidate drops the cached plan of a tenant. Call it whenever its subscription changes.
func (r *Resolver) Invalidate(ctx context.Context, tenantID uint) {
	if err := r.cache.Invalidate(ctx, tenantID); err != nil {
		logger.L().Warn("plan cache invalidation failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
	}
}

// MonthWindow returns the first and last second of t's calendar month in local time.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	local := t.In(time.Local)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

// Limit reports a nullable plan limit as (value, limited).
func Limit(v *int) (int64, bool) {
	if v == nil {
		return 0, false
	}
	return int64(*v), true
}
