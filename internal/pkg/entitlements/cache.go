package entitlements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
)

// DefaultPlanCacheTTL bounds how long a subscription change can go unnoticed
// when an invalidation is lost.
const DefaultPlanCacheTTL = time.Minute

// PlanCache stores resolved plans per tenant. Get/Set failures are swallowed.
type PlanCache interface {
	Get(ctx context.Context, tenantID uint) (*models.Plan, bool)
	Set(ctx context.Context, tenantID uint, plan *models.Plan)
	Invalidate(ctx context.Context, tenantID uint) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, uint) (*models.Plan, bool) { return nil, false }
func (noopCache) Set(context.Context, uint, *models.Plan)        {}
func (noopCache) Invalidate(context.Context, uint) error         { return nil }

// RedisPlanCache keeps resolved plans as JSON under entitlements:plan:<tenant>.
type RedisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPlanCache creates a Redis-backed plan cache. ttl <= 0 uses DefaultPlanCacheTTL.
func NewRedisPlanCache(client *redis.Client, ttl time.Duration) *RedisPlanCache {
	if ttl <= 0 {
		ttl = DefaultPlanCacheTTL
	}
	return &RedisPlanCache{client: client, ttl: ttl}
}

func planKey(tenantID uint) string {
	return fmt.Sprintf("entitlements:plan:%d", tenantID)
}

func (c *RedisPlanCache) Get(ctx context.Context, tenantID uint) (*models.Plan, bool) {
	raw, err := c.client.Get(ctx, planKey(tenantID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Debug("plan cache read failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		}
		return nil, false
	}
	var plan models.Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, false
	}
	return &plan, true
}

func (c *RedisPlanCache) Set(ctx context.Context, tenantID uint, plan *models.Plan) {
	raw, err := json.Marshal(plan)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, planKey(tenantID), raw, c.ttl).Err(); err != nil {
		logger.L().Debug("plan cache write failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
	}
}

func (c *RedisPlanCache) Invalidate(ctx context.Context, tenantID uint) error {
	return c.client.Del(ctx, planKey(tenantID)).Err()
}
