package entitlements

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

// Repository provides the DB reads used by the resolver.
type Repository interface {
	ActivePlanForTenant(ctx context.Context, tenantID uint) (*models.Plan, error)
	PlanBySlug(ctx context.Context, slug string) (*models.Plan, error)
	CountAppointmentsCreatedBetween(ctx context.Context, tenantID uint, start, end time.Time) (int64, error)
	CountOwnerDevices(ctx context.Context, tenantID uint) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an entitlements repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// ActivePlanForTenant returns nil, nil when the tenant has no active subscription.
func (r *gormRepository) ActivePlanForTenant(ctx context.Context, tenantID uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).Model(&models.Plan{}).
		Joins("JOIN tenant_subscriptions ts ON ts.plan_id = plans.id").
		Where("ts.tenant_id = ? AND ts.status = ?", tenantID, models.SubscriptionStatusActive).
		Order("ts.started_at DESC").
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) PlanBySlug(ctx context.Context, slug string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) CountAppointmentsCreatedBetween(ctx context.Context, tenantID uint, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("tenant_id = ? AND created_at BETWEEN ? AND ?", tenantID, start, end).
		Count(&n).Error
	return n, err
}

func (r *gormRepository) CountOwnerDevices(ctx context.Context, tenantID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Device{}).
		Where("tenant_id = ? AND is_owner = ?", tenantID, true).
		Distinct("canonical_device_id").
		Count(&n).Error
	return n, err
}
