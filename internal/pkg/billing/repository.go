package billing

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

// ErrAlreadyProvisioned is returned when the pending payment was claimed before.
var ErrAlreadyProvisioned = errors.New("pending payment already provisioned")

// Repository provides DB operations used by the billing service.
type Repository interface {
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error

	PlanBySlug(ctx context.Context, slug string) (*models.Plan, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	CreatePendingPayment(ctx context.Context, p *models.PendingPayment) error
	GetPendingPayment(ctx context.Context, reference string) (*models.PendingPayment, error)

	ProvisionTenant(ctx context.Context, reference string, now time.Time) (*models.Tenant, error)
	SetBillingState(ctx context.Context, tenantID uint, subscriptionStatus, tenantStatus string, now time.Time) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.WithContext(ctx).Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) PlanBySlug(ctx context.Context, slug string) (*models.Plan, error) {
	var p models.Plan
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Tenant{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *gormRepository) CreatePendingPayment(ctx context.Context, p *models.PendingPayment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *gormRepository) GetPendingPayment(ctx context.Context, reference string) (*models.PendingPayment, error) {
	var p models.PendingPayment
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ProvisionTenant claims the pending payment and creates the tenant, its
// integration record and an active subscription in one transaction. The claim
// is a conditional update, so concurrent deliveries provision at most once;
// the loser gets ErrAlreadyProvisioned.
func (r *gormRepository) ProvisionTenant(ctx context.Context, reference string, now time.Time) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.PendingPayment{}).
			Where("reference = ? AND status = ?", reference, models.PendingPaymentStatusPending).
			Updates(map[string]interface{}{
				"status":       models.PendingPaymentStatusCompleted,
				"completed_at": now,
			})
		if claim.Error != nil {
			return claim.Error
		}

		var pending models.PendingPayment
		if err := tx.Where("reference = ?", reference).First(&pending).Error; err != nil {
			return err
		}
		if claim.RowsAffected == 0 {
			if pending.TenantID != nil {
				tenant.ID = *pending.TenantID
			}
			return ErrAlreadyProvisioned
		}

		var plan models.Plan
		if err := tx.Where("slug = ?", pending.PlanSlug).First(&plan).Error; err != nil {
			return err
		}

		tenant = models.Tenant{
			Name:     pending.TenantName,
			Slug:     pending.TenantSlug,
			Status:   models.TenantStatusActive,
			Settings: map[string]interface{}{},
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		integration := models.TenantIntegration{TenantID: tenant.ID, SchedulingEnabled: true}
		if err := tx.Create(&integration).Error; err != nil {
			return err
		}

		sub := models.TenantSubscription{
			TenantID:  tenant.ID,
			PlanID:    plan.ID,
			Status:    models.SubscriptionStatusActive,
			StartedAt: now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"plan_id", "status", "started_at", "updated_at"}),
		}).Create(&sub).Error; err != nil {
			return err
		}

		return tx.Model(&models.PendingPayment{}).Where("id = ?", pending.ID).Update("tenant_id", tenant.ID).Error
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyProvisioned) {
			return &tenant, err
		}
		return nil, err
	}
	return &tenant, nil
}

// SetBillingState updates the tenant status and its subscription together.
// Activating a tenant without a subscription row creates one on the default plan.
func (r *gormRepository) SetBillingState(ctx context.Context, tenantID uint, subscriptionStatus, tenantStatus string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Tenant{}).Where("id = ?", tenantID).Update("status", tenantStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.Tenant{}).Where("id = ?", tenantID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		res = tx.Model(&models.TenantSubscription{}).Where("tenant_id = ?", tenantID).Update("status", subscriptionStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 || subscriptionStatus != models.SubscriptionStatusActive {
			return nil
		}

		var exists int64
		if err := tx.Model(&models.TenantSubscription{}).Where("tenant_id = ?", tenantID).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return nil
		}
		var plan models.Plan
		if err := tx.Where("slug = ?", models.DefaultPlanSlug).First(&plan).Error; err != nil {
			return err
		}
		return tx.Create(&models.TenantSubscription{
			TenantID:  tenantID,
			PlanID:    plan.ID,
			Status:    models.SubscriptionStatusActive,
			StartedAt: now,
		}).Error
	})
}
