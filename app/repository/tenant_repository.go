package repository

import (
	"context"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository instance
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// ListActive returns active tenants ordered by id
func (r *tenantRepository) ListActive(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.WithContext(ctx).Where("status = ?", models.TenantStatusActive).Order("id ASC").Find(&tenants).Error
	return tenants, err
}

// UpdateProfile sets the name when given and merges settings keys over the stored ones.
func (r *tenantRepository) UpdateProfile(ctx context.Context, id uint, name *string, settings map[string]interface{}) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tenant, id).Error; err != nil {
			return err
		}
		if name != nil {
			tenant.Name = strings.TrimSpace(*name)
		}
		if len(settings) > 0 {
			tenant.Settings = mergeSettings(tenant.Settings, settings)
		}
		return tx.Model(&tenant).Select("name", "settings").Updates(&tenant).Error
	})
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) MergeSettings(ctx context.Context, id uint, settings map[string]interface{}) error {
	_, err := r.UpdateProfile(ctx, id, nil, settings)
	return err
}

func mergeSettings(current datatypes.JSONMap, updates map[string]interface{}) datatypes.JSONMap {
	merged := datatypes.JSONMap{}
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range updates {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return merged
}
