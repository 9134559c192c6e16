package repository

import (
	"context"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

type integrationRepository struct {
	db *gorm.DB
}

// NewIntegrationRepository creates a new tenant integration repository instance
func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &integrationRepository{db: db}
}

func (r *integrationRepository) GetByTenant(ctx context.Context, tenantID uint) (*models.TenantIntegration, error) {
	var ti models.TenantIntegration
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&ti).Error; err != nil {
		return nil, err
	}
	return &ti, nil
}
