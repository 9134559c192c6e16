package repository

import (
	"context"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

type serviceRepository struct {
	db *gorm.DB
}

// NewServiceRepository creates a new service repository instance
func NewServiceRepository(db *gorm.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) Create(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

// GetByID returns the service only when it belongs to tenantID
func (r *serviceRepository) GetByID(ctx context.Context, tenantID, id uint) (*models.Service, error) {
	var service models.Service
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&service).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *serviceRepository) ListByTenant(ctx context.Context, tenantID uint, onlyActive bool) ([]models.Service, error) {
	var services []models.Service
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if onlyActive {
		q = q.Where("active = ?", true)
	}
	err := q.Order("name ASC").Find(&services).Error
	return services, err
}

func (r *serviceRepository) Update(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Model(service).
		Select("name", "description", "duration_minutes", "price", "active").
		Updates(service).Error
}

func (r *serviceRepository) Delete(ctx context.Context, tenantID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&models.Service{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
