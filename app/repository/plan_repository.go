package repository

import (
	"context"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// List returns the catalog ordered by price
func (r *planRepository) List(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.WithContext(ctx).Order("price ASC, id ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepository) GetBySlug(ctx context.Context, slug string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}
