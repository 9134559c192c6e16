package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

type validationCodeRepository struct {
	db *gorm.DB
}

// NewValidationCodeRepository creates a new validation code repository instance
func NewValidationCodeRepository(db *gorm.DB) ValidationCodeRepository {
	return &validationCodeRepository{db: db}
}

func (r *validationCodeRepository) Create(ctx context.Context, code *models.ValidationCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// LatestActive returns the newest unconsumed, unexpired code for the phone
func (r *validationCodeRepository) LatestActive(ctx context.Context, tenantID uint, phone string, now time.Time) (*models.ValidationCode, error) {
	var code models.ValidationCode
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND phone = ? AND consumed_at IS NULL AND expires_at > ?", tenantID, phone, now).
		Order("created_at DESC, id DESC").
		First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *validationCodeRepository) IncrementAttempts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.ValidationCode{}).Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

// Consume marks the code used. It reports false when another request consumed it first.
func (r *validationCodeRepository) Consume(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ValidationCode{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
