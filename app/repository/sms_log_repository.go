package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

type smsLogRepository struct {
	db *gorm.DB
}

// NewSMSLogRepository creates a new SMS log repository instance
func NewSMSLogRepository(db *gorm.DB) SMSLogRepository {
	return &smsLogRepository{db: db}
}

func (r *smsLogRepository) Create(ctx context.Context, log *models.SMSLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *smsLogRepository) List(ctx context.Context, tenantID uint, offset, limit int) ([]models.SMSLog, error) {
	var logs []models.SMSLog
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *smsLogRepository) Count(ctx context.Context, tenantID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SMSLog{}).Where("tenant_id = ?", tenantID).Count(&n).Error
	return n, err
}

func (r *smsLogRepository) CountBetween(ctx context.Context, tenantID uint, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SMSLog{}).
		Where("tenant_id = ? AND created_at BETWEEN ? AND ?", tenantID, start, end).
		Count(&n).Error
	return n, err
}
