package repository

import (
	"context"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

type pushTokenRepository struct {
	db *gorm.DB
}

// NewPushTokenRepository creates a new push token repository instance
func NewPushTokenRepository(db *gorm.DB) PushTokenRepository {
	return &pushTokenRepository{db: db}
}

// Upsert stores token, moving it to the given tenant/device when it already exists
func (r *pushTokenRepository) Upsert(ctx context.Context, token *models.PushToken) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tenant_id",
			"device_id",
			"provider",
			"updated_at",
		}),
	}).Create(token).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("token = ?", token.Token).First(token).Error
}

func (r *pushTokenRepository) ListByTenant(ctx context.Context, tenantID uint) ([]models.PushToken, error) {
	var tokens []models.PushToken
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&tokens).Error
	return tokens, err
}

func (r *pushTokenRepository) ListByDevice(ctx context.Context, tenantID uint, deviceID string) ([]models.PushToken, error) {
	var tokens []models.PushToken
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND device_id = ?", tenantID, deviceID).Find(&tokens).Error
	return tokens, err
}

// ListOwnerTokens returns the tokens registered by the tenant's owner devices
func (r *pushTokenRepository) ListOwnerTokens(ctx context.Context, tenantID uint) ([]models.PushToken, error) {
	var tokens []models.PushToken
	err := r.db.WithContext(ctx).Table("push_tokens").
		Select("push_tokens.*").
		Joins("JOIN devices ON devices.canonical_device_id = push_tokens.device_id AND devices.tenant_id = push_tokens.tenant_id").
		Where("push_tokens.tenant_id = ? AND devices.is_owner = ?", tenantID, true).
		Find(&tokens).Error
	return tokens, err
}

func (r *pushTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.PushToken{}).Error
}
