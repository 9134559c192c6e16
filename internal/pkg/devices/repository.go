package devices

import (
	"context"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

// Repository provides DB operations used by the device service.
type Repository interface {
	GetByLocalID(ctx context.Context, tenantID uint, localID string) (*models.Device, error)
	GetByCanonicalID(ctx context.Context, tenantID uint, canonicalID string) (*models.Device, error)
	CreateIfAbsent(ctx context.Context, d *models.Device) (bool, error)
	UpdateFingerprint(ctx context.Context, d *models.Device) error
	MarkOwner(ctx context.Context, id uint) error
	ClaimTenantOwner(ctx context.Context, tenantID uint, canonicalID string) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a device repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByLocalID(ctx context.Context, tenantID uint, localID string) (*models.Device, error) {
	var d models.Device
	err := r.db.WithContext(ctx).Where("local_device_id = ? AND tenant_id = ?", localID, tenantID).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *gormRepository) GetByCanonicalID(ctx context.Context, tenantID uint, canonicalID string) (*models.Device, error) {
	var d models.Device
	err := r.db.WithContext(ctx).Where("canonical_device_id = ? AND tenant_id = ?", canonicalID, tenantID).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateIfAbsent inserts d unless (local_device_id, tenant_id) already exists.
func (r *gormRepository) CreateIfAbsent(ctx context.Context, d *models.Device) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "local_device_id"}, {Name: "tenant_id"}},
		DoNothing: true,
	}).Create(d)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) UpdateFingerprint(ctx context.Context, d *models.Device) error {
	return r.db.WithContext(ctx).Model(d).
		Select("brand", "model", "os_name", "os_version", "manufacturer", "device_type", "app_version", "build_number", "last_seen_at").
		Updates(d).Error
}

func (r *gormRepository) MarkOwner(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Device{}).Where("id = ?", id).Update("is_owner", true).Error
}

// ClaimTenantOwner sets tenants.device_id only while it is still NULL.
func (r *gormRepository) ClaimTenantOwner(ctx context.Context, tenantID uint, canonicalID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id = ? AND device_id IS NULL", tenantID).
		Update("device_id", canonicalID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
