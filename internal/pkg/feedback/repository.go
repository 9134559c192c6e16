package feedback

import (
	"context"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

// Repository provides DB operations used by the feedback service.
type Repository interface {
	GetAppointment(ctx context.Context, tenantID, appointmentID uint) (*models.Appointment, error)
	CreateIfAbsent(ctx context.Context, fb *models.Feedback) (bool, error)
	GetByID(ctx context.Context, tenantID, id uint) (*models.Feedback, error)
	GetByIDAnyTenant(ctx context.Context, id uint) (*models.Feedback, error)
	SaveModeration(ctx context.Context, fb *models.Feedback) error
	ListByTenant(ctx context.Context, tenantID uint, includeAll bool) ([]models.Feedback, error)
	ListPending(ctx context.Context, tenantID uint) ([]models.Feedback, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a feedback repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetAppointment(ctx context.Context, tenantID, appointmentID uint) (*models.Appointment, error) {
	var a models.Appointment
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", appointmentID, tenantID).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateIfAbsent inserts fb unless the appointment already has feedback.
// The unique appointment_id index makes concurrent inserts lose cleanly.
func (r *gormRepository) CreateIfAbsent(ctx context.Context, fb *models.Feedback) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "appointment_id"}},
		DoNothing: true,
	}).Create(fb)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) GetByID(ctx context.Context, tenantID, id uint) (*models.Feedback, error) {
	var fb models.Feedback
	if err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&fb).Error; err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *gormRepository) GetByIDAnyTenant(ctx context.Context, id uint) (*models.Feedback, error) {
	var fb models.Feedback
	if err := r.db.WithContext(ctx).First(&fb, id).Error; err != nil {
		return nil, err
	}
	return &fb, nil
}

// SaveModeration writes rating, comment and every moderation column, including NULLs.
func (r *gormRepository) SaveModeration(ctx context.Context, fb *models.Feedback) error {
	return r.db.WithContext(ctx).Model(fb).
		Select("rating", "comment", "moderation_status", "moderation_reason", "moderated_at", "moderated_by", "auto_moderated").
		Updates(fb).Error
}

func (r *gormRepository) ListByTenant(ctx context.Context, tenantID uint, includeAll bool) ([]models.Feedback, error) {
	var list []models.Feedback
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if !includeAll {
		q = q.Where("moderation_status = ?", models.ModerationStatusApproved)
	}
	err := q.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

// ListPending returns the review queue newest first. tenantID 0 spans all tenants.
func (r *gormRepository) ListPending(ctx context.Context, tenantID uint) ([]models.Feedback, error) {
	var list []models.Feedback
	q := r.db.WithContext(ctx).Where("moderation_status = ?", models.ModerationStatusPending)
	if tenantID != 0 {
		q = q.Where("tenant_id = ?", tenantID)
	}
	err := q.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}
