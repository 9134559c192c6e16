package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository instance
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *chatRepository) ListByAppointment(ctx context.Context, tenantID, appointmentID uint) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND appointment_id = ?", tenantID, appointmentID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// MarkRead marks the messages written by the other side as read by reader
func (r *chatRepository) MarkRead(ctx context.Context, tenantID, appointmentID uint, reader string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("tenant_id = ? AND appointment_id = ? AND sender <> ? AND read_at IS NULL", tenantID, appointmentID, reader).
		Update("read_at", time.Now())
	return res.RowsAffected, res.Error
}
