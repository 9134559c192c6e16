package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository instance
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Create(appointment).Error
}

// GetByID returns the appointment only when it belongs to tenantID
func (r *appointmentRepository) GetByID(ctx context.Context, tenantID, id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.WithContext(ctx).Preload("Service").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&appointment).Error
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, tenantID uint, filter AppointmentFilter) ([]models.Appointment, error) {
	var appointments []models.Appointment
	q := r.db.WithContext(ctx).Preload("Service").Where("tenant_id = ?", tenantID)
	if filter.Date != "" {
		q = q.Where("appointment_date = ?", filter.Date)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	err := q.Order("appointment_date ASC, appointment_time ASC").
		Offset(filter.Offset).
		Limit(limit).
		Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, tenantID, id uint, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListDueForReminder returns pending appointments on date that have not been reminded yet
func (r *appointmentRepository) ListDueForReminder(ctx context.Context, tenantID uint, date string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.WithContext(ctx).Preload("Service").
		Where("tenant_id = ? AND appointment_date = ? AND status = ? AND reminder_sent = ?",
			tenantID, date, models.AppointmentStatusPending, false).
		Order("appointment_time ASC").
		Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Appointment{}).Where("id = ?", id).Update("reminder_sent", true).Error
}

// CountByStatusBetween groups appointments created in [start, end] by status
func (r *appointmentRepository) CountByStatusBetween(ctx context.Context, tenantID uint, start, end time.Time) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Total  int64
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Select("status, COUNT(*) AS total").
		Where("tenant_id = ? AND created_at BETWEEN ? AND ?", tenantID, start, end).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, sc := range rows {
		out[sc.Status] = sc.Total
	}
	return out, nil
}

func (r *appointmentRepository) ListCreatedBetween(ctx context.Context, tenantID uint, start, end time.Time) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.WithContext(ctx).Preload("Service").
		Where("tenant_id = ? AND created_at BETWEEN ? AND ?", tenantID, start, end).
		Order("created_at ASC").
		Find(&appointments).Error
	return appointments, err
}
