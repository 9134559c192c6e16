package models

import "time"

const (
	AppointmentStatusPending   = "pendente"
	AppointmentStatusDone      = "realizado"
	AppointmentStatusCancelled = "cancelado"
)

// Appointment dates and times are stored as the client sent them
// (YYYY-MM-DD / HH:MM) in the tenant's local calendar.
type Appointment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TenantID        uint      `gorm:"not null;index:idx_appointments_tenant_created,priority:1;index:idx_appointments_tenant_date,priority:1" json:"tenant_id"`
	ServiceID       uint      `gorm:"not null;index" json:"service_id"`
	Service         *Service  `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	ClientName      string    `gorm:"type:varchar(150);not null" json:"client_name"`
	ClientPhone     string    `gorm:"type:varchar(30);not null" json:"client_phone"`
	AppointmentDate string    `gorm:"type:varchar(10);not null;index:idx_appointments_tenant_date,priority:2" json:"appointment_date"`
	AppointmentTime string    `gorm:"type:varchar(5);not null" json:"appointment_time"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pendente';index" json:"status"`
	DeviceID        string    `gorm:"type:varchar(80);default:''" json:"device_id"`
	ReminderSent    bool      `gorm:"default:false" json:"reminder_sent"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index:idx_appointments_tenant_created,priority:2" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsValidAppointmentStatus reports whether s is one of the known statuses.
func IsValidAppointmentStatus(s string) bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusDone, AppointmentStatusCancelled:
		return true
	default:
		return false
	}
}
