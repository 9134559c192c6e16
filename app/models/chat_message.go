package models

import "time"

const (
	ChatSenderClient   = "client"
	ChatSenderProvider = "provider"
)

type ChatMessage struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	TenantID      uint       `gorm:"not null;index:idx_chat_tenant_appt,priority:1" json:"tenant_id"`
	AppointmentID uint       `gorm:"not null;index:idx_chat_tenant_appt,priority:2" json:"appointment_id"`
	Sender        string     `gorm:"type:varchar(10);not null" json:"sender"`
	DeviceID      string     `gorm:"type:varchar(80);default:''" json:"device_id"`
	Body          string     `gorm:"type:text;not null" json:"body"`
	ReadAt        *time.Time `json:"read_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
