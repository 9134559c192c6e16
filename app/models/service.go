package models

import "time"

// Service is something a tenant offers for booking (haircut, consultation, ...).
type Service struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TenantID        uint      `gorm:"not null;index" json:"tenant_id"`
	Name            string    `gorm:"type:varchar(150);not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	DurationMinutes int       `gorm:"not null;default:30" json:"duration_minutes"`
	Price           float64   `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Active          bool      `gorm:"default:true" json:"active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
