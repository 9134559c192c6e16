package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

// Tenant is a business using the scheduling service. Settings carries
// presentation data (theme, welcome message, logo_url) the mobile client renders.
type Tenant struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"type:varchar(150);not null" json:"name"`
	Slug      string            `gorm:"type:varchar(100);not null;uniqueIndex" json:"slug"`
	Status    string            `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Settings  datatypes.JSONMap `gorm:"type:json" json:"settings"`
	DeviceID  *string           `gorm:"type:varchar(80);default:null" json:"device_id,omitempty"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Tenant) IsActive() bool {
	return t != nil && t.Status == TenantStatusActive
}
