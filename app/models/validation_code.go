package models

import "time"

// ValidationCode is a one-time phone verification code. Only the bcrypt hash is stored.
type ValidationCode struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	TenantID   uint       `gorm:"not null;index:idx_validation_codes_tenant_phone,priority:1" json:"tenant_id"`
	Phone      string     `gorm:"type:varchar(30);not null;index:idx_validation_codes_tenant_phone,priority:2" json:"phone"`
	CodeHash   string     `gorm:"type:varchar(100);not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at"`
	Attempts   int        `gorm:"default:0" json:"attempts"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
