package models

import (
	"strings"
	"time"
)

// TenantIntegration holds per-tenant credentials for outbound integrations.
// It is created together with the tenant during payment provisioning.
type TenantIntegration struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	TenantID          uint      `gorm:"not null;uniqueIndex" json:"tenant_id"`
	SMSSubAccount     string    `gorm:"column:sms_sub_account;type:varchar(100);default:''" json:"sms_sub_account"`
	SMSPassword       string    `gorm:"column:sms_password;type:varchar(255);default:''" json:"-"`
	SMSSenderID       string    `gorm:"column:sms_sender_id;type:varchar(30);default:''" json:"sms_sender_id"`
	SchedulingEnabled bool      `gorm:"default:true" json:"scheduling_enabled"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasSMSCredentials reports whether the SMS gateway can be called for this tenant.
func (ti *TenantIntegration) HasSMSCredentials() bool {
	return ti != nil &&
		strings.TrimSpace(ti.SMSSubAccount) != "" &&
		strings.TrimSpace(ti.SMSPassword) != ""
}
