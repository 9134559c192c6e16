package models

import "time"

// SMSLog is the audit row written for every SMS attempt, successful or not.
type SMSLog struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	TenantID         uint      `gorm:"not null;index" json:"tenant_id"`
	Phone            string    `gorm:"type:varchar(30);not null" json:"phone"`
	Message          string    `gorm:"type:text;not null" json:"message"`
	Success          bool      `gorm:"default:false;index" json:"success"`
	ProviderResponse string    `gorm:"type:text" json:"provider_response"`
	Error            string    `gorm:"type:text" json:"error"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (SMSLog) TableName() string {
	return "sms_logs"
}
