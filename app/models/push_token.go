package models

import (
	"strings"
	"time"
)

const (
	PushProviderExpo = "expo"
	PushProviderFCM  = "fcm"
)

// PushToken is a push destination of a device. Supports multiple tokens per device.
type PushToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	DeviceID  string    `gorm:"type:varchar(80);not null;index" json:"device_id"`
	Token     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	Provider  string    `gorm:"type:varchar(10);not null" json:"provider"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DetectPushProvider infers the provider from the token shape.
func DetectPushProvider(token string) string {
	t := strings.TrimSpace(token)
	if strings.HasPrefix(t, "ExponentPushToken[") || strings.HasPrefix(t, "ExpoPushToken[") {
		return PushProviderExpo
	}
	return PushProviderFCM
}
