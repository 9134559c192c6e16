package models

import "time"

const (
	PendingPaymentStatusPending   = "pending"
	PendingPaymentStatusCompleted = "completed"
)

// PendingPayment is a signup waiting for the payment processor to confirm.
// Reference is sent to the processor as the external reference.
type PendingPayment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Reference    string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	TenantName   string     `gorm:"type:varchar(150);not null" json:"tenant_name"`
	TenantSlug   string     `gorm:"type:varchar(100);not null" json:"tenant_slug"`
	PlanSlug     string     `gorm:"type:varchar(50);not null" json:"plan_slug"`
	ContactEmail string     `gorm:"type:varchar(200);default:''" json:"contact_email"`
	ContactPhone string     `gorm:"type:varchar(30);default:''" json:"contact_phone"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TenantID     *uint      `json:"tenant_id,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
