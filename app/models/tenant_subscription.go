package models

import "time"

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusOverdue   = "overdue"
	SubscriptionStatusCancelled = "cancelled"
)

// TenantSubscription links a tenant to its paid plan. The unique tenant_id
// index keeps at most one row (and so at most one active row) per tenant.
type TenantSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;uniqueIndex" json:"tenant_id"`
	PlanID    uint      `gorm:"not null;index" json:"plan_id"`
	Plan      *Plan     `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	StartedAt time.Time `gorm:"not null" json:"started_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
