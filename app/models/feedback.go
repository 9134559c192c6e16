package models

import "time"

const (
	ModerationStatusPending  = "pending"
	ModerationStatusApproved = "approved"
	ModerationStatusRejected = "rejected"
)

// Feedback is a client's rating of a completed appointment. The unique
// appointment_id index backs the one-feedback-per-appointment rule.
type Feedback struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	TenantID         uint       `gorm:"not null;index:idx_feedbacks_tenant_status,priority:1" json:"tenant_id"`
	AppointmentID    uint       `gorm:"not null;uniqueIndex" json:"appointment_id"`
	Rating           int        `gorm:"not null" json:"rating"`
	Comment          *string    `gorm:"type:text" json:"comment"`
	ModerationStatus string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_feedbacks_tenant_status,priority:2" json:"moderation_status"`
	ModerationReason *string    `gorm:"type:text" json:"moderation_reason"`
	ModeratedAt      *time.Time `json:"moderated_at"`
	ModeratedBy      *string    `gorm:"type:varchar(150)" json:"moderated_by"`
	AutoModerated    bool       `gorm:"default:false" json:"auto_moderated"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
