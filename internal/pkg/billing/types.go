package billing

// SignupInput is a tenant signup waiting for payment.
type SignupInput struct {
	Name     string `json:"name" validate:"required,min=2,max=150"`
	Slug     string `json:"slug" validate:"required,min=3,max=100"`
	PlanSlug string `json:"plan_slug" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=8,max=30"`
}

// Webhook actions reported back to the payment processor.
const (
	ActionProvisioned = "provisioned"
	ActionReactivated = "reactivated"
	ActionOverdue     = "overdue"
	ActionCancelled   = "cancelled"
	ActionNoop        = "noop"
)

// WebhookResult describes what a webhook delivery changed.
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Ignored   bool   `json:"ignored,omitempty"`
	Action    string `json:"action,omitempty"`
	TenantID  uint   `json:"tenant_id,omitempty"`
}
