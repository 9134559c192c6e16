package billing

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

// Asaas webhook event names handled by the service.
const (
	EventPaymentConfirmed    = "PAYMENT_CONFIRMED"
	EventPaymentReceived     = "PAYMENT_RECEIVED"
	EventPaymentOverdue      = "PAYMENT_OVERDUE"
	EventPaymentRefunded     = "PAYMENT_REFUNDED"
	EventSubscriptionDeleted = "SUBSCRIPTION_DELETED"

	// AsaasTokenHeader carries the shared webhook token.
	AsaasTokenHeader = "asaas-access-token"

	// TenantReferencePrefix marks an external reference that points at an
	// existing tenant instead of a pending signup.
	TenantReferencePrefix = "tenant:"
)

// AsaasEvent is the subset of the Asaas webhook body the service reads.
type AsaasEvent struct {
	ID           string             `json:"id"`
	Event        string             `json:"event"`
	Payment      *AsaasPayment      `json:"payment,omitempty"`
	Subscription *AsaasSubscription `json:"subscription,omitempty"`
}

type AsaasPayment struct {
	ID                string  `json:"id"`
	Customer          string  `json:"customer"`
	Subscription      string  `json:"subscription"`
	Value             float64 `json:"value"`
	Status            string  `json:"status"`
	ExternalReference string  `json:"externalReference"`
}

type AsaasSubscription struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"externalReference"`
}

// ParseAsaasEvent decodes a webhook body. The event name is required.
func ParseAsaasEvent(raw []byte) (*AsaasEvent, error) {
	var ev AsaasEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	ev.Event = strings.ToUpper(strings.TrimSpace(ev.Event))
	if ev.Event == "" {
		return nil, errors.New("missing event name")
	}
	return &ev, nil
}

// ExternalReference returns the reference of the payment, or of the
// subscription for subscription events.
func (e *AsaasEvent) ExternalReference() string {
	if e.Payment != nil && strings.TrimSpace(e.Payment.ExternalReference) != "" {
		return strings.TrimSpace(e.Payment.ExternalReference)
	}
	if e.Subscription != nil {
		return strings.TrimSpace(e.Subscription.ExternalReference)
	}
	return ""
}

// DeliveryID identifies the delivery for deduplication. Older payloads carry
// no event id, so the payment id plus event name is used instead.
func (e *AsaasEvent) DeliveryID() string {
	if id := strings.TrimSpace(e.ID); id != "" {
		return id
	}
	if e.Payment != nil && e.Payment.ID != "" {
		return e.Event + ":" + e.Payment.ID
	}
	if e.Subscription != nil && e.Subscription.ID != "" {
		return e.Event + ":" + e.Subscription.ID
	}
	return ""
}

// SubscriptionStatusForEvent maps an event to the subscription status it
// implies. ok is false for events that do not change billing state.
func SubscriptionStatusForEvent(event string) (status string, ok bool) {
	switch event {
	case EventPaymentConfirmed, EventPaymentReceived:
		return models.SubscriptionStatusActive, true
	case EventPaymentOverdue:
		return models.SubscriptionStatusOverdue, true
	case EventPaymentRefunded, EventSubscriptionDeleted:
		return models.SubscriptionStatusCancelled, true
	default:
		return "", false
	}
}

// TenantIDFromReference parses "tenant:<id>" references.
func TenantIDFromReference(ref string) (uint, bool) {
	if !strings.HasPrefix(ref, TenantReferencePrefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(ref, TenantReferencePrefix), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
