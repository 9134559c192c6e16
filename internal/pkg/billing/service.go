package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/metrics"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/security"
)

var (
	// ErrInvalidWebhookToken is returned for deliveries without the shared token.
	ErrInvalidWebhookToken = errors.New("invalid webhook token")
	// ErrInvalidPayload is returned for bodies that are not Asaas events.
	ErrInvalidPayload = errors.New("invalid webhook payload")

	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// PlanInvalidator drops cached plan resolutions. *entitlements.Resolver satisfies it.
type PlanInvalidator interface {
	Invalidate(ctx context.Context, tenantID uint)
}

// Service runs signup and the payment webhook state machine.
type Service struct {
	repo         Repository
	plans        PlanInvalidator
	webhookToken string
	now          func() time.Time
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository, plans PlanInvalidator, webhookToken string) *Service {
	return &Service{repo: repo, plans: plans, webhookToken: strings.TrimSpace(webhookToken), now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, plans PlanInvalidator, webhookToken string) *Service {
	return NewService(NewRepository(db), plans, webhookToken)
}

// Signup records a tenant signup as a pending payment. The returned reference
// is sent to the payment processor as externalReference.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.PendingPayment, error) {
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, apperrors.Validation("slug", "Use apenas letras minúsculas, números e hífens")
	}
	planSlug := strings.ToLower(strings.TrimSpace(in.PlanSlug))
	if _, err := s.repo.PlanBySlug(ctx, planSlug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Validation("plan_slug", "Plano inexistente")
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}
	taken, err := s.repo.SlugTaken(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return nil, apperrors.Conflict("slug_taken", "Este endereço já está em uso", map[string]any{"slug": slug})
	}

	p := &models.PendingPayment{
		Reference:    "signup_" + uuid.NewString(),
		TenantName:   strings.TrimSpace(in.Name),
		TenantSlug:   slug,
		PlanSlug:     planSlug,
		ContactEmail: strings.TrimSpace(in.Email),
		ContactPhone: strings.TrimSpace(in.Phone),
		Status:       models.PendingPaymentStatusPending,
	}
	if err := s.repo.CreatePendingPayment(ctx, p); err != nil {
		return nil, fmt.Errorf("create pending payment: %w", err)
	}
	return p, nil
}

// VerifyToken compares the delivered token with the configured one in constant time.
func (s *Service) VerifyToken(token string) bool {
	return s.webhookToken != "" && security.EqualTokens(strings.TrimSpace(token), s.webhookToken)
}

// HandleWebhook persists a delivery and applies it. Deliveries are idempotent
// by event id; a delivery that failed or never finished is processed again.
func (s *Service) HandleWebhook(ctx context.Context, token string, raw []byte) (*WebhookResult, error) {
	if s.webhookToken == "" {
		return nil, apperrors.Configuration("PAYMENT_WEBHOOK_TOKEN não configurado")
	}
	valid := s.VerifyToken(token)

	ev, parseErr := ParseAsaasEvent(raw)
	eventID, eventType := "", ""
	if parseErr == nil {
		eventID, eventType = ev.DeliveryID(), ev.Event
	}
	if !valid || eventID == "" {
		// keyed by payload hash so an unauthenticated copy never shadows the genuine delivery
		sum := sha256.Sum256(raw)
		prefix := "hash:"
		if !valid {
			prefix = "invalid:"
		}
		eventID = prefix + hex.EncodeToString(sum[:])
	}

	created, stored, err := s.repo.CreateWebhookEventIfNotExists(ctx, &models.BillingWebhookEvent{
		Provider:        models.BillingProviderAsaas,
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(raw),
		SignatureValid:  valid,
	})
	if err != nil {
		return nil, fmt.Errorf("persist webhook event: %w", err)
	}
	res := &WebhookResult{EventID: eventID, EventType: eventType}

	if !valid {
		if created {
			s.markProcessed(ctx, stored.ID, ErrInvalidWebhookToken)
		}
		metrics.WebhookEvents.WithLabelValues(eventType, "unauthorized").Inc()
		return res, ErrInvalidWebhookToken
	}
	// an event stored but never marked processed (crash mid-delivery) is applied again
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		res.Duplicate = true
		metrics.WebhookEvents.WithLabelValues(eventType, "duplicate").Inc()
		return res, nil
	}
	if parseErr != nil {
		s.markProcessed(ctx, stored.ID, parseErr)
		metrics.WebhookEvents.WithLabelValues("", "invalid").Inc()
		return res, fmt.Errorf("%w: %v", ErrInvalidPayload, parseErr)
	}

	applyErr := s.apply(ctx, ev, res)
	s.markProcessed(ctx, stored.ID, applyErr)
	result := "processed"
	switch {
	case applyErr != nil:
		result = "error"
	case res.Ignored:
		result = "ignored"
	}
	metrics.WebhookEvents.WithLabelValues(eventType, result).Inc()
	return res, applyErr
}

func (s *Service) apply(ctx context.Context, ev *AsaasEvent, res *WebhookResult) error {
	status, handled := SubscriptionStatusForEvent(ev.Event)
	if !handled {
		res.Ignored = true
		return nil
	}
	ref := ev.ExternalReference()
	if ref == "" {
		res.Ignored = true
		return nil
	}
	now := s.now()

	if status == models.SubscriptionStatusActive {
		if tenantID, ok := TenantIDFromReference(ref); ok {
			if err := s.repo.SetBillingState(ctx, tenantID, status, models.TenantStatusActive, now); err != nil {
				return s.stateError(tenantID, err)
			}
			res.Action, res.TenantID = ActionReactivated, tenantID
			s.plans.Invalidate(ctx, tenantID)
			return nil
		}

		tenant, err := s.repo.ProvisionTenant(ctx, ref, now)
		if errors.Is(err, ErrAlreadyProvisioned) {
			res.Action, res.TenantID = ActionNoop, tenant.ID
			return nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			res.Ignored = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("provision tenant: %w", err)
		}
		res.Action, res.TenantID = ActionProvisioned, tenant.ID
		s.plans.Invalidate(ctx, tenant.ID)
		logger.L().Info("tenant provisioned", zap.Uint("tenant_id", tenant.ID), zap.String("slug", tenant.Slug))
		return nil
	}

	tenantID, err := s.tenantForReference(ctx, ref)
	if err != nil {
		return err
	}
	if tenantID == 0 {
		res.Ignored = true
		return nil
	}
	if err := s.repo.SetBillingState(ctx, tenantID, status, models.TenantStatusInactive, now); err != nil {
		return s.stateError(tenantID, err)
	}
	res.Action, res.TenantID = ActionCancelled, tenantID
	if status == models.SubscriptionStatusOverdue {
		res.Action = ActionOverdue
	}
	s.plans.Invalidate(ctx, tenantID)
	return nil
}

// tenantForReference resolves a reference to a tenant id; 0 when unknown or
// the signup never completed.
func (s *Service) tenantForReference(ctx context.Context, ref string) (uint, error) {
	if id, ok := TenantIDFromReference(ref); ok {
		return id, nil
	}
	p, err := s.repo.GetPendingPayment(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("load pending payment: %w", err)
	}
	if p.TenantID == nil {
		return 0, nil
	}
	return *p.TenantID, nil
}

func (s *Service) stateError(tenantID uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("tenant", tenantID)
	}
	return fmt.Errorf("update billing state: %w", err)
}

// markProcessed ignores request cancellation.
func (s *Service) markProcessed(ctx context.Context, id uint, processingErr error) {
	msg := ""
	if processingErr != nil {
		msg = processingErr.Error()
	}
	if err := s.repo.MarkWebhookProcessed(context.WithoutCancel(ctx), id, msg); err != nil {
		logger.L().Error("failed to mark webhook processed", zap.Uint("event_id", id), zap.Error(err))
	}
}
