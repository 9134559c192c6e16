package jobqueue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/notification"
)

// SMSSender delivers a single SMS. *notification.SMSSender satisfies it.
type SMSSender interface {
	Send(ctx context.Context, tenantID uint, phone, message string) error
}

// PushSender delivers a message to a set of tokens. *notification.Pusher satisfies it.
type PushSender interface {
	SendAll(ctx context.Context, tokens []models.PushToken, msg notification.PushMessage) int
}

// TokenSource resolves push targets to tokens.
type TokenSource interface {
	ListOwnerTokens(ctx context.Context, tenantID uint) ([]models.PushToken, error)
	ListByDevice(ctx context.Context, tenantID uint, deviceID string) ([]models.PushToken, error)
}

// NotificationProcessor executes send_sms and send_push jobs.
type NotificationProcessor struct {
	sms    SMSSender
	push   PushSender
	tokens TokenSource
}

func NewNotificationProcessor(sms SMSSender, push PushSender, tokens TokenSource) *NotificationProcessor {
	return &NotificationProcessor{sms: sms, push: push, tokens: tokens}
}

func (p *NotificationProcessor) processSendSMSJob(ctx context.Context, job *Job) error {
	payload, err := SendSMSJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse sms payload: %w", err)
	}
	return p.sms.Send(ctx, payload.TenantID, payload.Phone, payload.Message)
}

func (p *NotificationProcessor) processSendPushJob(ctx context.Context, job *Job) error {
	payload, err := SendPushJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse push payload: %w", err)
	}

	var tokens []models.PushToken
	if payload.Target.Owners {
		tokens, err = p.tokens.ListOwnerTokens(ctx, payload.TenantID)
	} else {
		tokens, err = p.tokens.ListByDevice(ctx, payload.TenantID, payload.Target.DeviceID)
	}
	if err != nil {
		return fmt.Errorf("failed to load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		logger.L().Debug("no push tokens for target",
			zap.Uint("tenant_id", payload.TenantID), zap.String("device_id", payload.Target.DeviceID))
		return nil
	}

	if sent := p.push.SendAll(ctx, tokens, payload.Message); sent == 0 {
		return fmt.Errorf("push rejected for all %d tokens", len(tokens))
	}
	return nil
}
