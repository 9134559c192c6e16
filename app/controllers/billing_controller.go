package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/billing"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
)

// BillingService is implemented by *billing.Service.
type BillingService interface {
	Signup(ctx context.Context, in billing.SignupInput) (*models.PendingPayment, error)
	HandleWebhook(ctx context.Context, token string, raw []byte) (*billing.WebhookResult, error)
}

type BillingController struct {
	billing BillingService
}

func NewBillingController(svc BillingService) *BillingController {
	return &BillingController{billing: svc}
}

// HandleSignup registers a signup waiting for payment confirmation.
func (bc *BillingController) HandleSignup(c *fiber.Ctx) error {
	var in billing.SignupInput
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	p, err := bc.billing.Signup(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"reference": p.Reference,
		"status":    p.Status,
		"plan_slug": p.PlanSlug,
		"slug":      p.TenantSlug,
	})
}

// HandleAsaasWebhook receives payment processor events. The shared token is
// read from the asaas-access-token header, or the token query parameter.
// Duplicate and ignored deliveries answer 200 so the processor stops retrying.
func (bc *BillingController) HandleAsaasWebhook(c *fiber.Ctx) error {
	token := c.Get(billing.AsaasTokenHeader)
	if token == "" {
		token = c.Query("token")
	}
	raw := append([]byte(nil), c.Body()...)

	res, err := bc.billing.HandleWebhook(c.UserContext(), token, raw)
	switch {
	case errors.Is(err, billing.ErrInvalidWebhookToken):
		logger.FromCtx(c).Warn("webhook rejected", zap.String("ip", c.IP()))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Token inválido"})
	case errors.Is(err, billing.ErrInvalidPayload):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": err.Error()})
	case apperrors.IsConfiguration(err):
		return respondError(c, err)
	case err != nil:
		eventID := ""
		if res != nil {
			eventID = res.EventID
		}
		logger.FromCtx(c).Error("webhook processing failed", zap.String("event_id", eventID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed", "event_id": eventID})
	}
	return c.JSON(fiber.Map{"received": true, "result": res})
}
