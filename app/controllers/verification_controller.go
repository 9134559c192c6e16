package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/tenantcontext"
)

// VerificationService is implemented by *verification.Service.
type VerificationService interface {
	Request(ctx context.Context, tenant *models.Tenant, phone string) (*models.ValidationCode, error)
	Verify(ctx context.Context, tenantID uint, phone, code string) error
}

type VerificationController struct {
	codes VerificationService
}

func NewVerificationController(svc VerificationService) *VerificationController {
	return &VerificationController{codes: svc}
}

type requestCodeRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=30"`
}

type verifyCodeRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=30"`
	Code  string `json:"code" validate:"required,max=10"`
}

// HandleRequest sends a verification code by SMS.
func (vc *VerificationController) HandleRequest(c *fiber.Ctx) error {
	var req requestCodeRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	row, err := vc.codes.Request(c.UserContext(), tenantcontext.GetTenant(c), req.Phone)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"sent": true, "expires_at": row.ExpiresAt})
}

func (vc *VerificationController) HandleVerify(c *fiber.Ctx) error {
	var req verifyCodeRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := vc.codes.Verify(c.UserContext(), tenantcontext.GetTenantID(c), req.Phone, req.Code); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"verified": true})
}
