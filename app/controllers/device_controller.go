package controllers

import (
	"context"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/devices"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/tenantcontext"
)

// DeviceService is implemented by *devices.Service.
type DeviceService interface {
	Resolve(ctx context.Context, tenantID uint, localID string, fp models.DeviceFingerprint) (*devices.Resolution, error)
	ClaimOwnership(ctx context.Context, tenantID uint, canonicalID string) (*devices.ClaimResult, error)
}

// DeviceController handles device registration, ownership and push tokens.
type DeviceController struct {
	devices DeviceService
	tokens  repository.PushTokenRepository
}

func NewDeviceController(svc DeviceService, tokens repository.PushTokenRepository) *DeviceController {
	return &DeviceController{devices: svc, tokens: tokens}
}

type registerDeviceRequest struct {
	LocalDeviceID string `json:"local_device_id" validate:"required,max=191"`
	models.DeviceFingerprint
}

// HandleRegister maps a local device id to its canonical id.
func (dc *DeviceController) HandleRegister(c *fiber.Ctx) error {
	var req registerDeviceRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	res, err := dc.devices.Resolve(c.UserContext(), tenantcontext.GetTenantID(c), strings.TrimSpace(req.LocalDeviceID), req.DeviceFingerprint)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusOK
	if res.Status == devices.StatusNew {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(res)
}

// HandleClaim makes the device in :canonical_id the tenant owner.
func (dc *DeviceController) HandleClaim(c *fiber.Ctx) error {
	canonicalID := strings.TrimSpace(c.Params("canonical_id"))
	if canonicalID == "" {
		return respondError(c, apperrors.Validation("canonical_id", "Campo obrigatório"))
	}
	res, err := dc.devices.ClaimOwnership(c.UserContext(), tenantcontext.GetTenantID(c), canonicalID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

type pushTokenRequest struct {
	Token    string `json:"token" validate:"required,max=255"`
	DeviceID string `json:"device_id" validate:"max=80"`
}

// HandleRegisterPushToken stores a push token; the provider follows the token shape.
func (dc *DeviceController) HandleRegisterPushToken(c *fiber.Ctx) error {
	var req pushTokenRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID == "" {
		deviceID = strings.TrimSpace(tenantcontext.GetDeviceID(c))
	}
	if deviceID == "" {
		return respondError(c, apperrors.Validation("device_id", "Campo obrigatório"))
	}
	token := strings.TrimSpace(req.Token)
	pt := &models.PushToken{
		TenantID: tenantcontext.GetTenantID(c),
		DeviceID: deviceID,
		Token:    token,
		Provider: models.DetectPushProvider(token),
	}
	if err := dc.tokens.Upsert(c.UserContext(), pt); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(pt)
}

// HandleDeletePushToken removes :token. Expo tokens contain brackets, so the
// parameter arrives URL-encoded.
func (dc *DeviceController) HandleDeletePushToken(c *fiber.Ctx) error {
	token, err := url.PathUnescape(c.Params("token"))
	if err != nil || strings.TrimSpace(token) == "" {
		return respondError(c, apperrors.Validation("token", "Token inválido"))
	}
	if err := dc.tokens.DeleteByToken(c.UserContext(), strings.TrimSpace(token)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
