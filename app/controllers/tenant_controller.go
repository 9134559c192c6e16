package controllers

import (
	"context"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/branding"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/tenantcontext"
)

// LogoUploader is implemented by *branding.Service.
type LogoUploader interface {
	UploadLogo(ctx context.Context, tenantID uint, filename string, data []byte) (*branding.Logo, error)
}

type TenantController struct {
	tenants repository.TenantRepository
	logos   LogoUploader
}

func NewTenantController(tenants repository.TenantRepository, logos LogoUploader) *TenantController {
	return &TenantController{tenants: tenants, logos: logos}
}

// HandleGetCurrent returns the tenant resolved by the tenant middleware.
func (tc *TenantController) HandleGetCurrent(c *fiber.Ctx) error {
	return c.JSON(tenantcontext.GetTenant(c))
}

type updateTenantRequest struct {
	Name     *string                `json:"name" validate:"omitempty,min=2,max=150"`
	Settings map[string]interface{} `json:"settings"`
}

// HandleUpdateCurrent renames the tenant and merges settings keys. Setting a
// key to null removes it.
func (tc *TenantController) HandleUpdateCurrent(c *fiber.Ctx) error {
	var req updateTenantRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return respondError(c, apperrors.Validation("name", "Nome não pode ser vazio"))
		}
		req.Name = &trimmed
	}
	if _, reserved := req.Settings[branding.SettingLogoURL]; reserved {
		return respondError(c, apperrors.Validation("settings.logo_url", "Use o envio de logo para alterar este campo"))
	}

	tenant, err := tc.tenants.UpdateProfile(c.UserContext(), tenantcontext.GetTenantID(c), req.Name, req.Settings)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tenant)
}

// HandleUploadLogo accepts a multipart "logo" file.
func (tc *TenantController) HandleUploadLogo(c *fiber.Ctx) error {
	fh, err := c.FormFile("logo")
	if err != nil {
		return respondError(c, apperrors.Validation("logo", "Arquivo 'logo' é obrigatório"))
	}
	if fh.Size > branding.MaxLogoBytes {
		return respondError(c, apperrors.Validation("logo", "Arquivo maior que 5 MB"))
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, branding.MaxLogoBytes+1))
	if err != nil {
		return respondError(c, err)
	}

	logo, err := tc.logos.UploadLogo(c.UserContext(), tenantcontext.GetTenantID(c), fh.Filename, data)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(logo)
}
