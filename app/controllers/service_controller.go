package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/tenantcontext"
)

// ServiceController manages the bookable services of a tenant.
type ServiceController struct {
	services repository.ServiceRepository
}

func NewServiceController(services repository.ServiceRepository) *ServiceController {
	return &ServiceController{services: services}
}

type createServiceRequest struct {
	Name            string  `json:"name" validate:"required,min=2,max=150"`
	Description     string  `json:"description" validate:"max=2000"`
	DurationMinutes int     `json:"duration_minutes" validate:"gte=5,lte=1440"`
	Price           float64 `json:"price" validate:"gte=0"`
	Active          *bool   `json:"active"`
}

type updateServiceRequest struct {
	Name            *string  `json:"name" validate:"omitempty,min=2,max=150"`
	Description     *string  `json:"description" validate:"omitempty,max=2000"`
	DurationMinutes *int     `json:"duration_minutes" validate:"omitempty,gte=5,lte=1440"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
	Active          *bool    `json:"active"`
}

// HandleList returns active services; ?all=true includes inactive ones.
func (sc *ServiceController) HandleList(c *fiber.Ctx) error {
	services, err := sc.services.ListByTenant(c.UserContext(), tenantcontext.GetTenantID(c), !c.QueryBool("all", false))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"services": services})
}

func (sc *ServiceController) HandleCreate(c *fiber.Ctx) error {
	req := createServiceRequest{DurationMinutes: 30}
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	svc := &models.Service{
		TenantID:        tenantcontext.GetTenantID(c),
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Active:          req.Active == nil || *req.Active,
	}
	if err := sc.services.Create(c.UserContext(), svc); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(svc)
}

func (sc *ServiceController) HandleUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateServiceRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	svc, err := sc.services.GetByID(c.UserContext(), tenantcontext.GetTenantID(c), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, apperrors.NotFound("service", id))
		}
		return respondError(c, err)
	}
	if req.Name != nil {
		svc.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		svc.Description = strings.TrimSpace(*req.Description)
	}
	if req.DurationMinutes != nil {
		svc.DurationMinutes = *req.DurationMinutes
	}
	if req.Price != nil {
		svc.Price = *req.Price
	}
	if req.Active != nil {
		svc.Active = *req.Active
	}
	if err := sc.services.Update(c.UserContext(), svc); err != nil {
		return respondError(c, err)
	}
	return c.JSON(svc)
}

func (sc *ServiceController) HandleDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := sc.services.Delete(c.UserContext(), tenantcontext.GetTenantID(c), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, apperrors.NotFound("service", id))
		}
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
