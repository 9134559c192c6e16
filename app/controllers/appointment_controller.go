package controllers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/appointments"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/tenantcontext"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AppointmentService is implemented by *appointments.Service.
type AppointmentService interface {
	Create(ctx context.Context, tenant *models.Tenant, in appointments.CreateInput) (*models.Appointment, error)
	List(ctx context.Context, tenantID uint, filter repository.AppointmentFilter) ([]models.Appointment, error)
	Get(ctx context.Context, tenantID, id uint) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, tenant *models.Tenant, id uint, status string) (*models.Appointment, error)
	Messages(ctx context.Context, tenantID, appointmentID uint) ([]models.ChatMessage, error)
	PostMessage(ctx context.Context, tenant *models.Tenant, appointmentID uint, in appointments.PostInput) (*models.ChatMessage, error)
	MarkRead(ctx context.Context, tenantID, appointmentID uint, reader string) (int64, error)
}

type AppointmentController struct {
	appointments AppointmentService
}

func NewAppointmentController(svc AppointmentService) *AppointmentController {
	return &AppointmentController{appointments: svc}
}

func pageLimit(c *fiber.Ctx) int {
	limit := queryInt(c, "limit", defaultPageSize)
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return limit
}

// HandleList lists appointments filtered by ?date=, ?status=, ?offset= and ?limit=.
func (ac *AppointmentController) HandleList(c *fiber.Ctx) error {
	filter := repository.AppointmentFilter{
		Date:   strings.TrimSpace(c.Query("date")),
		Status: strings.TrimSpace(c.Query("status")),
		Offset: queryInt(c, "offset", 0),
		Limit:  pageLimit(c),
	}
	if filter.Status != "" && !models.IsValidAppointmentStatus(filter.Status) {
		return respondError(c, apperrors.Validation("status", "Status inválido"))
	}
	list, err := ac.appointments.List(c.UserContext(), tenantcontext.GetTenantID(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"appointments": list, "offset": filter.Offset, "limit": filter.Limit})
}

func (ac *AppointmentController) HandleGet(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	a, err := ac.appointments.Get(c.UserContext(), tenantcontext.GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(a)
}

// HandleCreate books an appointment. The quota annotation of the guard is
// echoed back so clients can warn before the limit is hit.
func (ac *AppointmentController) HandleCreate(c *fiber.Ctx) error {
	var in appointments.CreateInput
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	if in.DeviceID == "" {
		in.DeviceID = tenantcontext.GetDeviceID(c)
	}

	a, err := ac.appointments.Create(c.UserContext(), tenantcontext.GetTenant(c), in)
	if err != nil {
		return respondError(c, err)
	}

	body := fiber.Map{"appointment": a}
	if q, ok := tenantcontext.GetQuota(c); ok {
		q.Current++
		if q.Remaining > 0 {
			q.Remaining--
		}
		body["quota"] = q
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pendente realizado cancelado"`
}

func (ac *AppointmentController) HandleUpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateStatusRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	a, err := ac.appointments.UpdateStatus(c.UserContext(), tenantcontext.GetTenant(c), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(a)
}

func (ac *AppointmentController) HandleListMessages(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	msgs, err := ac.appointments.Messages(c.UserContext(), tenantcontext.GetTenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (ac *AppointmentController) HandlePostMessage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in appointments.PostInput
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	if in.DeviceID == "" {
		in.DeviceID = tenantcontext.GetDeviceID(c)
	}
	msg, err := ac.appointments.PostMessage(c.UserContext(), tenantcontext.GetTenant(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

type markReadRequest struct {
	Reader string `json:"reader" validate:"required,oneof=client provider"`
}

func (ac *AppointmentController) HandleMarkRead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req markReadRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	n, err := ac.appointments.MarkRead(c.UserContext(), tenantcontext.GetTenantID(c), id, req.Reader)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"marked": n})
}
