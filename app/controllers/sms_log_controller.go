package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/tenantcontext"
)

type SMSLogController struct {
	logs repository.SMSLogRepository
}

func NewSMSLogController(logs repository.SMSLogRepository) *SMSLogController {
	return &SMSLogController{logs: logs}
}

// HandleList pages through the SMS audit log, newest first.
func (sc *SMSLogController) HandleList(c *fiber.Ctx) error {
	tenantID := tenantcontext.GetTenantID(c)
	offset := queryInt(c, "offset", 0)
	limit := pageLimit(c)

	logs, err := sc.logs.List(c.UserContext(), tenantID, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	total, err := sc.logs.Count(c.UserContext(), tenantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"logs": logs, "total": total, "offset": offset, "limit": limit})
}
