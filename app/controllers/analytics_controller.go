package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/reports"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/tenantcontext"
)

// ReportService is implemented by *reports.Service.
type ReportService interface {
	Summary(ctx context.Context, tenantID uint, month time.Time) (*reports.Summary, error)
	Export(ctx context.Context, tenant *models.Tenant, month time.Time) (*reports.Export, error)
}

type AnalyticsController struct {
	reports ReportService
	now     func() time.Time
}

func NewAnalyticsController(svc ReportService) *AnalyticsController {
	return &AnalyticsController{reports: svc, now: time.Now}
}

// HandleSummary returns the monthly summary for ?month=YYYY-MM (default current month).
func (ac *AnalyticsController) HandleSummary(c *fiber.Ctx) error {
	month, err := reports.ParseMonth(c.Query("month"), ac.now())
	if err != nil {
		return respondError(c, err)
	}
	sum, err := ac.reports.Summary(c.UserContext(), tenantcontext.GetTenantID(c), month)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sum)
}

// HandleExport builds the monthly spreadsheet and returns a temporary download URL.
func (ac *AnalyticsController) HandleExport(c *fiber.Ctx) error {
	month, err := reports.ParseMonth(c.Query("month"), ac.now())
	if err != nil {
		return respondError(c, err)
	}
	exp, err := ac.reports.Export(c.UserContext(), tenantcontext.GetTenant(c), month)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(exp)
}
