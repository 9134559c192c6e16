package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Vortex-Hub-Tech/agendamento/app/controllers"
	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/middleware"
)

// APIServer carries the controllers and guards mounted under /api/v1.
type APIServer struct {
	Controllers *controllers.Controllers
	Tenants     middleware.TenantLookup
	Plans       middleware.PlanResolver
	Owners      middleware.OwnerLookup
	AdminSecret string
}

// RegisterHandlers mounts every v1 route on router.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	ctl := s.Controllers

	// public
	router.Get("/plans", ctl.Plan.HandleList)
	router.Post("/signup", ctl.Billing.HandleSignup)
	router.Post("/webhooks/payments", ctl.Billing.HandleAsaasWebhook)

	admin := router.Group("/admin", middleware.RequireAdmin(s.AdminSecret))
	admin.Get("/feedbacks/pending", ctl.Feedback.HandlePending)
	admin.Post("/feedbacks/:id/approve", ctl.Feedback.HandleApprove)
	admin.Post("/feedbacks/:id/reject", ctl.Feedback.HandleReject)
	admin.Post("/feedbacks/:id/revert", ctl.Feedback.HandleRevert)

	// tenant scoped
	t := router.Group("", middleware.TenantMiddleware(s.Tenants))

	t.Get("/plans/current", ctl.Plan.HandleCurrent)

	t.Get("/tenants/current", ctl.Tenant.HandleGetCurrent)
	t.Patch("/tenants/current", ctl.Tenant.HandleUpdateCurrent)
	t.Post("/tenants/current/logo", ctl.Tenant.HandleUploadLogo)

	t.Get("/services", ctl.Service.HandleList)
	t.Post("/services", ctl.Service.HandleCreate)
	t.Patch("/services/:id", ctl.Service.HandleUpdate)
	t.Delete("/services/:id", ctl.Service.HandleDelete)

	t.Get("/appointments", ctl.Appointment.HandleList)
	t.Post("/appointments", middleware.AppointmentQuota(s.Plans), ctl.Appointment.HandleCreate)
	t.Get("/appointments/:id", ctl.Appointment.HandleGet)
	t.Patch("/appointments/:id/status", ctl.Appointment.HandleUpdateStatus)
	t.Get("/appointments/:id/chat", ctl.Appointment.HandleListMessages)
	t.Post("/appointments/:id/chat", ctl.Appointment.HandlePostMessage)
	t.Post("/appointments/:id/chat/read", ctl.Appointment.HandleMarkRead)

	t.Get("/feedbacks", ctl.Feedback.HandleList)
	t.Post("/feedbacks", ctl.Feedback.HandleCreate)
	t.Patch("/feedbacks/:id", ctl.Feedback.HandleUpdate)

	t.Post("/devices/register", ctl.Device.HandleRegister)
	t.Post("/devices/:canonical_id/claim", middleware.ProviderQuota(s.Plans, s.Owners), ctl.Device.HandleClaim)
	t.Post("/push-tokens", ctl.Device.HandleRegisterPushToken)
	t.Delete("/push-tokens/:token", ctl.Device.HandleDeletePushToken)

	sms := middleware.RequireFeature(s.Plans, models.FeatureSMSNotifications)
	t.Post("/validation-codes", sms, ctl.Verification.HandleRequest)
	t.Post("/validation-codes/verify", ctl.Verification.HandleVerify)
	t.Get("/sms-logs", sms, ctl.SMSLog.HandleList)

	reports := middleware.RequireFeature(s.Plans, models.FeatureAdvancedReports)
	t.Get("/analytics/summary", ctl.Analytics.HandleSummary)
	t.Get("/analytics/export", reports, ctl.Analytics.HandleExport)
}
