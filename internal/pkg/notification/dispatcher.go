package notification

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
)

// PushTarget selects the tokens a push job is delivered to.
type PushTarget struct {
	// Owners addresses every token registered by the tenant's provider devices.
	Owners bool `json:"owners"`
	// DeviceID addresses the tokens of one canonical device.
	DeviceID string `json:"device_id,omitempty"`
}

// Enqueuer hands notifications to the background job queue.
type Enqueuer interface {
	EnqueueSMS(tenantID uint, phone, message string) error
	EnqueuePush(tenantID uint, target PushTarget, msg PushMessage) error
}

// PlanResolver returns the tenant's effective plan.
type PlanResolver interface {
	Resolve(ctx context.Context, tenantID uint) (*models.Plan, error)
}

// Dispatcher turns domain events into queued notifications. Failures are
// logged and never returned to the caller; only Reminder reports them.
type Dispatcher struct {
	queue Enqueuer
	plans PlanResolver
}

func NewDispatcher(queue Enqueuer, plans PlanResolver) *Dispatcher {
	return &Dispatcher{queue: queue, plans: plans}
}

func (d *Dispatcher) featureEnabled(ctx context.Context, tenantID uint, feature string) bool {
	plan, err := d.plans.Resolve(ctx, tenantID)
	if err != nil {
		logger.L().Warn("plan lookup failed, skipping notification",
			zap.Uint("tenant_id", tenantID), zap.String("feature", feature), zap.Error(err))
		return false
	}
	enabled, _ := plan.Feature(feature)
	return enabled
}

// sms reports false only when the enqueue failed.
func (d *Dispatcher) sms(tenantID uint, phone, message string) bool {
	if phone == "" {
		return true
	}
	if err := d.queue.EnqueueSMS(tenantID, phone, message); err != nil {
		logger.L().Error("failed to enqueue sms", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return false
	}
	return true
}

// push reports false only when the enqueue failed.
func (d *Dispatcher) push(tenantID uint, target PushTarget, msg PushMessage) bool {
	if !target.Owners && target.DeviceID == "" {
		return true
	}
	if err := d.queue.EnqueuePush(tenantID, target, msg); err != nil {
		logger.L().Error("failed to enqueue push", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return false
	}
	return true
}

func appointmentData(a *models.Appointment, kind string) map[string]string {
	return map[string]string{
		"type":           kind,
		"appointment_id": strconv.FormatUint(uint64(a.ID), 10),
	}
}

// AppointmentCreated notifies the provider devices and sends the client a
// confirmation SMS when the plan includes it.
func (d *Dispatcher) AppointmentCreated(ctx context.Context, tenant *models.Tenant, a *models.Appointment) {
	if d.featureEnabled(ctx, tenant.ID, models.FeaturePushNotifications) {
		d.push(tenant.ID, PushTarget{Owners: true}, PushMessage{
			Title: "Novo agendamento",
			Body:  fmt.Sprintf("%s agendou para %s às %s", a.ClientName, FormatDate(a.AppointmentDate), a.AppointmentTime),
			Data:  appointmentData(a, "appointment_created"),
		})
	}
	if d.featureEnabled(ctx, tenant.ID, models.FeatureSMSNotifications) {
		d.sms(tenant.ID, a.ClientPhone, fmt.Sprintf("%s: seu agendamento para %s às %s foi recebido.",
			tenant.Name, FormatDate(a.AppointmentDate), a.AppointmentTime))
	}
}

// AppointmentStatusChanged tells the client device about a status update.
func (d *Dispatcher) AppointmentStatusChanged(ctx context.Context, tenant *models.Tenant, a *models.Appointment) {
	if !d.featureEnabled(ctx, tenant.ID, models.FeaturePushNotifications) {
		return
	}
	var body string
	switch a.Status {
	case models.AppointmentStatusDone:
		body = "Atendimento concluído. Que tal deixar sua avaliação?"
	case models.AppointmentStatusCancelled:
		body = fmt.Sprintf("Seu agendamento de %s às %s foi cancelado.", FormatDate(a.AppointmentDate), a.AppointmentTime)
	default:
		body = fmt.Sprintf("Seu agendamento de %s às %s foi atualizado.", FormatDate(a.AppointmentDate), a.AppointmentTime)
	}
	d.push(tenant.ID, PushTarget{DeviceID: a.DeviceID}, PushMessage{
		Title: tenant.Name,
		Body:  body,
		Data:  appointmentData(a, "appointment_status"),
	})
}

// ChatMessage pushes a new chat message to the other side of the conversation.
func (d *Dispatcher) ChatMessage(ctx context.Context, tenant *models.Tenant, a *models.Appointment, msg *models.ChatMessage) {
	if !d.featureEnabled(ctx, tenant.ID, models.FeaturePushNotifications) {
		return
	}
	target := PushTarget{Owners: true}
	title := a.ClientName
	if msg.Sender == models.ChatSenderProvider {
		target = PushTarget{DeviceID: a.DeviceID}
		title = tenant.Name
	}
	d.push(tenant.ID, target, PushMessage{
		Title: title,
		Body:  msg.Body,
		Data:  appointmentData(a, "chat_message"),
	})
}

// Reminder sends the day-before reminder through every channel the plan
// allows. It returns false when the plan lookup or an enqueue failed, so the
// appointment can be tried again; a plan without channels counts as handled.
func (d *Dispatcher) Reminder(ctx context.Context, tenant *models.Tenant, a *models.Appointment) bool {
	plan, err := d.plans.Resolve(ctx, tenant.ID)
	if err != nil {
		logger.L().Warn("plan lookup failed, reminder left pending",
			zap.Uint("tenant_id", tenant.ID), zap.Uint("appointment_id", a.ID), zap.Error(err))
		return false
	}
	text := fmt.Sprintf("%s: lembrete do seu agendamento amanhã (%s) às %s.",
		tenant.Name, FormatDate(a.AppointmentDate), a.AppointmentTime)
	ok := true
	if enabled, _ := plan.Feature(models.FeatureSMSNotifications); enabled {
		ok = d.sms(tenant.ID, a.ClientPhone, text) && ok
	}
	if enabled, _ := plan.Feature(models.FeaturePushNotifications); enabled {
		ok = d.push(tenant.ID, PushTarget{DeviceID: a.DeviceID}, PushMessage{
			Title: "Lembrete de agendamento",
			Body:  text,
			Data:  appointmentData(a, "appointment_reminder"),
		}) && ok
	}
	return ok
}

// FormatDate renders YYYY-MM-DD as DD/MM/YYYY. Unparseable input is returned as is.
func FormatDate(date string) string {
	if len(date) != 10 || date[4] != '-' || date[7] != '-' {
		return date
	}
	return date[8:10] + "/" + date[5:7] + "/" + date[0:4]
}
