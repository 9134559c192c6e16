// Package appointments implements booking, status changes and the
// per-appointment chat between client and provider.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	MaxChatMessageLength = 2000
)

// Notifier is told about changes clients or providers should hear about.
// *notification.Dispatcher satisfies it; it never fails the caller.
type Notifier interface {
	AppointmentCreated(ctx context.Context, tenant *models.Tenant, a *models.Appointment)
	AppointmentStatusChanged(ctx context.Context, tenant *models.Tenant, a *models.Appointment)
	ChatMessage(ctx context.Context, tenant *models.Tenant, a *models.Appointment, msg *models.ChatMessage)
}

type Service struct {
	appointments repository.AppointmentRepository
	services     repository.ServiceRepository
	chat         repository.ChatRepository
	notifier     Notifier
}

func NewService(appointments repository.AppointmentRepository, services repository.ServiceRepository, chat repository.ChatRepository, notifier Notifier) *Service {
	return &Service{appointments: appointments, services: services, chat: chat, notifier: notifier}
}

// CreateInput is a booking request.
type CreateInput struct {
	ServiceID   uint   `json:"service_id" validate:"required"`
	ClientName  string `json:"client_name" validate:"required,min=2,max=150"`
	ClientPhone string `json:"client_phone" validate:"required,min=8,max=30"`
	Date        string `json:"appointment_date" validate:"required"`
	Time        string `json:"appointment_time" validate:"required"`
	DeviceID    string `json:"device_id" validate:"max=80"`
}

func validateDate(field, value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return apperrors.Validation(field, "Data deve estar no formato AAAA-MM-DD")
	}
	return nil
}

// Create books an appointment in status pendente and notifies the owners and the client.
func (s *Service) Create(ctx context.Context, tenant *models.Tenant, in CreateInput) (*models.Appointment, error) {
	if err := validateDate("appointment_date", in.Date); err != nil {
		return nil, err
	}
	if _, err := time.Parse(TimeLayout, in.Time); err != nil {
		return nil, apperrors.Validation("appointment_time", "Horário deve estar no formato HH:MM")
	}

	svc, err := s.services.GetByID(ctx, tenant.ID, in.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("service", in.ServiceID)
		}
		return nil, fmt.Errorf("load service: %w", err)
	}
	if !svc.Active {
		return nil, apperrors.Validation("service_id", "Serviço indisponível")
	}

	a := &models.Appointment{
		TenantID:        tenant.ID,
		ServiceID:       svc.ID,
		ClientName:      strings.TrimSpace(in.ClientName),
		ClientPhone:     strings.TrimSpace(in.ClientPhone),
		AppointmentDate: in.Date,
		AppointmentTime: in.Time,
		Status:          models.AppointmentStatusPending,
		DeviceID:        strings.TrimSpace(in.DeviceID),
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	a.Service = svc

	s.notifier.AppointmentCreated(ctx, tenant, a)
	return a, nil
}

// List returns the tenant's appointments, optionally filtered by date and status.
func (s *Service) List(ctx context.Context, tenantID uint, filter repository.AppointmentFilter) ([]models.Appointment, error) {
	if filter.Date != "" {
		if err := validateDate("date", filter.Date); err != nil {
			return nil, err
		}
	}
	if filter.Status != "" && !models.IsValidAppointmentStatus(filter.Status) {
		return nil, apperrors.Validation("status", "Status inválido")
	}
	return s.appointments.List(ctx, tenantID, filter)
}

// Get loads one appointment of the tenant.
func (s *Service) Get(ctx context.Context, tenantID, id uint) (*models.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("appointment", id)
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return a, nil
}

// UpdateStatus changes the status and notifies the client. Setting the
// current status again is a no-op without notification.
func (s *Service) UpdateStatus(ctx context.Context, tenant *models.Tenant, id uint, status string) (*models.Appointment, error) {
	status = strings.TrimSpace(status)
	if !models.IsValidAppointmentStatus(status) {
		return nil, apperrors.Validation("status", "Status inválido")
	}
	a, err := s.Get(ctx, tenant.ID, id)
	if err != nil {
		return nil, err
	}
	if a.Status == status {
		return a, nil
	}
	if err := s.appointments.UpdateStatus(ctx, tenant.ID, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("appointment", id)
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	a.Status = status

	s.notifier.AppointmentStatusChanged(ctx, tenant, a)
	return a, nil
}

// Messages returns the chat of an appointment in send order.
func (s *Service) Messages(ctx context.Context, tenantID, appointmentID uint) ([]models.ChatMessage, error) {
	if _, err := s.Get(ctx, tenantID, appointmentID); err != nil {
		return nil, err
	}
	return s.chat.ListByAppointment(ctx, tenantID, appointmentID)
}

// PostInput is a chat message.
type PostInput struct {
	Sender   string `json:"sender" validate:"required,oneof=client provider"`
	Body     string `json:"body" validate:"required"`
	DeviceID string `json:"device_id" validate:"max=80"`
}

// PostMessage stores a chat message and notifies the other side.
func (s *Service) PostMessage(ctx context.Context, tenant *models.Tenant, appointmentID uint, in PostInput) (*models.ChatMessage, error) {
	if in.Sender != models.ChatSenderClient && in.Sender != models.ChatSenderProvider {
		return nil, apperrors.Validation("sender", "Remetente deve ser client ou provider")
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, apperrors.Validation("body", "Mensagem vazia")
	}
	if utf8.RuneCountInString(body) > MaxChatMessageLength {
		return nil, apperrors.Validation("body", fmt.Sprintf("Mensagem maior que %d caracteres", MaxChatMessageLength))
	}

	a, err := s.Get(ctx, tenant.ID, appointmentID)
	if err != nil {
		return nil, err
	}
	msg := &models.ChatMessage{
		TenantID:      tenant.ID,
		AppointmentID: a.ID,
		Sender:        in.Sender,
		DeviceID:      strings.TrimSpace(in.DeviceID),
		Body:          body,
	}
	if err := s.chat.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create chat message: %w", err)
	}

	s.notifier.ChatMessage(ctx, tenant, a, msg)
	return msg, nil
}

// MarkRead marks the messages of the other side as read by reader.
func (s *Service) MarkRead(ctx context.Context, tenantID, appointmentID uint, reader string) (int64, error) {
	if reader != models.ChatSenderClient && reader != models.ChatSenderProvider {
		return 0, apperrors.Validation("reader", "Leitor deve ser client ou provider")
	}
	if _, err := s.Get(ctx, tenantID, appointmentID); err != nil {
		return 0, err
	}
	return s.chat.MarkRead(ctx, tenantID, appointmentID, reader)
}
