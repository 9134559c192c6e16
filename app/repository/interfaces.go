package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

// TenantRepository defines the interface for tenant-related database operations
type TenantRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	ListActive(ctx context.Context) ([]models.Tenant, error)
	UpdateProfile(ctx context.Context, id uint, name *string, settings map[string]interface{}) (*models.Tenant, error)
	MergeSettings(ctx context.Context, id uint, settings map[string]interface{}) error
}

// PlanRepository exposes the read-only plan catalog
type PlanRepository interface {
	List(ctx context.Context) ([]models.Plan, error)
	GetBySlug(ctx context.Context, slug string) (*models.Plan, error)
}

// ServiceRepository defines the interface for bookable services
type ServiceRepository interface {
	Create(ctx context.Context, service *models.Service) error
	GetByID(ctx context.Context, tenantID, id uint) (*models.Service, error)
	ListByTenant(ctx context.Context, tenantID uint, onlyActive bool) ([]models.Service, error)
	Update(ctx context.Context, service *models.Service) error
	Delete(ctx context.Context, tenantID, id uint) error
}

// AppointmentFilter narrows appointment listings
type AppointmentFilter struct {
	Date   string
	Status string
	Offset int
	Limit  int
}

// AppointmentRepository defines the interface for appointment operations
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, tenantID, id uint) (*models.Appointment, error)
	List(ctx context.Context, tenantID uint, filter AppointmentFilter) ([]models.Appointment, error)
	UpdateStatus(ctx context.Context, tenantID, id uint, status string) error
	ListDueForReminder(ctx context.Context, tenantID uint, date string) ([]models.Appointment, error)
	MarkReminderSent(ctx context.Context, id uint) error
	CountByStatusBetween(ctx context.Context, tenantID uint, start, end time.Time) (map[string]int64, error)
	ListCreatedBetween(ctx context.Context, tenantID uint, start, end time.Time) ([]models.Appointment, error)
}

// ChatRepository defines the interface for appointment chat messages
type ChatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListByAppointment(ctx context.Context, tenantID, appointmentID uint) ([]models.ChatMessage, error)
	MarkRead(ctx context.Context, tenantID, appointmentID uint, reader string) (int64, error)
}

// PushTokenRepository defines the interface for push token storage
type PushTokenRepository interface {
	Upsert(ctx context.Context, token *models.PushToken) error
	ListByTenant(ctx context.Context, tenantID uint) ([]models.PushToken, error)
	ListByDevice(ctx context.Context, tenantID uint, deviceID string) ([]models.PushToken, error)
	ListOwnerTokens(ctx context.Context, tenantID uint) ([]models.PushToken, error)
	DeleteByToken(ctx context.Context, token string) error
}

// ValidationCodeRepository defines the interface for phone verification codes
type ValidationCodeRepository interface {
	Create(ctx context.Context, code *models.ValidationCode) error
	LatestActive(ctx context.Context, tenantID uint, phone string, now time.Time) (*models.ValidationCode, error)
	IncrementAttempts(ctx context.Context, id uint) error
	Consume(ctx context.Context, id uint, at time.Time) (bool, error)
}

// SMSLogRepository defines the interface for the SMS audit trail
type SMSLogRepository interface {
	Create(ctx context.Context, log *models.SMSLog) error
	List(ctx context.Context, tenantID uint, offset, limit int) ([]models.SMSLog, error)
	Count(ctx context.Context, tenantID uint) (int64, error)
	CountBetween(ctx context.Context, tenantID uint, start, end time.Time) (int64, error)
}

// IntegrationRepository is the keyed per-tenant integration configuration store
type IntegrationRepository interface {
	GetByTenant(ctx context.Context, tenantID uint) (*models.TenantIntegration, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Tenant         TenantRepository
	Plan           PlanRepository
	Service        ServiceRepository
	Appointment    AppointmentRepository
	Chat           ChatRepository
	PushToken      PushTokenRepository
	ValidationCode ValidationCodeRepository
	SMSLog         SMSLogRepository
	Integration    IntegrationRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tenant:         NewTenantRepository(db),
		Plan:           NewPlanRepository(db),
		Service:        NewServiceRepository(db),
		Appointment:    NewAppointmentRepository(db),
		Chat:           NewChatRepository(db),
		PushToken:      NewPushTokenRepository(db),
		ValidationCode: NewValidationCodeRepository(db),
		SMSLog:         NewSMSLogRepository(db),
		Integration:    NewIntegrationRepository(db),
	}
}
