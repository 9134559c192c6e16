package appointments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
)

type memAppointments struct {
	repository.AppointmentRepository
	rows map[uint]*models.Appointment
	next uint
}

func (m *memAppointments) Create(_ context.Context, a *models.Appointment) error {
	m.next++
	a.ID = m.next
	a.CreatedAt = time.Now()
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *memAppointments) GetByID(_ context.Context, tenantID, id uint) (*models.Appointment, error) {
	a, ok := m.rows[id]
	if !ok || a.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAppointments) List(_ context.Context, tenantID uint, filter repository.AppointmentFilter) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range m.rows {
		if a.TenantID == tenantID && (filter.Status == "" || a.Status == filter.Status) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAppointments) UpdateStatus(_ context.Context, tenantID, id uint, status string) error {
	a, ok := m.rows[id]
	if !ok || a.TenantID != tenantID {
		return gorm.ErrRecordNotFound
	}
	a.Status = status
	return nil
}

type memServices struct {
	repository.ServiceRepository
	rows map[uint]*models.Service
}

func (m *memServices) GetByID(_ context.Context, tenantID, id uint) (*models.Service, error) {
	s, ok := m.rows[id]
	if !ok || s.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

type memChat struct {
	repository.ChatRepository
	msgs []models.ChatMessage
}

func (m *memChat) Create(_ context.Context, msg *models.ChatMessage) error {
	msg.ID = uint(len(m.msgs) + 1)
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memChat) ListByAppointment(_ context.Context, tenantID, appointmentID uint) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	for _, msg := range m.msgs {
		if msg.TenantID == tenantID && msg.AppointmentID == appointmentID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memChat) MarkRead(_ context.Context, tenantID, appointmentID uint, reader string) (int64, error) {
	var n int64
	now := time.Now()
	for i := range m.msgs {
		msg := &m.msgs[i]
		if msg.TenantID == tenantID && msg.AppointmentID == appointmentID && msg.Sender != reader && msg.ReadAt == nil {
			msg.ReadAt = &now
			n++
		}
	}
	return n, nil
}

type recordingNotifier struct {
	created []uint
	changed []string
	chats   []string
}

func (r *recordingNotifier) AppointmentCreated(_ context.Context, _ *models.Tenant, a *models.Appointment) {
	r.created = append(r.created, a.ID)
}

func (r *recordingNotifier) AppointmentStatusChanged(_ context.Context, _ *models.Tenant, a *models.Appointment) {
	r.changed = append(r.changed, a.Status)
}

func (r *recordingNotifier) ChatMessage(_ context.Context, _ *models.Tenant, _ *models.Appointment, msg *models.ChatMessage) {
	r.chats = append(r.chats, msg.Sender)
}

var tenant = &models.Tenant{ID: 1, Name: "Salão", Status: models.TenantStatusActive}

func setup() (*Service, *memAppointments, *memChat, *recordingNotifier) {
	appts := &memAppointments{rows: map[uint]*models.Appointment{}}
	services := &memServices{rows: map[uint]*models.Service{
		1: {ID: 1, TenantID: 1, Name: "Corte", Active: true},
		2: {ID: 2, TenantID: 1, Name: "Antigo", Active: false},
		3: {ID: 3, TenantID: 2, Name: "Outro tenant", Active: true},
	}}
	chat := &memChat{}
	notifier := &recordingNotifier{}
	return NewService(appts, services, chat, notifier), appts, chat, notifier
}

func validInput() CreateInput {
	return CreateInput{ServiceID: 1, ClientName: " Ana ", ClientPhone: "11999990000", Date: "2026-06-01", Time: "09:30", DeviceID: "device_a"}
}

func TestCreate_PendingAndNotified(t *testing.T) {
	svc, appts, _, notifier := setup()

	a, err := svc.Create(context.Background(), tenant, validInput())
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusPending, a.Status)
	assert.Equal(t, "Ana", a.ClientName)
	assert.Equal(t, "Corte", a.Service.Name)
	assert.Len(t, appts.rows, 1)
	assert.Equal(t, []uint{a.ID}, notifier.created)
}

func TestCreate_Validation(t *testing.T) {
	svc, appts, _, notifier := setup()
	ctx := context.Background()

	in := validInput()
	in.Date = "01/06/2026"
	_, err := svc.Create(ctx, tenant, in)
	assert.True(t, apperrors.IsValidation(err))

	in = validInput()
	in.Time = "9h"
	_, err = svc.Create(ctx, tenant, in)
	assert.True(t, apperrors.IsValidation(err))

	in = validInput()
	in.ServiceID = 2
	_, err = svc.Create(ctx, tenant, in)
	assert.True(t, apperrors.IsValidation(err))

	in = validInput()
	in.ServiceID = 3
	_, err = svc.Create(ctx, tenant, in)
	assert.True(t, apperrors.IsNotFound(err), "services of other tenants are invisible")

	assert.Empty(t, appts.rows)
	assert.Empty(t, notifier.created)
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := setup()
	_, err := svc.List(context.Background(), 1, repository.AppointmentFilter{Status: "confirmado"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.List(context.Background(), 1, repository.AppointmentFilter{Date: "2026-13-01"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdateStatus(t *testing.T) {
	svc, appts, _, notifier := setup()
	ctx := context.Background()
	a, err := svc.Create(ctx, tenant, validInput())
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, tenant, a.ID, models.AppointmentStatusDone)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusDone, updated.Status)
	assert.Equal(t, models.AppointmentStatusDone, appts.rows[a.ID].Status)
	assert.Equal(t, []string{models.AppointmentStatusDone}, notifier.changed)

	_, err = svc.UpdateStatus(ctx, tenant, a.ID, models.AppointmentStatusDone)
	require.NoError(t, err)
	assert.Len(t, notifier.changed, 1, "same status is not notified again")

	_, err = svc.UpdateStatus(ctx, tenant, a.ID, "feito")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.UpdateStatus(ctx, tenant, 999, models.AppointmentStatusCancelled)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestChat_PostListAndRead(t *testing.T) {
	svc, _, chat, notifier := setup()
	ctx := context.Background()
	a, err := svc.Create(ctx, tenant, validInput())
	require.NoError(t, err)

	_, err = svc.PostMessage(ctx, tenant, a.ID, PostInput{Sender: models.ChatSenderClient, Body: " Olá "})
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, tenant, a.ID, PostInput{Sender: models.ChatSenderProvider, Body: "Oi!"})
	require.NoError(t, err)
	assert.Equal(t, []string{models.ChatSenderClient, models.ChatSenderProvider}, notifier.chats)

	msgs, err := svc.Messages(ctx, 1, a.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Olá", msgs[0].Body)

	n, err := svc.MarkRead(ctx, 1, a.ID, models.ChatSenderProvider)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotNil(t, chat.msgs[0].ReadAt)
	assert.Nil(t, chat.msgs[1].ReadAt)
}

func TestChat_Validation(t *testing.T) {
	svc, _, _, _ := setup()
	ctx := context.Background()
	a, err := svc.Create(ctx, tenant, validInput())
	require.NoError(t, err)

	_, err = svc.PostMessage(ctx, tenant, a.ID, PostInput{Sender: "admin", Body: "x"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.PostMessage(ctx, tenant, a.ID, PostInput{Sender: models.ChatSenderClient, Body: "   "})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.PostMessage(ctx, tenant, a.ID, PostInput{Sender: models.ChatSenderClient, Body: strings.Repeat("a", MaxChatMessageLength+1)})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.PostMessage(ctx, tenant, 42, PostInput{Sender: models.ChatSenderClient, Body: "x"})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.MarkRead(ctx, 1, a.ID, "someone")
	assert.True(t, apperrors.IsValidation(err))
}
