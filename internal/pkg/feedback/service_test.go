package feedback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
)

type memRepo struct {
	appointments map[uint]*models.Appointment
	feedbacks    map[uint]*models.Feedback
	byAppt       map[uint]uint
	nextID       uint
}

func newMemRepo() *memRepo {
	return &memRepo{
		appointments: map[uint]*models.Appointment{},
		feedbacks:    map[uint]*models.Feedback{},
		byAppt:       map[uint]uint{},
	}
}

func (m *memRepo) GetAppointment(_ context.Context, tenantID, id uint) (*models.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok || a.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (m *memRepo) CreateIfAbsent(_ context.Context, fb *models.Feedback) (bool, error) {
	if _, exists := m.byAppt[fb.AppointmentID]; exists {
		return false, nil
	}
	m.nextID++
	fb.ID = m.nextID
	stored := *fb
	m.feedbacks[fb.ID] = &stored
	m.byAppt[fb.AppointmentID] = fb.ID
	return true, nil
}

func (m *memRepo) GetByID(_ context.Context, tenantID, id uint) (*models.Feedback, error) {
	fb, ok := m.feedbacks[id]
	if !ok || fb.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *fb
	return &cp, nil
}

func (m *memRepo) GetByIDAnyTenant(_ context.Context, id uint) (*models.Feedback, error) {
	fb, ok := m.feedbacks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *fb
	return &cp, nil
}

func (m *memRepo) SaveModeration(_ context.Context, fb *models.Feedback) error {
	cp := *fb
	m.feedbacks[fb.ID] = &cp
	return nil
}

func (m *memRepo) ListByTenant(_ context.Context, tenantID uint, includeAll bool) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, fb := range m.feedbacks {
		if fb.TenantID == tenantID && (includeAll || fb.ModerationStatus == models.ModerationStatusApproved) {
			out = append(out, *fb)
		}
	}
	return out, nil
}

func (m *memRepo) ListPending(_ context.Context, tenantID uint) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, fb := range m.feedbacks {
		if fb.ModerationStatus == models.ModerationStatusPending && (tenantID == 0 || fb.TenantID == tenantID) {
			out = append(out, *fb)
		}
	}
	return out, nil
}

func str(s string) *string { return &s }
func num(v int) *int       { return &v }

func setup() (*Service, *memRepo) {
	repo := newMemRepo()
	repo.appointments[10] = &models.Appointment{ID: 10, TenantID: 1, Status: models.AppointmentStatusDone}
	repo.appointments[11] = &models.Appointment{ID: 11, TenantID: 1, Status: models.AppointmentStatusPending}
	repo.appointments[12] = &models.Appointment{ID: 12, TenantID: 1, Status: models.AppointmentStatusDone}
	return NewService(repo, nil), repo
}

func TestCreate_CleanCommentIsApproved(t *testing.T) {
	svc, _ := setup()
	fb, err := svc.Create(context.Background(), 1, CreateInput{AppointmentID: 10, Rating: 5, Comment: str("Ótimo atendimento, voltarei com certeza")})
	require.NoError(t, err)
	assert.Equal(t, models.ModerationStatusApproved, fb.ModerationStatus)
	assert.True(t, fb.AutoModerated)
	assert.NotNil(t, fb.ModeratedAt)
	assert.Nil(t, fb.ModerationReason)
}

func TestCreate_FlaggedCommentIsPending(t *testing.T) {
	svc, _ := setup()
	fb, err := svc.Create(context.Background(), 1, CreateInput{AppointmentID: 10, Rating: 1, Comment: str("atendente idiota")})
	require.NoError(t, err)
	assert.Equal(t, models.ModerationStatusPending, fb.ModerationStatus)
	require.NotNil(t, fb.ModerationReason)
	assert.Contains(t, *fb.ModerationReason, "Requer revisão manual")
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := setup()
	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), 1, CreateInput{AppointmentID: 10, Rating: rating})
		assert.True(t, apperrors.IsValidation(err), "rating %d", rating)
	}
	_, err := svc.Create(context.Background(), 1, CreateInput{Rating: 3})
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreate_Eligibility(t *testing.T) {
	svc, _ := setup()

	_, err := svc.Create(context.Background(), 1, CreateInput{AppointmentID: 11, Rating: 4})
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.Create(context.Background(), 2, CreateInput{AppointmentID: 10, Rating: 4})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Create(context.Background(), 1, CreateInput{AppointmentID: 999, Rating: 4})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreate_SecondFeedbackConflicts(t *testing.T) {
	svc, _ := setup()
	_, err := svc.Create(context.Background(), 1, CreateInput{AppointmentID: 10, Rating: 4})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 1, CreateInput{AppointmentID: 10, Rating: 5})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestUpdate_ReclassifiesAndDiscardsManualDecision(t *testing.T) {
	svc, _ := setup()
	fb, err := svc.Create(context.Background(), 1, CreateInput{AppointmentID: 10, Rating: 4, Comment: str("muito bom")})
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), fb.ID, "ana")
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), 1, fb.ID, UpdateInput{Comment: str("que lixo")})
	require.NoError(t, err)
	assert.Equal(t, models.ModerationStatusPending, updated.ModerationStatus)
	assert.True(t, updated.AutoModerated)
	assert.Nil(t, updated.ModeratedBy)
	assert.Equal(t, 4, updated.Rating)

	updated, err = svc.Update(context.Background(), 1, fb.ID, UpdateInput{Comment: str("voltou a ser bom"), Rating: num(5)})
	require.NoError(t, err)
	assert.Equal(t, models.ModerationStatusApproved, updated.ModerationStatus)
	assert.Equal(t, 5, updated.Rating)
}

func TestUpdate_Errors(t *testing.T) {
	svc, _ := setup()
	_, err := svc.Update(context.Background(), 1, 404, UpdateInput{Rating: num(3)})
	assert.True(t, apperrors.IsNotFound(err))

	fb, err := svc.Create(context.Background(), 1, CreateInput{AppointmentID: 10, Rating: 4})
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), 2, fb.ID, UpdateInput{Rating: num(3)})
	assert.True(t, apperrors.IsNotFound(err))
	_, err = svc.Update(context.Background(), 1, fb.ID, UpdateInput{Rating: num(9)})
	assert.True(t, apperrors.IsValidation(err))
}

func TestRejectThenRevertClearsModeration(t *testing.T) {
	svc, repo := setup()
	fb, err := svc.Create(context.Background(), 1, CreateInput{AppointmentID: 10, Rating: 2, Comment: str("atendente babaca")})
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), fb.ID, "ofensivo", "ana")
	require.NoError(t, err)
	assert.Equal(t, models.ModerationStatusRejected, rejected.ModerationStatus)
	assert.False(t, rejected.AutoModerated)
	require.NotNil(t, rejected.ModeratedBy)
	assert.Equal(t, "ana", *rejected.ModeratedBy)

	reverted, err := svc.Revert(context.Background(), fb.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ModerationStatusPending, reverted.ModerationStatus)
	assert.Nil(t, reverted.ModerationReason)
	assert.Nil(t, reverted.ModeratedAt)
	assert.Nil(t, reverted.ModeratedBy)

	stored := repo.feedbacks[fb.ID]
	assert.Equal(t, models.ModerationStatusPending, stored.ModerationStatus)
	assert.Nil(t, stored.ModerationReason)
}

func TestTransitions_ArePendingMediated(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()
	fb, err := svc.Create(ctx, 1, CreateInput{AppointmentID: 10, Rating: 4, Comment: str("atendente idiota")})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, fb.ID, "ofensivo", "ana")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, fb.ID, "ana")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.Reject(ctx, fb.ID, "ainda ofensivo", "bia")
	require.NoError(t, err)

	_, err = svc.Revert(ctx, fb.ID)
	require.NoError(t, err)
	approved, err := svc.Approve(ctx, fb.ID, "ana")
	require.NoError(t, err)
	assert.Equal(t, models.ModerationStatusApproved, approved.ModerationStatus)
	assert.Nil(t, approved.ModerationReason)

	_, err = svc.Reject(ctx, fb.ID, "mudei de ideia", "ana")
	assert.True(t, apperrors.IsConflict(err))
}

func TestReject_RequiresReason(t *testing.T) {
	svc, _ := setup()
	fb, err := svc.Create(context.Background(), 1, CreateInput{AppointmentID: 10, Rating: 4})
	require.NoError(t, err)
	_, err = svc.Revert(context.Background(), fb.ID)
	require.NoError(t, err)
	_, err = svc.Reject(context.Background(), fb.ID, "   ", "ana")
	assert.True(t, apperrors.IsValidation(err))
}

func TestOverrides_UnknownID(t *testing.T) {
	svc, _ := setup()
	_, err := svc.Approve(context.Background(), 77, "ana")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = svc.Revert(context.Background(), 77)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListing(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()
	_, err := svc.Create(ctx, 1, CreateInput{AppointmentID: 10, Rating: 5, Comment: str("excelente")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, CreateInput{AppointmentID: 12, Rating: 1, Comment: str("golpe")})
	require.NoError(t, err)

	approved, err := svc.List(ctx, 1, false)
	require.NoError(t, err)
	assert.Len(t, approved, 1)

	all, err := svc.List(ctx, 1, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := svc.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, uint(12), pending[0].AppointmentID)
}
