package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
)

type memCodes struct {
	rows []*models.ValidationCode
}

func (m *memCodes) Create(_ context.Context, code *models.ValidationCode) error {
	code.ID = uint(len(m.rows) + 1)
	m.rows = append(m.rows, code)
	return nil
}

func (m *memCodes) LatestActive(_ context.Context, tenantID uint, phone string, now time.Time) (*models.ValidationCode, error) {
	for i := len(m.rows) - 1; i >= 0; i-- {
		r := m.rows[i]
		if r.TenantID == tenantID && r.Phone == phone && r.ConsumedAt == nil && r.ExpiresAt.After(now) {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCodes) IncrementAttempts(_ context.Context, id uint) error {
	m.rows[id-1].Attempts++
	return nil
}

func (m *memCodes) Consume(_ context.Context, id uint, at time.Time) (bool, error) {
	r := m.rows[id-1]
	if r.ConsumedAt != nil {
		return false, nil
	}
	r.ConsumedAt = &at
	return true, nil
}

type recordingSender struct {
	messages []string
	err      error
}

func (r *recordingSender) Send(_ context.Context, _ uint, _ string, message string) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, message)
	return nil
}

func newTestService(sender *recordingSender, now time.Time) (*Service, *memCodes) {
	codes := &memCodes{}
	svc := NewService(codes, sender)
	svc.now = func() time.Time { return now }
	svc.gen = func() (string, error) { return "123456", nil }
	return svc, codes
}

var tenant = &models.Tenant{ID: 1, Name: "Clínica"}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5511999990000", NormalizePhone("+55 (11) 99999-0000"))
}

func TestRequest_StoresHashAndSends(t *testing.T) {
	sender := &recordingSender{}
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc, codes := newTestService(sender, now)

	row, err := svc.Request(context.Background(), tenant, "(11) 99999-0000")
	require.NoError(t, err)
	assert.Equal(t, "11999990000", row.Phone)
	assert.NotEqual(t, "123456", row.CodeHash)
	assert.Equal(t, now.Add(CodeTTL), row.ExpiresAt)
	require.Len(t, codes.rows, 1)
	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "123456")
}

func TestRequest_InvalidPhone(t *testing.T) {
	svc, _ := newTestService(&recordingSender{}, time.Now())
	_, err := svc.Request(context.Background(), tenant, "123")
	assert.True(t, apperrors.IsValidation(err))
}

func TestRequest_Cooldown(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(&recordingSender{}, now)

	_, err := svc.Request(context.Background(), tenant, "11999990000")
	require.NoError(t, err)
	_, err = svc.Request(context.Background(), tenant, "11999990000")
	assert.True(t, apperrors.IsConflict(err))

	svc.now = func() time.Time { return now.Add(Cooldown + time.Second) }
	_, err = svc.Request(context.Background(), tenant, "11999990000")
	assert.NoError(t, err)
}

func TestRequest_SendErrorPropagates(t *testing.T) {
	sender := &recordingSender{err: apperrors.Configuration("sem credenciais")}
	svc, _ := newTestService(sender, time.Now())

	_, err := svc.Request(context.Background(), tenant, "11999990000")
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestVerify_ConsumesOnce(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc, codes := newTestService(&recordingSender{}, now)
	_, err := svc.Request(context.Background(), tenant, "11999990000")
	require.NoError(t, err)

	require.NoError(t, svc.Verify(context.Background(), 1, "11999990000", "123456"))
	assert.NotNil(t, codes.rows[0].ConsumedAt)

	err = svc.Verify(context.Background(), 1, "11999990000", "123456")
	assert.True(t, apperrors.IsValidation(err))
}

func TestVerify_WrongCodeCountsAttempts(t *testing.T) {
	svc, codes := newTestService(&recordingSender{}, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	_, err := svc.Request(context.Background(), tenant, "11999990000")
	require.NoError(t, err)

	for i := 0; i < MaxAttempts; i++ {
		err := svc.Verify(context.Background(), 1, "11999990000", "000000")
		assert.True(t, apperrors.IsValidation(err))
	}
	assert.Equal(t, MaxAttempts, codes.rows[0].Attempts)

	err = svc.Verify(context.Background(), 1, "11999990000", "123456")
	assert.True(t, apperrors.IsConflict(err))
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(&recordingSender{}, now)
	_, err := svc.Request(context.Background(), tenant, "11999990000")
	require.NoError(t, err)

	svc.now = func() time.Time { return now.Add(CodeTTL + time.Second) }
	err = svc.Verify(context.Background(), 1, "11999990000", "123456")
	assert.True(t, apperrors.IsValidation(err))
}

func TestVerify_LookupError(t *testing.T) {
	svc := NewService(&failingCodes{}, &recordingSender{})
	err := svc.Verify(context.Background(), 1, "11999990000", "123456")
	assert.ErrorContains(t, err, "db down")
}

type failingCodes struct{ memCodes }

func (failingCodes) LatestActive(context.Context, uint, string, time.Time) (*models.ValidationCode, error) {
	return nil, errors.New("db down")
}
