package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
)

type fakeIntegrations map[uint]*models.TenantIntegration

func (f fakeIntegrations) GetByTenant(_ context.Context, tenantID uint) (*models.TenantIntegration, error) {
	if ti, ok := f[tenantID]; ok {
		return ti, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSMSLogs struct {
	rows []models.SMSLog
}

func (f *fakeSMSLogs) Create(_ context.Context, l *models.SMSLog) error {
	f.rows = append(f.rows, *l)
	return nil
}
func (f *fakeSMSLogs) List(context.Context, uint, int, int) ([]models.SMSLog, error) {
	return f.rows, nil
}
func (f *fakeSMSLogs) Count(context.Context, uint) (int64, error) { return int64(len(f.rows)), nil }
func (f *fakeSMSLogs) CountBetween(context.Context, uint, time.Time, time.Time) (int64, error) {
	return int64(len(f.rows)), nil
}

func configured() fakeIntegrations {
	return fakeIntegrations{1: {TenantID: 1, SMSSubAccount: "acme", SMSPassword: "secret", SMSSenderID: "ACME"}}
}

func TestSMSClient_SendsWithBasicAuth(t *testing.T) {
	var got smsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "acme", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer srv.Close()

	res := NewSMSClient(srv.URL).Send(context.Background(), SMSConfig{SubAccount: "acme", Password: "secret", SenderID: "ACME"}, "+5511999990000", "oi")
	assert.True(t, res.Success)
	assert.Equal(t, `{"id":"msg-1"}`, res.ProviderResponse)
	assert.Equal(t, "ACME", got.From)
	assert.Equal(t, "+5511999990000", got.To)
	assert.Equal(t, "oi", got.Message)
}

func TestSMSClient_Non2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad credentials"}`))
	}))
	defer srv.Close()

	res := NewSMSClient(srv.URL).Send(context.Background(), SMSConfig{SubAccount: "x", Password: "y"}, "1", "m")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "401")
	assert.Contains(t, res.ProviderResponse, "bad credentials")
}

func TestSMSClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewSMSClient(srv.URL)
	assert.Equal(t, SMSTimeout, c.HTTP.Timeout)
	c.HTTP.Timeout = 20 * time.Millisecond
	res := c.Send(context.Background(), SMSConfig{SubAccount: "x", Password: "y"}, "1", "m")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestSMSSender_LogsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	logs := &fakeSMSLogs{}
	s := NewSMSSender(NewSMSClient(srv.URL), configured(), logs)
	require.NoError(t, s.Send(context.Background(), 1, " 11999990000 ", "lembrete"))
	require.Len(t, logs.rows, 1)
	assert.True(t, logs.rows[0].Success)
	assert.Equal(t, "11999990000", logs.rows[0].Phone)
	assert.Equal(t, "ok", logs.rows[0].ProviderResponse)
}

func TestSMSSender_LogsGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	logs := &fakeSMSLogs{}
	s := NewSMSSender(NewSMSClient(srv.URL), configured(), logs)
	err := s.Send(context.Background(), 1, "11999990000", "lembrete")
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	require.Len(t, logs.rows, 1)
	assert.False(t, logs.rows[0].Success)
	assert.Contains(t, logs.rows[0].Error, "502")
}

func TestSMSSender_MissingCredentials(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	logs := &fakeSMSLogs{}
	integrations := fakeIntegrations{2: {TenantID: 2, SMSSubAccount: "only-account"}}
	s := NewSMSSender(NewSMSClient(srv.URL), integrations, logs)

	for _, tenantID := range []uint{2, 3} {
		err := s.Send(context.Background(), tenantID, "11999990000", "oi")
		assert.True(t, apperrors.IsConfiguration(err), "tenant %d", tenantID)
	}
	assert.False(t, called)
	assert.Len(t, logs.rows, 2)
}

func TestSMSSender_RequiresPhone(t *testing.T) {
	s := NewSMSSender(NewSMSClient(""), configured(), &fakeSMSLogs{})
	assert.True(t, apperrors.IsValidation(s.Send(context.Background(), 1, " ", "oi")))
}
