package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/metrics"
)

const (
	DefaultSMSGatewayURL = "https://api.smsgateway.com.br/v1/messages"
	SMSTimeout           = 10 * time.Second
	ProviderSMSGateway   = "sms_gateway"

	// provider responses are truncated before they are written to sms_logs
	maxProviderResponse = 2000
)

// SMSConfig holds the per-tenant gateway credentials.
type SMSConfig struct {
	SubAccount string
	Password   string
	SenderID   string
}

// SMSResult is the outcome of one gateway call.
type SMSResult struct {
	Success          bool
	ProviderResponse string
	Error            string
}

type smsRequest struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// SMSClient talks to the HTTP SMS gateway.
type SMSClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewSMSClient creates a gateway client. An empty baseURL uses the default gateway.
func NewSMSClient(baseURL string) *SMSClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultSMSGatewayURL
	}
	return &SMSClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: SMSTimeout},
	}
}

// Send posts one message to the gateway using basic auth with the tenant's
// sub-account. Transport and non-2xx failures are reported in the result.
func (c *SMSClient) Send(ctx context.Context, cfg SMSConfig, phone, message string) SMSResult {
	body, err := json.Marshal(smsRequest{From: cfg.SenderID, To: phone, Message: message})
	if err != nil {
		return SMSResult{Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return SMSResult{Error: err.Error()}
	}
	req.SetBasicAuth(cfg.SubAccount, cfg.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return SMSResult{Error: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponse))
	res := SMSResult{ProviderResponse: string(raw)}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Error = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		return res
	}
	res.Success = true
	return res
}

// SMSSender resolves tenant credentials, calls the gateway and keeps the
// sms_logs audit trail.
type SMSSender struct {
	client       *SMSClient
	integrations repository.IntegrationRepository
	logs         repository.SMSLogRepository
}

func NewSMSSender(client *SMSClient, integrations repository.IntegrationRepository, logs repository.SMSLogRepository) *SMSSender {
	return &SMSSender{client: client, integrations: integrations, logs: logs}
}

// Config loads the tenant's SMS credentials. Missing credentials are a
// ConfigurationError.
func (s *SMSSender) Config(ctx context.Context, tenantID uint) (SMSConfig, error) {
	ti, err := s.integrations.GetByTenant(ctx, tenantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return SMSConfig{}, fmt.Errorf("load integration: %w", err)
	}
	if !ti.HasSMSCredentials() {
		return SMSConfig{}, apperrors.Configuration("SMS não configurado para o tenant %d", tenantID)
	}
	return SMSConfig{
		SubAccount: strings.TrimSpace(ti.SMSSubAccount),
		Password:   ti.SMSPassword,
		SenderID:   strings.TrimSpace(ti.SMSSenderID),
	}, nil
}

// Send delivers message to phone on behalf of the tenant. Every attempt,
// including one rejected for missing credentials, is written to sms_logs.
func (s *SMSSender) Send(ctx context.Context, tenantID uint, phone, message string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return apperrors.Validation("phone", "Telefone é obrigatório")
	}

	var res SMSResult
	cfg, cfgErr := s.Config(ctx, tenantID)
	if cfgErr != nil {
		res.Error = cfgErr.Error()
	} else {
		res = s.client.Send(ctx, cfg, phone, message)
	}

	entry := &models.SMSLog{
		TenantID:         tenantID,
		Phone:            phone,
		Message:          message,
		Success:          res.Success,
		ProviderResponse: res.ProviderResponse,
		Error:            res.Error,
	}
	// the audit row is written even when the caller gave up
	if err := s.logs.Create(context.WithoutCancel(ctx), entry); err != nil {
		logger.L().Error("failed to write sms log", zap.Uint("tenant_id", tenantID), zap.Error(err))
	}

	result := "success"
	if !res.Success {
		result = "failure"
	}
	metrics.NotificationsSent.WithLabelValues("sms", ProviderSMSGateway, result).Inc()

	if cfgErr != nil {
		return cfgErr
	}
	if !res.Success {
		return apperrors.Upstream(ProviderSMSGateway, errors.New(res.Error))
	}
	return nil
}
