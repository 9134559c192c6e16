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

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/metrics"
)

const (
	DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"
	PushTimeout        = 10 * time.Second
)

// PushMessage is the provider independent notification payload.
type PushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// InvalidTokenError marks a token the provider will never accept again.
type InvalidTokenError struct {
	Provider string
	Reason   string
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("%s rejected token: %s", e.Provider, e.Reason)
}

func isInvalidToken(err error) bool {
	var target *InvalidTokenError
	return errors.As(err, &target)
}

// PushProvider delivers a message to one token. Supports reports whether the
// token was issued for this provider.
type PushProvider interface {
	Name() string
	Enabled() bool
	Supports(token string) bool
	Send(ctx context.Context, token string, msg PushMessage) error
}

// ExpoProvider sends through the Expo push service.
type ExpoProvider struct {
	URL         string
	AccessToken string
	HTTP        *http.Client
}

func NewExpoProvider(url, accessToken string) *ExpoProvider {
	if strings.TrimSpace(url) == "" {
		url = DefaultExpoPushURL
	}
	return &ExpoProvider{URL: url, AccessToken: accessToken, HTTP: &http.Client{Timeout: PushTimeout}}
}

func (p *ExpoProvider) Name() string { return models.PushProviderExpo }

func (p *ExpoProvider) Enabled() bool { return p.URL != "" }

func (p *ExpoProvider) Supports(token string) bool {
	return models.DetectPushProvider(token) == models.PushProviderExpo
}

type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound"`
}

type expoResponse struct {
	Data []struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Details struct {
			Error string `json:"error"`
		} `json:"details"`
	} `json:"data"`
}

func (p *ExpoProvider) Send(ctx context.Context, token string, msg PushMessage) error {
	payload := []expoMessage{{To: token, Title: msg.Title, Body: msg.Body, Data: msg.Data, Sound: "default"}}
	headers := map[string]string{}
	if p.AccessToken != "" {
		headers["Authorization"] = "Bearer " + p.AccessToken
	}

	var out expoResponse
	if err := postJSON(ctx, p.HTTP, p.URL, headers, payload, &out); err != nil {
		return err
	}
	if len(out.Data) == 0 {
		return errors.New("expo: empty response")
	}
	ticket := out.Data[0]
	if ticket.Status == "ok" {
		return nil
	}
	if ticket.Details.Error == "DeviceNotRegistered" {
		return &InvalidTokenError{Provider: p.Name(), Reason: ticket.Details.Error}
	}
	return fmt.Errorf("expo: %s %s", ticket.Details.Error, ticket.Message)
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{Code: resp.StatusCode, Body: raw}
	}
	return json.Unmarshal(raw, out)
}

type httpStatusError struct {
	Code int
	Body []byte
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, strings.TrimSpace(string(e.Body)))
}

// TokenPruner removes tokens rejected permanently by a provider.
type TokenPruner interface {
	DeleteByToken(ctx context.Context, token string) error
}

// Pusher walks the providers in order until one accepts the token.
type Pusher struct {
	providers []PushProvider
	tokens    TokenPruner
}

// NewPusher creates a pusher. Providers are tried in the given order.
func NewPusher(tokens TokenPruner, providers ...PushProvider) *Pusher {
	return &Pusher{providers: providers, tokens: tokens}
}

// Send delivers msg to a single token. The provider that issued the token is
// tried first in list order; the others only serve as fallback after a failure.
// A token is deleted from push_tokens only when its own provider rejects it as
// unregistered.
func (p *Pusher) Send(ctx context.Context, token string, msg PushMessage) error {
	var lastErr error
	for _, provider := range p.providers {
		if !provider.Enabled() {
			continue
		}
		native := provider.Supports(token)
		if !native && lastErr == nil {
			continue
		}
		err := provider.Send(ctx, token, msg)
		if err == nil {
			metrics.NotificationsSent.WithLabelValues("push", provider.Name(), "success").Inc()
			return nil
		}
		metrics.NotificationsSent.WithLabelValues("push", provider.Name(), "failure").Inc()
		logger.L().Warn("push delivery failed", zap.String("provider", provider.Name()), zap.Bool("native", native), zap.Error(err))
		lastErr = apperrors.Upstream(provider.Name(), err)

		if native && isInvalidToken(err) {
			p.prune(ctx, token)
			return lastErr
		}
	}

	if lastErr == nil {
		return apperrors.Configuration("nenhum provedor de push aceita o token")
	}
	return lastErr
}

func (p *Pusher) prune(ctx context.Context, token string) {
	if p.tokens == nil {
		return
	}
	if err := p.tokens.DeleteByToken(context.WithoutCancel(ctx), token); err != nil {
		logger.L().Error("failed to prune push token", zap.Error(err))
	}
}

// SendAll delivers msg to every token and returns how many were accepted.
func (p *Pusher) SendAll(ctx context.Context, tokens []models.PushToken, msg PushMessage) int {
	sent := 0
	for _, t := range tokens {
		if err := p.Send(ctx, t.Token, msg); err == nil {
			sent++
		}
	}
	return sent
}
