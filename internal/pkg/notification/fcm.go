package notification

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
)

const (
	DefaultFCMBaseURL  = "https://fcm.googleapis.com"
	DefaultGoogleToken = "https://oauth2.googleapis.com/token"
	FCMScope           = "https://www.googleapis.com/auth/firebase.messaging"

	// access tokens are refreshed this long before Google expires them
	tokenExpiryMargin = time.Minute
)

// FCMCredentials is the subset of a Google service account key file FCM needs.
type FCMCredentials struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// LoadFCMCredentials reads a service account JSON key file.
func LoadFCMCredentials(path string) (*FCMCredentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fcm credentials: %w", err)
	}
	var creds FCMCredentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("parse fcm credentials: %w", err)
	}
	if creds.ProjectID == "" || creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, errors.New("fcm credentials: project_id, client_email and private_key are required")
	}
	if creds.TokenURI == "" {
		creds.TokenURI = DefaultGoogleToken
	}
	return &creds, nil
}

// AccessTokenSource hands out OAuth2 bearer tokens.
type AccessTokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// ServiceAccountTokens exchanges a self-signed RS256 assertion for an access
// token and caches it until shortly before it expires.
type ServiceAccountTokens struct {
	creds *FCMCredentials
	key   *rsa.PrivateKey
	http  *http.Client
	now   func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewServiceAccountTokens(creds *FCMCredentials) (*ServiceAccountTokens, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(creds.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parse fcm private key: %w", err)
	}
	return &ServiceAccountTokens{
		creds: creds,
		key:   key,
		http:  &http.Client{Timeout: PushTimeout},
		now:   time.Now,
	}, nil
}

type assertionClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (t *ServiceAccountTokens) AccessToken(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.token != "" && now.Before(t.expiry) {
		return t.token, nil
	}

	claims := assertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.creds.ClientEmail,
			Audience:  jwt.ClaimStrings{t.creds.TokenURI},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Scope: FCMScope,
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign fcm assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.creds.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fcm token exchange: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out tokenResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("fcm token exchange: empty access token")
	}

	t.token = out.AccessToken
	t.expiry = now.Add(time.Duration(out.ExpiresIn)*time.Second - tokenExpiryMargin)
	return t.token, nil
}

// FCMProvider sends through the Firebase HTTP v1 API.
type FCMProvider struct {
	BaseURL   string
	ProjectID string
	Tokens    AccessTokenSource
	HTTP      *http.Client
}

// NewFCMProvider returns a provider for projectID. A nil token source leaves it
// disabled.
func NewFCMProvider(baseURL, projectID string, tokens AccessTokenSource) *FCMProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultFCMBaseURL
	}
	return &FCMProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ProjectID: projectID,
		Tokens:    tokens,
		HTTP:      &http.Client{Timeout: PushTimeout},
	}
}

// NewFCMProviderFromFile loads service account credentials from path. An empty
// path yields a disabled provider.
func NewFCMProviderFromFile(baseURL, path string) (*FCMProvider, error) {
	if strings.TrimSpace(path) == "" {
		return NewFCMProvider(baseURL, "", nil), nil
	}
	creds, err := LoadFCMCredentials(path)
	if err != nil {
		return nil, err
	}
	tokens, err := NewServiceAccountTokens(creds)
	if err != nil {
		return nil, err
	}
	return NewFCMProvider(baseURL, creds.ProjectID, tokens), nil
}

func (p *FCMProvider) Name() string { return models.PushProviderFCM }

func (p *FCMProvider) Enabled() bool { return p.Tokens != nil && p.ProjectID != "" }

func (p *FCMProvider) Supports(token string) bool {
	return models.DetectPushProvider(token) == models.PushProviderFCM
}

func (p *FCMProvider) sendURL() string {
	return p.BaseURL + "/v1/projects/" + url.PathEscape(p.ProjectID) + "/messages:send"
}

type fcmNotification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

type fcmAndroid struct {
	Priority string `json:"priority"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      fcmAndroid        `json:"android"`
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmResponse struct {
	Name string `json:"name"`
}

type fcmErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type      string `json:"@type"`
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

func (b fcmErrorBody) errorCode() string {
	for _, d := range b.Error.Details {
		if d.ErrorCode != "" {
			return d.ErrorCode
		}
	}
	return b.Error.Status
}

func (p *FCMProvider) Send(ctx context.Context, token string, msg PushMessage) error {
	if !p.Enabled() {
		return errors.New("fcm: not configured")
	}
	access, err := p.Tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	payload := fcmRequest{Message: fcmMessage{
		Token:        token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
		Android:      fcmAndroid{Priority: "HIGH"},
	}}
	headers := map[string]string{"Authorization": "Bearer " + access}

	var out fcmResponse
	err = postJSON(ctx, p.HTTP, p.sendURL(), headers, payload, &out)
	if err == nil {
		return nil
	}

	var status *httpStatusError
	if !errors.As(err, &status) {
		return err
	}
	var body fcmErrorBody
	_ = json.Unmarshal(status.Body, &body)
	code := body.errorCode()
	if code == "UNREGISTERED" || (code == "" && status.Code == http.StatusNotFound) {
		return &InvalidTokenError{Provider: p.Name(), Reason: "UNREGISTERED"}
	}
	if code == "" {
		code = http.StatusText(status.Code)
	}
	return fmt.Errorf("fcm: %s %s", code, body.Error.Message)
}
