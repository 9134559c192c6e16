// Package verification issues and checks SMS phone verification codes.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/security"
)

const (
	CodeTTL     = 10 * time.Minute
	Cooldown    = time.Minute
	MaxAttempts = 5
)

// CodeSender delivers the code. *notification.SMSSender satisfies it.
type CodeSender interface {
	Send(ctx context.Context, tenantID uint, phone, message string) error
}

type Service struct {
	codes  repository.ValidationCodeRepository
	sender CodeSender
	now    func() time.Time
	gen    func() (string, error)
}

func NewService(codes repository.ValidationCodeRepository, sender CodeSender) *Service {
	return &Service{
		codes:  codes,
		sender: sender,
		now:    time.Now,
		gen:    func() (string, error) { return security.GenerateNumericCode(security.ValidationCodeDigits) },
	}
}

// NormalizePhone keeps the digits of phone.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Request creates a code for phone and sends it by SMS. The SMS is sent
// synchronously so the caller learns about missing credentials or gateway errors.
func (s *Service) Request(ctx context.Context, tenant *models.Tenant, phone string) (*models.ValidationCode, error) {
	phone = NormalizePhone(phone)
	if len(phone) < 10 {
		return nil, apperrors.Validation("phone", "Telefone inválido")
	}
	now := s.now()

	latest, err := s.codes.LatestActive(ctx, tenant.ID, phone, now)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load validation code: %w", err)
	}
	if latest != nil && now.Sub(latest.CreatedAt) < Cooldown {
		return nil, apperrors.Conflict("code_recently_sent", "Aguarde antes de solicitar um novo código",
			map[string]any{"retry_after_seconds": int((Cooldown - now.Sub(latest.CreatedAt)).Seconds()) + 1})
	}

	code, err := s.gen()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	hash, err := security.HashCode(code)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}
	row := &models.ValidationCode{
		TenantID:  tenant.ID,
		Phone:     phone,
		CodeHash:  hash,
		ExpiresAt: now.Add(CodeTTL),
		CreatedAt: now,
	}
	if err := s.codes.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("store validation code: %w", err)
	}

	msg := fmt.Sprintf("%s: seu código de verificação é %s. Válido por %d minutos.", tenant.Name, code, int(CodeTTL.Minutes()))
	if err := s.sender.Send(ctx, tenant.ID, phone, msg); err != nil {
		logger.L().Warn("validation code sms failed", zap.Uint("tenant_id", tenant.ID), zap.Error(err))
		return nil, err
	}
	return row, nil
}

// Verify checks code against the newest active code for phone and consumes it.
func (s *Service) Verify(ctx context.Context, tenantID uint, phone, code string) error {
	phone = NormalizePhone(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" {
		return apperrors.Validation("code", "Telefone e código são obrigatórios")
	}
	now := s.now()

	row, err := s.codes.LatestActive(ctx, tenantID, phone, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Validation("code", "Código inválido ou expirado")
		}
		return fmt.Errorf("load validation code: %w", err)
	}
	if row.Attempts >= MaxAttempts {
		return apperrors.Conflict("too_many_attempts", "Número máximo de tentativas atingido", nil)
	}
	if !security.CheckCode(row.CodeHash, code) {
		if err := s.codes.IncrementAttempts(ctx, row.ID); err != nil {
			return fmt.Errorf("count attempt: %w", err)
		}
		return apperrors.Validation("code", "Código inválido ou expirado")
	}

	ok, err := s.codes.Consume(ctx, row.ID, now)
	if err != nil {
		return fmt.Errorf("consume validation code: %w", err)
	}
	if !ok {
		return apperrors.Validation("code", "Código inválido ou expirado")
	}
	return nil
}
