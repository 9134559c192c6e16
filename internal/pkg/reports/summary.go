// Package reports builds the per-tenant analytics summary and its XLSX export.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/entitlements"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/objectstore"
)

const (
	cacheKeySummary = "analytics:summary:%d:%s" // tenant id, YYYY-MM
	summaryCacheTTL = 5 * time.Minute
	monthLayout     = "2006-01"
)

// Summary is the monthly analytics view of a tenant.
type Summary struct {
	Month                string           `json:"month"`
	From                 time.Time        `json:"from"`
	To                   time.Time        `json:"to"`
	TotalAppointments    int64            `json:"total_appointments"`
	AppointmentsByStatus map[string]int64 `json:"appointments_by_status"`
	CompletionRate       float64          `json:"completion_rate"`
	CancellationRate     float64          `json:"cancellation_rate"`
	SMSSent              int64            `json:"sms_sent"`
}

// SummaryCache stores computed summaries for a short time.
type SummaryCache interface {
	Get(ctx context.Context, key string, v interface{}) error
	Set(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Service computes summaries and exports.
type Service struct {
	appointments repository.AppointmentRepository
	smsLogs      repository.SMSLogRepository
	store        objectstore.Store
	cache        SummaryCache
	now          func() time.Time
	newID        func() string
}

// NewService creates a report service. store and cache may be nil; exports then
// fail with a configuration error and summaries are always computed.
func NewService(appointments repository.AppointmentRepository, smsLogs repository.SMSLogRepository, store objectstore.Store, cache SummaryCache) *Service {
	return &Service{
		appointments: appointments,
		smsLogs:      smsLogs,
		store:        store,
		cache:        cache,
		now:          time.Now,
		newID:        newExportID,
	}
}

// ParseMonth accepts YYYY-MM; empty means the current month.
func ParseMonth(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	t, err := time.ParseInLocation(monthLayout, value, now.Location())
	if err != nil {
		return time.Time{}, apperrors.Validation("month", "Mês deve estar no formato AAAA-MM")
	}
	return t, nil
}

// Summary returns the analytics summary of the calendar month containing month.
func (s *Service) Summary(ctx context.Context, tenantID uint, month time.Time) (*Summary, error) {
	key := fmt.Sprintf(cacheKeySummary, tenantID, month.Format(monthLayout))
	if s.cache != nil {
		var cached Summary
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if err != redis.Nil {
			logger.L().Warn("analytics cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	sum, err := s.compute(ctx, tenantID, month)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, sum, summaryCacheTTL); err != nil {
			logger.L().Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return sum, nil
}

// Invalidate drops the cached summary of the month containing at.
func (s *Service) Invalidate(ctx context.Context, tenantID uint, at time.Time) {
	if s.cache == nil {
		return
	}
	key := fmt.Sprintf(cacheKeySummary, tenantID, at.Format(monthLayout))
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.L().Warn("analytics cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) compute(ctx context.Context, tenantID uint, month time.Time) (*Summary, error) {
	from, to := entitlements.MonthWindow(month)

	byStatus, err := s.appointments.CountByStatusBetween(ctx, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	smsSent, err := s.smsLogs.CountBetween(ctx, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("count sms logs: %w", err)
	}

	sum := &Summary{
		Month:                month.Format(monthLayout),
		From:                 from,
		To:                   to,
		AppointmentsByStatus: map[string]int64{},
		SMSSent:              smsSent,
	}
	for _, status := range []string{models.AppointmentStatusPending, models.AppointmentStatusDone, models.AppointmentStatusCancelled} {
		sum.AppointmentsByStatus[status] = byStatus[status]
	}
	for _, n := range byStatus {
		sum.TotalAppointments += n
	}
	if sum.TotalAppointments > 0 {
		total := float64(sum.TotalAppointments)
		sum.CompletionRate = float64(byStatus[models.AppointmentStatusDone]) / total
		sum.CancellationRate = float64(byStatus[models.AppointmentStatusCancelled]) / total
	}
	return sum, nil
}
