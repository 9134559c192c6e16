package jobqueue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
)

// TenantLister returns the tenants the sweep visits.
type TenantLister interface {
	ListActive(ctx context.Context) ([]models.Tenant, error)
}

// ReminderStore finds and flags appointments due for a reminder.
type ReminderStore interface {
	ListDueForReminder(ctx context.Context, tenantID uint, date string) ([]models.Appointment, error)
	MarkReminderSent(ctx context.Context, id uint) error
}

// ReminderNotifier sends one reminder and reports whether it was handed off.
// *notification.Dispatcher satisfies it.
type ReminderNotifier interface {
	Reminder(ctx context.Context, tenant *models.Tenant, a *models.Appointment) bool
}

// SweepResult summarizes one reminder sweep.
type SweepResult struct {
	Tenants       int
	Reminders     int
	Unsent        int
	FailedTenants int
}

// ReminderSweeper sends the day-before reminders.
type ReminderSweeper struct {
	tenants      TenantLister
	appointments ReminderStore
	notifier     ReminderNotifier
}

func NewReminderSweeper(tenants TenantLister, appointments ReminderStore, notifier ReminderNotifier) *ReminderSweeper {
	return &ReminderSweeper{tenants: tenants, appointments: appointments, notifier: notifier}
}

// RunOnce sends reminders for every pending appointment dated the day after
// now. Tenants are visited one at a time and a failing tenant does not stop
// the sweep.
func (s *ReminderSweeper) RunOnce(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		return res, fmt.Errorf("list active tenants: %w", err)
	}

	date := now.AddDate(0, 0, 1).Format("2006-01-02")
	for i := range tenants {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Tenants++
		sent, unsent, err := s.sweepTenant(ctx, &tenants[i], date)
		res.Reminders += sent
		res.Unsent += unsent
		if err != nil {
			res.FailedTenants++
			logger.L().Error("reminder sweep failed for tenant",
				zap.Uint("tenant_id", tenants[i].ID), zap.String("date", date), zap.Error(err))
		}
	}

	logger.L().Info("reminder sweep finished",
		zap.String("date", date),
		zap.Int("tenants", res.Tenants),
		zap.Int("reminders", res.Reminders),
		zap.Int("unsent", res.Unsent),
		zap.Int("failed_tenants", res.FailedTenants))
	return res, nil
}

// sweepTenant leaves an appointment unmarked when its reminder could not be
// handed off, so a later sweep of the same day picks it up again.
func (s *ReminderSweeper) sweepTenant(ctx context.Context, tenant *models.Tenant, date string) (sent, unsent int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	due, err := s.appointments.ListDueForReminder(ctx, tenant.ID, date)
	if err != nil {
		return 0, 0, err
	}
	for i := range due {
		if !s.notifier.Reminder(ctx, tenant, &due[i]) {
			unsent++
			continue
		}
		if err := s.appointments.MarkReminderSent(ctx, due[i].ID); err != nil {
			return sent, unsent, fmt.Errorf("mark reminder sent for appointment %d: %w", due[i].ID, err)
		}
		sent++
	}
	return sent, unsent, nil
}

// ReminderRetryInterval spaces the extra sweeps run while reminders of the
// day are still unsent.
const ReminderRetryInterval = 15 * time.Minute

// RetryAt returns when to sweep again after a sweep at now left reminders
// unsent. ok is false once the retry would fall on the next day, where the
// regular sweep takes over.
func RetryAt(now time.Time) (time.Time, bool) {
	at := now.Add(ReminderRetryInterval)
	y1, m1, d1 := now.Date()
	y2, m2, d2 := at.Date()
	return at, y1 == y2 && m1 == m2 && d1 == d2
}

// NextRun returns the next time the sweep should run at hour:00 local time.
func NextRun(now time.Time, hour int) time.Time {
	if hour < 0 || hour > 23 {
		hour = DefaultReminderHour
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
