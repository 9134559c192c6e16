package jobqueue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
)

// DefaultReminderHour is the local hour of the daily reminder sweep.
const DefaultReminderHour = 9

// ManagerConfig wires the queue and the reminder sweep.
type ManagerConfig struct {
	Queue        *Queue
	Sweeper      *ReminderSweeper
	ReminderHour int
}

// Manager owns the job queue and the scheduled background tasks
type Manager struct {
	queue        *Queue
	sweeper      *ReminderSweeper
	reminderHour int
	now          func() time.Time
	stopCh       chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// NewManager creates a manager. A nil sweeper disables the reminder task.
func NewManager(cfg ManagerConfig) *Manager {
	hour := cfg.ReminderHour
	if hour < 0 || hour > 23 {
		hour = DefaultReminderHour
	}
	return &Manager{
		queue:        cfg.Queue,
		sweeper:      cfg.Sweeper,
		reminderHour: hour,
		now:          time.Now,
		stopCh:       make(chan struct{}),
	}
}

// InitManager builds the process wide manager once. Later calls return the first instance.
func InitManager(cfg ManagerConfig) *Manager {
	managerOnce.Do(func() {
		globalManager = NewManager(cfg)
	})
	return globalManager
}

// GetManager returns the process wide manager, or nil before InitManager.
func GetManager() *Manager {
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// fresh channel per start cycle so the manager can be restarted
	m.stopCh = make(chan struct{})
	m.running = true

	if m.queue != nil {
		m.queue.Start()
	}
	if m.sweeper != nil {
		m.wg.Add(1)
		go m.reminderWorker(m.stopCh)
	}
	logger.L().Info("job manager started", zap.Int("reminder_hour", m.reminderHour))
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	close(m.stopCh)
	m.running = false
	m.wg.Wait()

	if m.queue != nil {
		m.queue.Stop()
	}
	logger.L().Info("job manager stopped")
}

// reminderWorker sleeps until the next sweep hour, runs the sweep and repeats.
// A sweep that failed or left reminders unsent is retried later the same day.
func (m *Manager) reminderWorker(stop <-chan struct{}) {
	defer m.wg.Done()
	var retry time.Time
	for {
		now := m.now()
		next := NextRun(now, m.reminderHour)
		if !retry.IsZero() && retry.Before(next) {
			next = retry
		}
		retry = time.Time{}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
			res, err := m.RunReminderSweepOnce(context.Background())
			if err != nil {
				logger.L().Error("reminder sweep failed", zap.Error(err))
			}
			if err != nil || res.Unsent > 0 {
				if at, ok := RetryAt(m.now()); ok {
					retry = at
				}
			}
		}
	}
}

// RunReminderSweepOnce exposes a manual trigger for a single reminder sweep.
func (m *Manager) RunReminderSweepOnce(ctx context.Context) (SweepResult, error) {
	if m.sweeper == nil {
		return SweepResult{}, nil
	}
	return m.sweeper.RunOnce(ctx, m.now())
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
