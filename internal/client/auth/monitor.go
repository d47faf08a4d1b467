package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/infradash/internal/client/api"
)

// DefaultSignals виды взаимодействия, которые продлевают сессию
var DefaultSignals = []string{"mousedown", "mousemove", "keypress", "scroll", "touchstart", "click"}

// Monitor завершает сессию после периода бездействия.
// Каждый подходящий сигнал отмечает активность и перезапускает один таймер.
type Monitor struct {
	ctx     context.Context
	svc     *Service
	nav     api.Navigator
	logger  *slog.Logger
	signals map[string]struct{}
	timer   *time.Timer
	expired chan struct{}
	timeout time.Duration
	gen     uint64
	mu      sync.Mutex
	stopped bool
}

// MonitorOption настраивает Monitor
type MonitorOption func(*Monitor)

// WithSignals задает виды взаимодействия, которые продлевают сессию
func WithSignals(kinds ...string) MonitorOption {
	return func(m *Monitor) {
		m.signals = make(map[string]struct{}, len(kinds))
		for _, kind := range kinds {
			m.signals[kind] = struct{}{}
		}
	}
}

// WithIdleTimeout задает время бездействия до выхода
func WithIdleTimeout(timeout time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.timeout = timeout
	}
}

// WithMonitorLogger задает logger
func WithMonitorLogger(logger *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// NewMonitor создает монитор неактивности. По умолчанию таймаут равен
// таймауту сессии svc, сигналы DefaultSignals.
func NewMonitor(svc *Service, nav api.Navigator, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		svc:     svc,
		nav:     nav,
		logger:  svc.logger,
		timeout: svc.SessionTimeout(),
		expired: make(chan struct{}),
	}
	WithSignals(DefaultSignals...)(m)

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start отмечает активность и запускает таймер
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	m.ctx = context.WithoutCancel(ctx)
	m.mu.Unlock()

	m.rearm(ctx)
}

// Signal сообщает о взаимодействии пользователя.
// false, если вид сигнала не отслеживается или монитор остановлен.
func (m *Monitor) Signal(ctx context.Context, kind string) bool {
	if _, ok := m.signals[kind]; !ok {
		return false
	}
	return m.rearm(ctx)
}

// Expired закрывается, когда сессия завершена по неактивности
func (m *Monitor) Expired() <-chan struct{} {
	return m.expired
}

// Stop останавливает таймер. Повторный Start после Stop не поддерживается.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
	}
}

func (m *Monitor) rearm(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped || m.ctx == nil {
		return false
	}

	if err := m.svc.UpdateLastActivity(ctx); err != nil {
		m.logger.WarnContext(ctx, "failed to stamp activity", slog.Any("error", err))
	}

	// Сработавший, но еще ждущий mu таймер увидит новое поколение и выйдет
	if m.timer != nil {
		m.timer.Stop()
	}
	m.gen++
	gen := m.gen
	m.timer = time.AfterFunc(m.timeout, func() { m.expire(gen) })
	return true
}

func (m *Monitor) expire(gen uint64) {
	m.mu.Lock()
	if m.stopped || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	ctx := m.ctx
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "session expired due to inactivity")

	if err := m.svc.Logout(ctx); err != nil {
		m.logger.ErrorContext(ctx, "failed to logout", slog.Any("error", err))
	}
	if m.nav != nil {
		m.nav.Redirect(ctx, api.LoginTarget(api.ReasonSessionExpired))
	}
	close(m.expired)
}
