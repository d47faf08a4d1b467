package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты обновления access токена
const (
	refreshSuccess = "success"
	refreshFailure = "failure"
	refreshNoToken = "no_token"
)

// Metrics счетчики клиента. Нулевой *Metrics допустим, вызовы превращаются в no-op.
type Metrics struct {
	requests *prometheus.CounterVec
	refresh  *prometheus.CounterVec
	queued   prometheus.Counter
	waiting  prometheus.Gauge
}

// NewMetrics регистрирует метрики клиента в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "infradash",
			Subsystem: "api_client",
			Name:      "requests_total",
			Help:      "HTTP requests sent to the backend by method and status code.",
		}, []string{"method", "code"}),
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "infradash",
			Subsystem: "api_client",
			Name:      "token_refresh_total",
			Help:      "Access token refresh attempts by result.",
		}, []string{"result"}),
		queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "infradash",
			Subsystem: "api_client",
			Name:      "queued_requests_total",
			Help:      "Requests parked while a token refresh was in flight.",
		}),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "infradash",
			Subsystem: "api_client",
			Name:      "refresh_queue_length",
			Help:      "Requests currently waiting for a token refresh.",
		}),
	}
	reg.MustRegister(m.requests, m.refresh, m.queued, m.waiting)
	return m
}

func (m *Metrics) observeRequest(method string, status int) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, code).Inc()
}

func (m *Metrics) observeRefresh(result string) {
	if m == nil {
		return
	}
	m.refresh.WithLabelValues(result).Inc()
}

func (m *Metrics) setQueueLength(n int) {
	if m == nil {
		return
	}
	m.waiting.Set(float64(n))
}

func (m *Metrics) incQueued() {
	if m == nil {
		return
	}
	m.queued.Inc()
}
