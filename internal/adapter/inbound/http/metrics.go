package http

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sentinel-Gate/toolgate/internal/domain/audit"
	"github.com/Sentinel-Gate/toolgate/internal/domain/operation"
)

// Metrics holds all Prometheus metrics for toolgate.
// Pass to components that need to record metrics.
type Metrics struct {
	GovernedCalls   *prometheus.CounterVec
	Passthrough     *prometheus.CounterVec
	PolicyReloads   *prometheus.CounterVec
	PolicyInfo      *prometheus.GaugeVec
	BackendExitCode prometheus.Gauge

	exitCode atomic.Int64 // mirrors BackendExitCode for health checks
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GovernedCalls: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "toolgate",
				Name:      "governed_calls_total",
				Help:      "Total tool calls classified and decided by policy",
			},
			// service is the configured --service or "derived"; never a client-supplied name
			[]string{"service", "operation", "decision"}, // decision=ALLOWED/DENIED
		),
		Passthrough: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "toolgate",
				Name:      "passthrough_messages_total",
				Help:      "Total client messages forwarded without classification",
			},
			[]string{"reason"},
		),
		PolicyReloads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "toolgate",
				Name:      "policy_reloads_total",
				Help:      "Total policy reload attempts",
			},
			[]string{"result"}, // result=ok/error
		),
		PolicyInfo: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "toolgate",
				Name:      "policy_info",
				Help:      "Fingerprint of the policy table in force (always 1)",
			},
			[]string{"version"},
		),
		BackendExitCode: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "toolgate",
				Name:      "backend_exit_code",
				Help:      "Exit status of the backend process, -1 while running",
			},
		),
	}
	m.BackendStarted()
	return m
}

// RecordGovernedCall implements proxy.MetricsRecorder.
func (m *Metrics) RecordGovernedCall(service string, op operation.Category, decision audit.Decision) {
	m.GovernedCalls.WithLabelValues(service, string(op), string(decision)).Inc()
}

// RecordPassthrough implements proxy.MetricsRecorder.
func (m *Metrics) RecordPassthrough(reason string) {
	m.Passthrough.WithLabelValues(reason).Inc()
}

// PolicyReloaded implements service.ReloadObserver.
func (m *Metrics) PolicyReloaded(version string, err error) {
	if err != nil {
		m.PolicyReloads.WithLabelValues("error").Inc()
		return
	}
	m.PolicyReloads.WithLabelValues("ok").Inc()
	m.SetPolicyVersion(version)
}

// SetPolicyVersion records the version in force, replacing the previous one.
func (m *Metrics) SetPolicyVersion(version string) {
	m.PolicyInfo.Reset()
	m.PolicyInfo.WithLabelValues(version).Set(1)
}

// BackendStarted marks the backend as running.
func (m *Metrics) BackendStarted() {
	m.exitCode.Store(-1)
	m.BackendExitCode.Set(-1)
}

// BackendExited implements service.ExitObserver.
func (m *Metrics) BackendExited(code int) {
	m.exitCode.Store(int64(code))
	m.BackendExitCode.Set(float64(code))
}

// BackendState reports whether the backend has exited and with which code.
func (m *Metrics) BackendState() (exited bool, code int) {
	c := m.exitCode.Load()
	return c >= 0, int(c)
}

func backendStateLabel(exited bool, code int) string {
	if !exited {
		return "running"
	}
	return "exited " + strconv.Itoa(code)
}
