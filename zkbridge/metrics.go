package zkbridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "zksync_deposit"

// Metricer records the progress of deposits. path is "eth" or "erc20".
type Metricer interface {
	RecordDepositStarted(path string)
	RecordDepositFailed(path string)
	RecordDepositSubmitted(path string, l1GasLimit uint64)
	RecordApproval()
}

// Metrics is the Prometheus Metricer.
type Metrics struct {
	started    *prometheus.CounterVec
	failed     *prometheus.CounterVec
	submitted  *prometheus.CounterVec
	approvals  prometheus.Counter
	l1GasLimit prometheus.Histogram
}

var _ Metricer = (*Metrics)(nil)

// NewMetrics registers the deposit metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		started: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "started_total",
			Help:      "Number of deposits started",
		}, []string{"path"}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "failed_total",
			Help:      "Number of deposits that failed before a receipt was obtained",
		}, []string{"path"}),
		submitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "submitted_total",
			Help:      "Number of deposit transactions sent to L1",
		}, []string{"path"}),
		approvals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "approvals_total",
			Help:      "Number of token approvals sent ahead of a deposit",
		}),
		l1GasLimit: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "l1_gas_limit",
			Help:      "Scaled L1 gas limit of deposit transactions",
			Buckets:   prometheus.ExponentialBuckets(50_000, 2, 8),
		}),
	}
}

func (m *Metrics) RecordDepositStarted(path string) {
	m.started.WithLabelValues(path).Inc()
}

func (m *Metrics) RecordDepositFailed(path string) {
	m.failed.WithLabelValues(path).Inc()
}

func (m *Metrics) RecordDepositSubmitted(path string, l1GasLimit uint64) {
	m.submitted.WithLabelValues(path).Inc()
	m.l1GasLimit.Observe(float64(l1GasLimit))
}

func (m *Metrics) RecordApproval() {
	m.approvals.Inc()
}

type noopMetrics struct{}

// NoopMetrics discards everything. It is the executor default.
var NoopMetrics Metricer = noopMetrics{}

func (noopMetrics) RecordDepositStarted(string)           {}
func (noopMetrics) RecordDepositFailed(string)            {}
func (noopMetrics) RecordDepositSubmitted(string, uint64) {}
func (noopMetrics) RecordApproval()                       {}
