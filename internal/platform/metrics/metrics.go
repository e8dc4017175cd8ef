// Package metrics holds the Prometheus collectors of the ledger services.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "banking_ledger"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	transactionsProcessed *prometheus.CounterVec
	processLatency        *prometheus.HistogramVec
	reversals             prometheus.Counter
	upgradeDecisions      *prometheus.CounterVec
	outboxPublished       *prometheus.CounterVec
	dlqPublished          prometheus.Counter
	inflightJobs          prometheus.Gauge
}

// New registers every collector with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		transactionsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_processed_total",
				Help:      "Transactions brought to a terminal status, by type and status",
			},
			[]string{"type", "status"},
		),
		processLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_process_duration_seconds",
				Help:      "Time spent processing one transaction",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		reversals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_reversed_total",
			Help:      "Successful transactions reversed by an administrator",
		}),
		upgradeDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "limit_upgrade_decisions_total",
				Help:      "Limit upgrade requests approved or rejected",
			},
			[]string{"status"},
		),
		outboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_messages_total",
				Help:      "Outbox messages handled by the poller, by result",
			},
			[]string{"result"},
		),
		dlqPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dlq_messages_total",
			Help:      "Transaction requests sent to the dead letter queue",
		}),
		inflightJobs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_jobs",
			Help:      "Transactions currently held by the worker pool",
		}),
	}
}

// ObserveTransaction counts a processed transaction and its latency
func (m *Metrics) ObserveTransaction(txType, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transactionsProcessed.WithLabelValues(txType, status).Inc()
	m.processLatency.WithLabelValues(txType).Observe(elapsed.Seconds())
}

func (m *Metrics) IncReversals() {
	if m == nil {
		return
	}
	m.reversals.Inc()
}

func (m *Metrics) IncUpgradeDecision(status string) {
	if m == nil {
		return
	}
	m.upgradeDecisions.WithLabelValues(status).Inc()
}

// IncOutbox counts an outbox message by result ("processed", "retry", "failed")
func (m *Metrics) IncOutbox(result string) {
	if m == nil {
		return
	}
	m.outboxPublished.WithLabelValues(result).Inc()
}

func (m *Metrics) IncDLQ() {
	if m == nil {
		return
	}
	m.dlqPublished.Inc()
}

// JobStarted and JobFinished track the worker pool depth
func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.inflightJobs.Inc()
}

func (m *Metrics) JobFinished() {
	if m == nil {
		return
	}
	m.inflightJobs.Dec()
}

// Middleware returns gin middleware recording request latency and count
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		method := c.Request.Method

		c.Next()

		path := c.FullPath() // route pattern keeps label cardinality bounded
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	}
}
