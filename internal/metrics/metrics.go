// Package metrics collects service metrics. Services depend on the Collector
// interface; NoopCollector is used when metrics are disabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector defines the interface for collecting wallet and purchase metrics
type Collector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordError(operation, errType string)
	RecordTransaction(txType string, amount float64)
	RecordRetry(operation string)
}

// NoopCollector is a no-op implementation of Collector
type NoopCollector struct{}

func (n *NoopCollector) RecordOperationDuration(string, time.Duration) {}
func (n *NoopCollector) RecordOperationResult(string, string)          {}
func (n *NoopCollector) RecordError(string, string)                    {}
func (n *NoopCollector) RecordTransaction(string, float64)             {}
func (n *NoopCollector) RecordRetry(string)                            {}

// PrometheusCollector exports Collector data as prometheus series.
type PrometheusCollector struct {
	OperationDuration *prometheus.HistogramVec
	OperationResults  *prometheus.CounterVec
	Errors            *prometheus.CounterVec
	Transactions      *prometheus.CounterVec
	TransactionVolume *prometheus.CounterVec
	Retries           *prometheus.CounterVec
}

// NewPrometheusCollector registers the series on reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)
	return &PrometheusCollector{
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vipwallet_operation_duration_seconds",
				Help:    "Duration of wallet and purchase operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		OperationResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vipwallet_operation_results_total",
				Help: "Operation outcomes by result class",
			},
			[]string{"operation", "result"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vipwallet_errors_total",
				Help: "Storage and infrastructure errors",
			},
			[]string{"operation", "type"},
		),
		Transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vipwallet_ledger_entries_total",
				Help: "Committed ledger entries by type",
			},
			[]string{"type"},
		),
		TransactionVolume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vipwallet_ledger_volume_total",
				Help: "Committed ledger amounts by type",
			},
			[]string{"type"},
		),
		Retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vipwallet_conflict_retries_total",
				Help: "Units of work retried after a storage conflict",
			},
			[]string{"operation"},
		),
	}
}

func (c *PrometheusCollector) RecordOperationDuration(operation string, duration time.Duration) {
	c.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordOperationResult(operation, result string) {
	c.OperationResults.WithLabelValues(operation, result).Inc()
}

func (c *PrometheusCollector) RecordError(operation, errType string) {
	c.Errors.WithLabelValues(operation, errType).Inc()
}

func (c *PrometheusCollector) RecordTransaction(txType string, amount float64) {
	c.Transactions.WithLabelValues(txType).Inc()
	c.TransactionVolume.WithLabelValues(txType).Add(amount)
}

func (c *PrometheusCollector) RecordRetry(operation string) {
	c.Retries.WithLabelValues(operation).Inc()
}
