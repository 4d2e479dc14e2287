// Copyright 2026 The NexusDB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics wires the engine's Prometheus instrumentation:
// query operators, grouped commit, secondary indexes, live queries
// and permission checks.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "nexusdb"
)

// Metrics holds every Prometheus metric the core's components emit.
type Metrics struct {
	// Operator metrics.
	OperatorRowsEmitted    *prometheus.CounterVec
	OperatorBatchesEmitted *prometheus.CounterVec
	OperatorDuration       *prometheus.HistogramVec

	// Grouped-commit metrics.
	GroupCommitBatchSize *prometheus.HistogramVec
	GroupCommitLatency   *prometheus.HistogramVec
	GroupCommitTotal      prometheus.Counter

	// KVS/storage metrics.
	StorageOperationDuration *prometheus.HistogramVec
	StorageOperationTotal    *prometheus.CounterVec
	StorageOperationErrors   *prometheus.CounterVec
	TxConflictsTotal         prometheus.Counter

	// Catalog/MVCC metrics.
	CurrentRevision  prometheus.Gauge
	KeysTotal        prometheus.Gauge
	DeletesTotal     prometheus.Counter
	CompactionsTotal prometheus.Counter

	// Secondary-index metrics.
	FullTextPostingsTotal prometheus.Gauge
	HNSWElementsTotal     *prometheus.GaugeVec
	HNSWSearchDuration    *prometheus.HistogramVec

	// Live-query / change-feed metrics.
	LiveQueriesActive       prometheus.Gauge
	LiveQueryNotifications  *prometheus.CounterVec
	ChangeFeedEntriesTotal  prometheus.Counter

	// Permission-check metrics.
	PermissionChecksTotal *prometheus.CounterVec

	// Panic recovery metrics.
	PanicsRecovered *prometheus.CounterVec
}

// New creates and registers every metric against registry.
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		OperatorRowsEmitted: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "operator",
				Name: "rows_emitted_total", Help: "Total rows emitted per operator kind.",
			}, []string{"operator"},
		),
		OperatorBatchesEmitted: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "operator",
				Name: "batches_emitted_total", Help: "Total batches emitted per operator kind.",
			}, []string{"operator"},
		),
		OperatorDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: "operator",
				Name: "execute_duration_seconds", Help: "Operator execute() latency.",
				Buckets: prometheus.DefBuckets,
			}, []string{"operator"},
		),

		GroupCommitBatchSize: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: "group_commit",
				Name: "batch_size", Help: "Number of transactions folded into one grouped commit.",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
			}, []string{},
		),
		GroupCommitLatency: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: "group_commit",
				Name: "latency_seconds", Help: "Time from buffering to durability sync.",
				Buckets: prometheus.DefBuckets,
			}, []string{},
		),
		GroupCommitTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "group_commit",
				Name: "batches_total", Help: "Total grouped-commit batches flushed.",
			},
		),

		StorageOperationDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: "storage",
				Name: "operation_duration_seconds", Help: "KVS operation latency.",
				Buckets: prometheus.DefBuckets,
			}, []string{"operation", "status"},
		),
		StorageOperationTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "storage",
				Name: "operation_total", Help: "Total KVS operations.",
			}, []string{"operation"},
		),
		StorageOperationErrors: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "storage",
				Name: "operation_errors_total", Help: "Total KVS operation errors.",
			}, []string{"operation", "error"},
		),
		TxConflictsTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "storage",
				Name: "tx_conflicts_total", Help: "Total optimistic commit conflicts.",
			},
		),

		CurrentRevision: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace, Subsystem: "mvcc",
				Name: "current_revision", Help: "Current MVCC revision.",
			},
		),
		KeysTotal: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace, Subsystem: "mvcc",
				Name: "keys_total", Help: "Total keys in the store.",
			},
		),
		DeletesTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "mvcc",
				Name: "deletes_total", Help: "Total key deletions.",
			},
		),
		CompactionsTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "mvcc",
				Name: "compactions_total", Help: "Total compactions run.",
			},
		),

		FullTextPostingsTotal: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace, Subsystem: "fulltext",
				Name: "postings_total", Help: "Total term-document postings across all indexes.",
			},
		),
		HNSWElementsTotal: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace, Subsystem: "hnsw",
				Name: "elements_total", Help: "Total elements per HNSW index.",
			}, []string{"index"},
		),
		HNSWSearchDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: "hnsw",
				Name: "search_duration_seconds", Help: "Top-k search latency.",
				Buckets: prometheus.DefBuckets,
			}, []string{"index"},
		),

		LiveQueriesActive: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace, Subsystem: "livequery",
				Name: "active_total", Help: "Currently registered live queries.",
			},
		),
		LiveQueryNotifications: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "livequery",
				Name: "notifications_total", Help: "Total notifications emitted.",
			}, []string{"action"},
		),
		ChangeFeedEntriesTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "changefeed",
				Name: "entries_total", Help: "Total change-feed entries appended.",
			},
		),

		PermissionChecksTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "permission",
				Name: "checks_total", Help: "Total per-row permission checks.",
			}, []string{"result"},
		),

		PanicsRecovered: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: "runtime",
				Name: "panics_recovered_total", Help: "Total panics recovered.",
			}, []string{"component"},
		),
	}
}

// RecordOperator records one operator execute() call's outcome.
func (m *Metrics) RecordOperator(name string, rows, batches int, d time.Duration) {
	m.OperatorRowsEmitted.WithLabelValues(name).Add(float64(rows))
	m.OperatorBatchesEmitted.WithLabelValues(name).Add(float64(batches))
	m.OperatorDuration.WithLabelValues(name).Observe(d.Seconds())
}

// RecordGroupCommit records one grouped-commit batch flush.
func (m *Metrics) RecordGroupCommit(size int, d time.Duration) {
	m.GroupCommitBatchSize.WithLabelValues().Observe(float64(size))
	m.GroupCommitLatency.WithLabelValues().Observe(d.Seconds())
	m.GroupCommitTotal.Inc()
}

// RecordStorageOperation records a KVS operation's duration and status.
func (m *Metrics) RecordStorageOperation(operation, status string, duration time.Duration) {
	m.StorageOperationDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
	m.StorageOperationTotal.WithLabelValues(operation).Inc()
}

// RecordStorageError records a KVS operation error.
func (m *Metrics) RecordStorageError(operation, errorType string) {
	m.StorageOperationErrors.WithLabelValues(operation, errorType).Inc()
}

// RecordPermissionCheck records a per-row permission decision.
func (m *Metrics) RecordPermissionCheck(allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	m.PermissionChecksTotal.WithLabelValues(result).Inc()
}

// RecordLiveQueryNotification records one emitted notification.
func (m *Metrics) RecordLiveQueryNotification(action string) {
	m.LiveQueryNotifications.WithLabelValues(action).Inc()
}

// RecordPanicRecovered records a recovered panic.
func (m *Metrics) RecordPanicRecovered(component string) {
	m.PanicsRecovered.WithLabelValues(component).Inc()
}
