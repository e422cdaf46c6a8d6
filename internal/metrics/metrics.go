// Package metrics provides Prometheus metrics for shop floor scans.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scan metrics
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfloor_scans_total",
			Help: "Total number of scans by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopfloor_scan_duration_seconds",
			Help:    "Time taken to apply a scan, including its transaction",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Part lifecycle metrics
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfloor_part_transitions_total",
			Help: "Total number of part status transitions",
		},
		[]string{"from", "to"},
	)

	// Slot allocation metrics
	AllocationWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopfloor_rack_lock_wait_seconds",
			Help:    "Time a sort scan waited for the rack locks",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	SlotsAssigned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfloor_slots_assigned_total",
			Help: "Total number of storage slots assigned, by rack",
		},
		[]string{"rack"},
	)

	// Notification metrics
	LiveSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shopfloor_live_subscribers",
			Help: "Number of connected live event stream clients",
		},
	)

	LiveEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopfloor_live_events_dropped_total",
			Help: "Events skipped for live stream clients that fell behind",
		},
	)
)

// RecordScan records the outcome and duration of one scan.
func RecordScan(operation, outcome string, duration time.Duration) {
	ScansTotal.WithLabelValues(operation, outcome).Inc()
	ScanDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTransition records one part status transition.
func RecordTransition(from, to string) {
	TransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordSlot records a slot assignment and how long the scan waited for rack locks.
func RecordSlot(rack string, wait time.Duration) {
	SlotsAssigned.WithLabelValues(rack).Inc()
	AllocationWait.Observe(wait.Seconds())
}
