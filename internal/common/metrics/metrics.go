// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScanRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_scan_runs_total",
			Help: "Total number of scan passes started, by trigger",
		},
		[]string{"trigger"},
	)

	ScanOverlapsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_scan_overlaps_rejected_total",
			Help: "Total number of scan triggers rejected because a pass was in flight",
		},
	)

	ProductsChecked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_products_checked_total",
			Help: "Total number of products evaluated against their reorder point",
		},
	)

	LowStockDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_low_stock_detected_total",
			Help: "Total number of products found at or below reorder point",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_notifications_sent_total",
			Help: "Total number of low-stock notifications created, by urgency",
		},
		[]string{"urgency"},
	)

	NotificationsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_notifications_suppressed_total",
			Help: "Total number of dispatches suppressed by the cooldown window",
		},
	)

	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_delivery_failures_total",
			Help: "Total number of per-recipient delivery failures, by channel",
		},
		[]string{"channel"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "stock_scan_duration_seconds",
			Help: "Duration of a full scan-and-notify pass in seconds",
		},
	)
)
