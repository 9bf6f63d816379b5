// Package metrics holds the Prometheus collectors of the daemon.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScansTotal counts completed watchlist scans by trigger
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilesentinel_scans_total",
		Help: "Completed watchlist scans by trigger",
	}, []string{"trigger"})

	// ScanDuration tracks wall time of a full scan
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "profilesentinel_scan_duration_seconds",
		Help:    "Watchlist scan duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	// SymbolFailures counts symbols that produced an error during a scan
	SymbolFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "profilesentinel_scan_symbol_failures_total",
		Help: "Symbols that failed during a scan",
	})

	// FetchDuration tracks market data latency by source and outcome
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "profilesentinel_fetch_duration_seconds",
		Help:    "Market data fetch duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"source", "outcome"})

	// AlertsFired counts price alerts and level crosses by kind
	AlertsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilesentinel_alerts_fired_total",
		Help: "Alerts fired by kind",
	}, []string{"kind"})

	// NotificationsSent counts Telegram deliveries by outcome
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilesentinel_notifications_total",
		Help: "Notifications sent by outcome",
	}, []string{"outcome"})
)

// Outcome maps an error to the "ok"/"error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveFetch records one fetch that started at start.
func ObserveFetch(source string, start time.Time, err error) {
	FetchDuration.WithLabelValues(source, Outcome(err)).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
