// Package metrics exposes Prometheus collectors for the screenshot
// service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	captureAttemptsTotal       *prometheus.CounterVec
	captureDurationSeconds     *prometheus.HistogramVec
	uploadsTotal               *prometheus.CounterVec
	uploadBytesTotal           *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call repeatedly.
func Init() {
	once.Do(func() {
		captureAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screenshot_capture_attempts_total",
				Help: "Capture attempts, labeled by proxy tier and outcome.",
			},
			[]string{"tier", "outcome"},
		)

		captureDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "screenshot_capture_duration_seconds",
				Help:    "Capture provider latency, labeled by proxy tier.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"tier"},
		)

		uploadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screenshot_uploads_total",
				Help: "Storage uploads, labeled by backend and outcome.",
			},
			[]string{"backend", "outcome"},
		)

		uploadBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screenshot_upload_bytes_total",
				Help: "Total image bytes written, labeled by backend.",
			},
			[]string{"backend"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)
	})
}

// ObserveCapture records one capture attempt against a proxy tier.
func ObserveCapture(tier string, ok bool, d time.Duration) {
	if captureAttemptsTotal == nil {
		return
	}
	captureAttemptsTotal.WithLabelValues(tier, outcome(ok)).Inc()
	captureDurationSeconds.WithLabelValues(tier).Observe(d.Seconds())
}

// ObserveUpload records one storage upload.
func ObserveUpload(backend string, ok bool, bytes int) {
	if uploadsTotal == nil {
		return
	}
	uploadsTotal.WithLabelValues(backend, outcome(ok)).Inc()
	if ok {
		uploadBytesTotal.WithLabelValues(backend).Add(float64(bytes))
	}
}

// ObserveHTTPRequest records one inbound API request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
