package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the engine:
// HTTP request metrics plus domain counters for admissions, access checks
// and attendance writes.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	admissionsTotal  *prometheus.CounterVec
	accessChecks     *prometheus.CounterVec
	attendanceWrites prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	admissionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admissions_total",
		Help: "Admission attempts by outcome",
	}, []string{"outcome"})

	accessChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "access_checks_total",
		Help: "Access checks by modality and outcome",
	}, []string{"modality", "outcome"})

	attendanceWrites := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attendance_writes_total",
		Help: "Total attendance records written",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses,
		admissionsTotal, accessChecks, attendanceWrites, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLatency:     cacheLatency,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		admissionsTotal:  admissionsTotal,
		accessChecks:     accessChecks,
		attendanceWrites: attendanceWrites,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordAdmission counts an admission attempt by outcome.
func (m *MetricsService) RecordAdmission(outcome string) {
	if m == nil {
		return
	}
	m.admissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordAccessCheck counts an access check by modality and outcome.
func (m *MetricsService) RecordAccessCheck(modality, outcome string) {
	if m == nil {
		return
	}
	m.accessChecks.WithLabelValues(modality, outcome).Inc()
}

// RecordAttendanceWrite counts a persisted attendance record.
func (m *MetricsService) RecordAttendanceWrite() {
	if m == nil {
		return
	}
	m.attendanceWrites.Inc()
}
