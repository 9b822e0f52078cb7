// Package metrics exposes check-in counters to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"comedor-backend/internal/models"
)

// Recorder implements checkin.Observer on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	scans         *prometheus.CounterVec
	registrations *prometheus.CounterVec
	auditFailures prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		scans: f.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_scans_total",
			Help: "Scans received by stations, by result.",
		}, []string{"result"}),
		registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_registrations_total",
			Help: "Meal registrations attempted, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		auditFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "checkin_audit_write_failures_total",
			Help: "Audit entries whose synchronous write failed and were queued.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "comedor_http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "comedor_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (r *Recorder) ObserveScan(result string) {
	r.scans.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveRegistration(kind models.AuditKind, outcome string) {
	r.registrations.WithLabelValues(string(kind), outcome).Inc()
}

func (r *Recorder) ObserveAuditFailure() {
	r.auditFailures.Inc()
}

// TrackOutbox publishes the audit outbox depth as a gauge.
func (r *Recorder) TrackOutbox(pending func() int) {
	promauto.With(r.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "checkin_audit_outbox_pending",
		Help: "Audit entries waiting for a retry.",
	}, func() float64 { return float64(pending()) })
}

// Middleware counts requests per route template so path parameters do not
// blow up label cardinality.
func (r *Recorder) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		r.httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
}
