package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// Store
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Check-in engine
	CheckinsTotal  *prometheus.CounterVec
	ActiveCheckins prometheus.Gauge

	// Alert deliveries (engine fan-out and worker)
	AlertsTotal *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "safecheck",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "safecheck",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// Sane initial defaults
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "safecheck",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "safecheck",
				Subsystem: "store",
				Name:      "op_duration_seconds",
				Help:      "Store operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "safecheck",
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Store errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		CheckinsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "safecheck",
				Subsystem: "checkin",
				Name:      "episodes_total",
				Help:      "Check-in episodes by outcome.",
			},
			[]string{"outcome"}, // outcome=cancelled|triggered
		),
		ActiveCheckins: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "safecheck",
				Subsystem: "checkin",
				Name:      "active",
				Help:      "Currently armed check-in sessions.",
			},
		),
		AlertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "safecheck",
				Subsystem: "alerts",
				Name:      "deliveries_total",
				Help:      "Alert delivery attempts by result.",
			},
			[]string{"result"}, // result=sent|failed
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.CheckinsTotal, p.ActiveCheckins, p.AlertsTotal)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
