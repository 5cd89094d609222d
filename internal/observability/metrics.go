package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	InFlight         prometheus.Gauge
	BookingConflicts prometheus.Counter
	RateLimited      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clinicbook",
				Subsystem: "grpc",
				Name:      "requests_total",
				Help:      "Total RPCs handled, by method and status code.",
			},
			[]string{"method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "clinicbook",
				Subsystem: "grpc",
				Name:      "request_duration_seconds",
				Help:      "RPC latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method"},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "clinicbook",
				Subsystem: "grpc",
				Name:      "in_flight_requests",
				Help:      "Current number of in-flight RPCs.",
			},
		),
		BookingConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "clinicbook",
				Subsystem: "bookings",
				Name:      "conflicts_total",
				Help:      "Create or update attempts refused because the slot was taken.",
			},
		),
		RateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clinicbook",
				Subsystem: "grpc",
				Name:      "rate_limited_total",
				Help:      "RPCs rejected by the per-peer rate limiter.",
			},
			[]string{"method"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.InFlight, m.BookingConflicts, m.RateLimited)
	return m
}

func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		resp, err := handler(ctx, req)

		m.RequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		m.RequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		return resp, err
	}
}
