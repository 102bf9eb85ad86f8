package rpc

import (
	"context"
	"path"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// #region metrics
// Metrics are the service's prometheus collectors.
type Metrics struct {
	Requests  *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
	Quantized prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "softfloat_rpc_requests_total",
				Help: "Total number of evaluation service requests",
			},
			[]string{"method", "code"},
		),
		Duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "softfloat_rpc_duration_seconds",
				Help:    "Latency of evaluation service requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		Quantized: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "softfloat_quantized_values_total",
				Help: "Total number of values quantized through the service",
			},
		),
	}
}

// UnaryInterceptor counts and times every unary call by method and code.
func (m *Metrics) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		method := path.Base(info.FullMethod)
		m.Duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		m.Requests.WithLabelValues(method, status.Code(err).String()).Inc()
		return resp, err
	}
}

// #endregion metrics
