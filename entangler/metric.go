package entangler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entangler_request_total",
		Help: "Total executed requests by instruction and result code",
	}, []string{"instruction", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "entangler_request_duration_seconds",
		Help:    "Request execution duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	}, []string{"instruction"})

	queryCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entangler_query_cache_total",
		Help: "Record cache lookups by result",
	}, []string{"result"})
)

func observeRequest(instruction string, err error, d time.Duration) {
	code := "ok"
	switch c := ErrorCode(err); {
	case err == nil:
	case c != 0:
		code = c.String()
	default:
		code = "internal"
	}
	requestTotal.WithLabelValues(instruction, code).Inc()
	requestDuration.WithLabelValues(instruction).Observe(d.Seconds())
}
