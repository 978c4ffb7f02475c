// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vodee_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vodee_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	mediaRequestsDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodee_media_requests_denied_total",
		Help: "Number of media requests denied, by reason",
	}, []string{"reason"})

	mediaRequestsAllowedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vodee_media_requests_allowed_total",
		Help: "Number of media requests served",
	})

	mediaBytesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vodee_media_bytes_sent_total",
		Help: "Total media payload bytes written to clients",
	})

	tokensIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vodee_tokens_issued_total",
		Help: "Number of anti-leech tokens issued",
	})
)

func recordMediaRequestAllowed() {
	mediaRequestsAllowedTotal.Inc()
}

func recordMediaRequestDenied(reason string) {
	mediaRequestsDeniedTotal.WithLabelValues(reason).Inc()
}

func recordMediaBytesSent(n int64) {
	if n > 0 {
		mediaBytesSentTotal.Add(float64(n))
	}
}

func recordTokenIssued() {
	tokensIssuedTotal.Inc()
}

// metricsMiddleware records request duration and in-flight gauges. Paths are
// labelled by chi route pattern to keep cardinality bounded.
func metricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			httpRequestDuration.
				WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).
				Observe(time.Since(start).Seconds())
		})
	}
}
