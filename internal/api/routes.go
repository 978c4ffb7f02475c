// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes assembles the middleware stack and the public API surface.
// Ordering: recoverer outermost, then request correlation, CORS, metrics,
// logging, rate limiting. The anti-leech gate applies to /api/video only.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(recoverer)
	r.Use(requestID)
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))
	r.Use(metricsMiddleware())
	r.Use(requestLogger)
	if s.cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.Limit(
			s.cfg.RateLimitPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(rateLimited),
		))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/directory", s.handleDirectory)
		r.With(s.antiLeech).Get("/video", s.handleVideo)
		r.With(s.antiLeech).Head("/video", s.handleVideo)
		r.Get("/video-url", s.handleVideoURL)
		r.Post("/login", s.handleLogin)
		r.With(s.requireSession).Get("/session", s.handleSession)
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	writeJSON(w, http.StatusTooManyRequests, map[string]string{
		"error": "Too many requests",
	})
}
