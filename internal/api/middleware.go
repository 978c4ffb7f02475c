// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"runtime"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/vodee/vodee/internal/log"
)

const headerRequestID = "X-Request-ID"

// recoverer ensures panics in downstream handlers do not crash the process.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				buf := make([]byte, 8192)
				n := runtime.Stack(buf, false)

				logger := log.WithComponentFromContext(r.Context(), "panic-recovery")
				logger.Error().
					Str("event", "panic.recovered").
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Interface("panic_value", rec).
					Str("stack_trace", string(buf[:n])).
					Msg("panic recovered in HTTP handler")

				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "Internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestID adds a unique ID to every request for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set(headerRequestID, reqID)
		ctx := log.ContextWithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware sets Cross-Origin Resource Sharing headers against a strict
// allowed origins list. "*" in the configuration allows all origins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	allowAll := allowed["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if allowAll || allowed[origin] {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Range, Accept-Ranges, Content-Length, X-Request-ID")

			vary := w.Header().Get("Vary")
			if !strings.Contains(vary, "Origin") {
				if vary != "" {
					vary += ", "
				}
				w.Header().Set("Vary", vary+"Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger emits one structured log line per request with latency and
// response status.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger := log.WithComponentFromContext(r.Context(), "http")
		logger.Info().
			Str("event", "request").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("handled request")
	})
}

// antiLeech is the access gate in front of the playback endpoint. Order of
// checks: referer guard first, then token validation when a token is present
// (or always, when token possession is required by configuration).
func (s *Server) antiLeech(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "anti-leech")

		if !s.referer.IsAllowed(r.Header.Get("Referer")) {
			logger.Warn().
				Str("event", "leech.denied").
				Str("referer", r.Header.Get("Referer")).
				Str("remote_addr", r.RemoteAddr).
				Msg("referer not allowed")
			recordMediaRequestDenied("referer_rejected")
			writeErrorMsg(w, http.StatusForbidden, "Access denied: Referer not allowed")
			return
		}

		rel := r.URL.Query().Get("path")
		token := r.URL.Query().Get("token")

		if token == "" && s.cfg.RequireToken {
			logger.Warn().
				Str("event", "leech.denied").
				Str("path", rel).
				Msg("token required but missing")
			recordMediaRequestDenied("token_missing")
			writeErrorMsg(w, http.StatusForbidden, "Access denied: Token required")
			return
		}
		if token != "" && !s.tokens.Validate(rel, token) {
			logger.Warn().
				Str("event", "leech.denied").
				Str("path", rel).
				Msg("invalid or expired token")
			recordMediaRequestDenied("token_invalid")
			writeErrorMsg(w, http.StatusForbidden, "Access denied: Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireSession guards non-public routes with the admin JWT.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeErrorMsg(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}
		username, err := s.sessions.VerifySession(strings.TrimSpace(authHeader[7:]))
		if err != nil {
			logger := log.WithComponentFromContext(r.Context(), "session")
			logger.Warn().
				Err(err).
				Msg("session verification failed")
			writeErrorMsg(w, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUsername(r.Context(), username)))
	})
}
