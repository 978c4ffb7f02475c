// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vodee/vodee/internal/fsutil"
	"github.com/vodee/vodee/internal/log"
	"github.com/vodee/vodee/internal/media"
)

type ctxKey string

const usernameKey ctxKey = "username"

func withUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

func usernameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(usernameKey).(string); ok {
		return v
	}
	return ""
}

// decodeJSONBody decodes a request body into v, capping the body size.
func decodeJSONBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(v)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorMsg writes an error response with a short message. No raw
// filesystem or parser detail reaches the client.
func writeErrorMsg(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeMediaError maps the core error taxonomy onto HTTP statuses.
func writeMediaError(ctx context.Context, w http.ResponseWriter, err error) {
	var rangeErr *media.RangeError

	switch {
	case errors.Is(err, fsutil.ErrInvalidPath):
		recordMediaRequestDenied("invalid_path")
		writeErrorMsg(w, http.StatusBadRequest, "Invalid path")
	case errors.Is(err, media.ErrTypeNotAllowed):
		recordMediaRequestDenied("type_not_allowed")
		writeErrorMsg(w, http.StatusBadRequest, "File type not allowed")
	case errors.Is(err, media.ErrNotFound):
		recordMediaRequestDenied("not_found")
		writeErrorMsg(w, http.StatusNotFound, "Not found")
	case errors.As(err, &rangeErr):
		recordMediaRequestDenied("range_not_satisfiable")
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", rangeErr.Size))
		writeErrorMsg(w, http.StatusRequestedRangeNotSatisfiable, "Range not satisfiable")
	default:
		logger := log.WithComponentFromContext(ctx, "api")
		logger.Error().
			Err(err).
			Str("event", "request.internal_error").
			Msg("unexpected error")
		recordMediaRequestDenied("internal_error")
		writeErrorMsg(w, http.StatusInternalServerError, "Internal server error")
	}
}
