// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vodee/vodee/internal/fsutil"
	"github.com/vodee/vodee/internal/log"
	"github.com/vodee/vodee/internal/media"
)

// handleDirectory serves file metadata or a filtered directory listing.
func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")
	if fsutil.IsTraversalAttempt(rel) {
		recordMediaRequestDenied("path_escape")
		writeErrorMsg(w, http.StatusBadRequest, "Invalid path")
		return
	}

	result, err := s.lister.List(rel)
	if err != nil {
		writeMediaError(r.Context(), w, err)
		return
	}

	if result.File != nil {
		writeJSON(w, http.StatusOK, result.File)
		return
	}
	writeJSON(w, http.StatusOK, result.Directory)
}

// handleVideo streams a media file, honoring single byte-range requests.
// The anti-leech gate has already run by the time this handler is reached.
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "streamer")

	rel := r.URL.Query().Get("path")
	if fsutil.IsTraversalAttempt(rel) {
		recordMediaRequestDenied("path_escape")
		writeErrorMsg(w, http.StatusBadRequest, "Invalid path")
		return
	}

	src, err := s.streamer.Open(rel)
	if err != nil {
		writeMediaError(r.Context(), w, err)
		return
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn().Err(err).Str("path", rel).Msg("failed to close media file")
		}
	}()

	win, err := media.ParseRange(r.Header.Get("Range"), src.Size)
	if err != nil {
		writeMediaError(r.Context(), w, err)
		return
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", src.ContentType)

	status := http.StatusOK
	if win != nil {
		status = http.StatusPartialContent
		w.Header().Set("Content-Range", win.ContentRange())
	} else {
		full := media.RangeWindow{Start: 0, End: src.Size - 1, Size: src.Size}
		win = &full
	}
	w.Header().Set("Content-Length", strconv.FormatInt(win.Length(), 10))
	w.WriteHeader(status)

	recordMediaRequestAllowed()

	if r.Method == http.MethodHead {
		return
	}

	written, err := media.Copy(r.Context(), w, src, *win)
	recordMediaBytesSent(written)
	if err != nil {
		// Headers are already on the wire; the transfer is simply abandoned
		// and the client observes a truncated response.
		if errors.Is(err, context.Canceled) {
			logger.Debug().
				Str("path", rel).
				Int64("written", written).
				Msg("client disconnected mid-stream")
			return
		}
		logger.Warn().
			Err(err).
			Str("event", "stream.aborted").
			Str("path", rel).
			Int64("written", written).
			Int64("expected", win.Length()).
			Msg("stream aborted")
	}
}

// handleVideoURL issues a fresh anti-leech token and returns a playback URL
// embedding it.
func (s *Server) handleVideoURL(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")
	token := s.tokens.Issue(rel)
	recordTokenIssued()

	writeJSON(w, http.StatusOK, map[string]any{
		"url":       fmt.Sprintf("/api/video?path=%s&token=%s", url.QueryEscape(rel), token.String()),
		"expiresAt": token.ExpiresAt,
	})
}

type loginRequest struct {
	Data struct {
		Username string `json:"username"`
		Password string `json:"password"` // md5 hex digest
	} `json:"data"`
}

// handleLogin validates admin credentials and returns a session JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}
	if req.Data.Username == "" || req.Data.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Username and password are required",
		})
		return
	}

	if !s.sessions.CheckCredentials(req.Data.Username, req.Data.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Invalid credentials",
		})
		return
	}

	token, err := s.sessions.IssueSession(req.Data.Username)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "session")
		logger.Error().
			Err(err).
			Msg("failed to sign session token")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Internal server error during login",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"message": "Login successful",
	})
}

// handleSession reports the authenticated admin identity.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"username": usernameFromContext(r.Context()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
