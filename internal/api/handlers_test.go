// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"crypto/md5" // #nosec G501 -- matches the login wire format
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vodee/vodee/internal/config"
)

func testConfig(t *testing.T, mutate func(*config.AppConfig)) config.AppConfig {
	t.Helper()
	cfg := config.AppConfig{
		MediaRoot:         t.TempDir(),
		AllowedExtensions: []string{".mp4", ".mkv"},
		AntiLeech:         true,
		AllowedDomains:    []string{"example.com"},
		TokenSecret:       "test-secret",
		TokenTTL:          time.Hour,
		AdminUsername:     "admin",
		AdminPassword:     "hunter2",
		JWTSecret:         "test-jwt-secret",
		AllowedOrigins:    []string{"*"},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return cfg
}

func newTestRouter(t *testing.T, cfg config.AppConfig) http.Handler {
	t.Helper()
	srv, err := New(cfg)
	require.NoError(t, err)
	return srv.Routes()
}

func seedMedia(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "series"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "movie.mp4"), bytes.Repeat([]byte("v"), 1000), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "clip.mkv"), []byte("mkv-data"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("private"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "series", "ep1.mp4"), []byte("episode-one"), 0o600))
}

func doRequest(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDirectory_Listing(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/directory", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	items, ok := body["items"].([]any)
	require.True(t, ok, "directory response should carry items")

	var names []string
	for _, raw := range items {
		item := raw.(map[string]any)
		names = append(names, item["name"].(string))
	}
	// Directories first, then files in name order; notes.txt is filtered out.
	assert.Equal(t, []string{"series", "clip.mkv", "movie.mp4"}, names)

	first := items[0].(map[string]any)
	assert.Equal(t, "directory", first["type"])
	assert.Nil(t, first["extension"])

	last := items[2].(map[string]any)
	assert.Equal(t, "file", last["type"])
	assert.Equal(t, ".mp4", last["extension"])
	assert.Equal(t, float64(1000), last["size"])
	assert.Equal(t, "movie.mp4", last["path"])
}

func TestDirectory_Subdirectory(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/directory?path=series", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "series", body["path"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "series/ep1.mp4", items[0].(map[string]any)["path"])
}

func TestDirectory_SingleFile(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/directory?path=movie.mp4", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "file", body["type"])
	assert.Equal(t, "movie.mp4", body["name"])
}

func TestDirectory_Errors(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"traversal", "../etc", http.StatusBadRequest},
		{"encoded traversal", "%2e%2e%2fetc", http.StatusBadRequest},
		{"absolute", "/etc/passwd", http.StatusBadRequest},
		{"missing", "nope", http.StatusNotFound},
		{"filtered type", "notes.txt", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/directory?path=" + url.QueryEscape(tt.path)
			rec := doRequest(router, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestVideo_FullFile(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/video?path=movie.mp4", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	assert.Equal(t, 1000, rec.Body.Len())
}

func TestVideo_PartialContent(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/video?path=movie.mp4", nil)
	req.Header.Set("Range", "bytes=100-199")

	rec := doRequest(router, req)
	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 100-199/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "100", rec.Header().Get("Content-Length"))
	assert.Equal(t, 100, rec.Body.Len())
}

func TestVideo_RangeNotSatisfiable(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	tests := []struct {
		name   string
		header string
	}{
		{"start beyond file", "bytes=5000-"},
		{"inverted", "bytes=200-100"},
		{"suffix form", "bytes=-100"},
		{"multi-range", "bytes=0-1,5-9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/video?path=movie.mp4", nil)
			req.Header.Set("Range", tt.header)

			rec := doRequest(router, req)
			assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
			assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
		})
	}
}

func TestVideo_Head(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodHead, "/api/video?path=movie.mp4", nil)
	req.Header.Set("Range", "bytes=0-99")

	rec := doRequest(router, req)
	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("Content-Length"))
	assert.Zero(t, rec.Body.Len(), "HEAD must not carry a body")
}

func TestVideo_RefererGuard(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	tests := []struct {
		name     string
		referer  string
		wantCode int
	}{
		{"no referer", "", http.StatusOK},
		{"allowed domain", "https://example.com/watch", http.StatusOK},
		{"allowed subdomain", "https://www.example.com/watch", http.StatusOK},
		{"foreign domain", "https://leech.test/embed", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/video?path=movie.mp4", nil)
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			rec := doRequest(router, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), "Referer not allowed")
			}
		})
	}
}

func TestVideo_TokenFlow(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/video-url?path=movie.mp4", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	playbackURL, ok := body["url"].(string)
	require.True(t, ok, "video-url response should carry url")
	assert.NotZero(t, body["expiresAt"])

	rec = doRequest(router, httptest.NewRequest(http.MethodGet, playbackURL, nil))
	assert.Equal(t, http.StatusOK, rec.Code, "issued URL should grant playback")
}

func TestVideo_InvalidToken(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/video?path=movie.mp4&token=deadbeef:123", nil)
	rec := doRequest(router, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired token")
}

func TestVideo_TokenBoundToPath(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/video-url?path=clip.mkv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	issued, err := url.Parse(decodeBody(t, rec)["url"].(string))
	require.NoError(t, err)
	token := issued.Query().Get("token")
	require.NotEmpty(t, token)

	target := "/api/video?path=movie.mp4&token=" + url.QueryEscape(token)
	rec = doRequest(router, httptest.NewRequest(http.MethodGet, target, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code, "token for clip.mkv must not unlock movie.mp4")
}

func TestVideo_TokenRequired(t *testing.T) {
	cfg := testConfig(t, func(c *config.AppConfig) { c.RequireToken = true })
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/video?path=movie.mp4", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token required")
}

func TestVideo_AntiLeechDisabled(t *testing.T) {
	cfg := testConfig(t, func(c *config.AppConfig) { c.AntiLeech = false })
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/video?path=movie.mp4", nil)
	req.Header.Set("Referer", "https://leech.test/embed")
	rec := doRequest(router, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVideo_ConcurrentRanges(t *testing.T) {
	cfg := testConfig(t, nil)
	seedMedia(t, cfg.MediaRoot)
	router := newTestRouter(t, cfg)

	content := bytes.Repeat([]byte("v"), 1000)
	windows := [][2]int{{0, 99}, {100, 299}, {300, 999}, {500, 599}}

	var wg sync.WaitGroup
	for _, win := range windows {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/api/video?path=movie.mp4", nil)
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

			rec := doRequest(router, req)
			assert.Equal(t, http.StatusPartialContent, rec.Code)
			assert.Equal(t, content[start:end+1], rec.Body.Bytes())
		}(win[0], win[1])
	}
	wg.Wait()
}

func TestLogin(t *testing.T) {
	cfg := testConfig(t, nil)
	router := newTestRouter(t, cfg)

	digest := md5.Sum([]byte("hunter2")) // #nosec G401
	goodPassword := hex.EncodeToString(digest[:])

	tests := []struct {
		name        string
		payload     string
		wantCode    int
		wantSuccess bool
	}{
		{"valid credentials", fmt.Sprintf(`{"data":{"username":"admin","password":"%s"}}`, goodPassword), http.StatusOK, true},
		{"wrong password", `{"data":{"username":"admin","password":"0123456789abcdef0123456789abcdef"}}`, http.StatusUnauthorized, false},
		{"missing fields", `{"data":{"username":"admin"}}`, http.StatusBadRequest, false},
		{"malformed body", `{not json`, http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.payload))
			req.Header.Set("Content-Type", "application/json")

			rec := doRequest(router, req)
			require.Equal(t, tt.wantCode, rec.Code)

			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantSuccess, body["success"])
			if tt.wantSuccess {
				assert.NotEmpty(t, body["token"])
			}
		})
	}
}

func TestSession(t *testing.T) {
	cfg := testConfig(t, nil)
	router := newTestRouter(t, cfg)

	digest := md5.Sum([]byte("hunter2")) // #nosec G401
	payload := fmt.Sprintf(`{"data":{"username":"admin","password":"%s"}}`, hex.EncodeToString(digest[:]))
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(payload))
	rec := doRequest(router, req)
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeBody(t, rec)["token"].(string)

	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(router, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", decodeBody(t, rec)["username"])

	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec = doRequest(router, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec = doRequest(router, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, testConfig(t, nil))

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestCORS(t *testing.T) {
	cfg := testConfig(t, func(c *config.AppConfig) {
		c.AllowedOrigins = []string{"https://app.example.com"}
	})
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/directory", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := doRequest(router, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://leech.test")
	rec = doRequest(router, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	router := newTestRouter(t, testConfig(t, nil))

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), "a request ID should be generated")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	rec = doRequest(router, req)
	assert.Equal(t, "caller-supplied", rec.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t, func(c *config.AppConfig) { c.RateLimitPerMinute = 3 })
	router := newTestRouter(t, cfg)

	var lastCode int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		lastCode = doRequest(router, req).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}
