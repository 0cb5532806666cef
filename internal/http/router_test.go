package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/videoanalyzer/internal/auth"
	"github.com/mrlokans/videoanalyzer/internal/logging"
)

func (s *testServer) anonymous(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestRouter_ProtectedRoutesRequireCredentials(t *testing.T) {
	s := newTestServer(t, auth.ModeProduction)

	for _, path := range []string{"/api/videos", "/api/tags", "/api/video/1"} {
		w := s.anonymous(http.MethodGet, path)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.Header.Set(auth.APIKeyHeader, "wrong")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_SessionTokenGrantsAccess(t *testing.T) {
	s := newTestServer(t, auth.ModeProduction)

	login := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"apiKey":"`+testAPIKey+`"}`))
	login.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, login)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_DevelopmentBypass(t *testing.T) {
	s := newTestServer(t, auth.ModeDevelopment)

	w := s.anonymous(http.MethodGet, "/api/videos")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.anonymous(http.MethodGet, "/api/auth/verify")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	s := newTestServer(t, auth.ModeProduction)

	w := s.anonymous(http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = s.anonymous(http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.anonymous(http.MethodGet, "/api/auth/mode")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"production"`)
}

func TestRouter_Pages(t *testing.T) {
	s := newTestServer(t, auth.ModeProduction)

	pages := map[string]string{
		"/":         "index.html",
		"/login":    "login.html",
		"/video":    "video.html",
		"/video/42": "video.html",
		"/settings": "settings.html",
	}
	for path, file := range pages {
		w := s.anonymous(http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), file, path)
	}
}

func TestRouter_LegacyPageRedirects(t *testing.T) {
	s := newTestServer(t, auth.ModeProduction)

	tests := map[string]string{
		"/index.html":       "/",
		"/login.html":       "/login",
		"/settings.html":    "/settings",
		"/video.html?id=12": "/video?id=12",
	}
	for path, location := range tests {
		w := s.anonymous(http.MethodGet, path)
		assert.Equal(t, http.StatusMovedPermanently, w.Code, path)
		assert.Equal(t, location, w.Header().Get("Location"), path)
	}
}

func TestRouter_StaticAssetsAndNotFound(t *testing.T) {
	s := newTestServer(t, auth.ModeProduction)

	w := s.anonymous(http.MethodGet, "/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")

	w = s.anonymous(http.MethodGet, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())

	w = s.anonymous(http.MethodGet, "/missing.css")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CommonHeaders(t *testing.T) {
	s := newTestServer(t, auth.ModeProduction)

	w := s.anonymous(http.MethodGet, "/api/health")
	assert.NotEmpty(t, w.Header().Get(logging.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(logging.RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(logging.RequestIDHeader))
}

func TestRouter_LoginThrottleIgnoresForwardedFor(t *testing.T) {
	s := newTestServer(t, auth.ModeProduction)

	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"apiKey":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i+1))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		last = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}
