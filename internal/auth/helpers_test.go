package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/videoanalyzer/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

var testDurations = Durations{Short: 24 * time.Hour, Long: 90 * 24 * time.Hour}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestManager(t *testing.T) (*Manager, *MemoryStore, *fakeClock) {
	t.Helper()
	store := NewMemoryStore()
	clock := newFakeClock(testEpoch)
	return NewManager(store, testDurations, zerolog.Nop(), WithClock(clock)), store, clock
}

func timePtr(t time.Time) *time.Time {
	return &t
}

const testAPIKey = "test-api-key"

type testEnv struct {
	router     *gin.Engine
	manager    *Manager
	store      *MemoryStore
	clock      *fakeClock
	middleware *Middleware
}

var productionMode = ModeInfo{Mode: ModeProduction, SessionDays: 90}

// newTestEnv wires the gates and auth endpoints plus two probe routes:
// /api/strict behind RequireSession and /api/permissive behind RequireSessionOrAPIKey.
func newTestEnv(t *testing.T, mode ModeInfo) *testEnv {
	t.Helper()

	manager, store, clock := newTestManager(t)
	cfg := config.Auth{
		APIKey:           testAPIKey,
		CookieName:       DefaultCookieName,
		MaxLoginAttempts: 3,
	}
	middleware := NewMiddleware(manager, mode, cfg, zerolog.Nop())
	controller := NewAuthController(manager, middleware, mode, cfg, zerolog.Nop())
	t.Cleanup(controller.Stop)

	router := gin.New()
	require.NoError(t, ConfigureClientIP(router, mode))
	controller.RegisterRoutes(router)

	probe := func(c *gin.Context) {
		body := gin.H{"authType": GetAuthType(c)}
		if s := GetSession(c); s != nil {
			body["synthetic"] = s.Synthetic
			body["token"] = s.Token
		}
		c.JSON(http.StatusOK, body)
	}
	router.GET("/api/strict", middleware.RequireSession(), probe)
	router.GET("/api/permissive", middleware.RequireSessionOrAPIKey(), probe)
	router.GET("/api/open", middleware.Bypass(), probe)

	return &testEnv{router: router, manager: manager, store: store, clock: clock, middleware: middleware}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, opt := range opts {
		opt(req)
	}
	return e.do(req)
}

func (e *testEnv) post(path, body string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}
	return e.do(req)
}

// login performs a successful login and returns the issued token.
func (e *testEnv) login(t *testing.T, rememberMe bool) string {
	t.Helper()
	w := e.post("/api/auth/login", fmt.Sprintf(`{"apiKey":%q,"rememberMe":%t}`, testAPIKey, rememberMe))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func withCookie(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: token})
	}
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withAPIKey(key string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set(APIKeyHeader, key)
	}
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == DefaultCookieName {
			return c
		}
	}
	return nil
}
