package auth

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// FlyClientIPHeader carries the original client address on the managed platform.
const FlyClientIPHeader = "Fly-Client-IP"

// ConfigureClientIP decides where c.ClientIP() comes from. Forwarding headers
// sent by the caller are never trusted; on a managed deployment the address
// set by the platform edge is used instead.
func ConfigureClientIP(engine *gin.Engine, mode ModeInfo) error {
	if mode.ManagedDeployment {
		engine.TrustedPlatform = FlyClientIPHeader
	}
	return engine.SetTrustedProxies(nil)
}

// LoginThrottle limits failed login attempts per client address.
// After MaxAttempts failures inside Window the address is locked out.
type LoginThrottle struct {
	mu              sync.Mutex
	attempts        map[string]*attemptRecord
	maxAttempts     int
	window          time.Duration
	lockout         time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	stop            chan struct{}
	stopOnce        sync.Once
}

type attemptRecord struct {
	failures     int
	firstFailure time.Time
	lockedUntil  time.Time
}

// ThrottleConfig configures a LoginThrottle. Zero values fall back to defaults.
type ThrottleConfig struct {
	MaxAttempts     int
	Window          time.Duration
	Lockout         time.Duration
	CleanupInterval time.Duration
}

// NewLoginThrottle starts a throttle with a background cleanup loop; call Stop to end it.
func NewLoginThrottle(cfg ThrottleConfig) *LoginThrottle {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = 15 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	t := &LoginThrottle{
		attempts:        make(map[string]*attemptRecord),
		maxAttempts:     cfg.MaxAttempts,
		window:          cfg.Window,
		lockout:         cfg.Lockout,
		cleanupInterval: cfg.CleanupInterval,
		now:             time.Now,
		stop:            make(chan struct{}),
	}
	go t.cleanupLoop()
	return t
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (t *LoginThrottle) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Allow reports whether addr may attempt a login, and if not, for how long it is locked.
func (t *LoginThrottle) Allow(addr string) (bool, time.Duration) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.attempts[addr]
	if !ok {
		return true, 0
	}
	if now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	return true, 0
}

// RecordFailure counts a failed attempt and reports whether addr is now locked.
func (t *LoginThrottle) RecordFailure(addr string) bool {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.attempts[addr]
	if !ok || now.Sub(record.firstFailure) > t.window {
		record = &attemptRecord{firstFailure: now}
		t.attempts[addr] = record
	}

	record.failures++
	if record.failures >= t.maxAttempts {
		record.lockedUntil = now.Add(t.lockout)
		return true
	}
	return false
}

// RecordSuccess forgets previous failures of addr.
func (t *LoginThrottle) RecordSuccess(addr string) {
	t.mu.Lock()
	delete(t.attempts, addr)
	t.mu.Unlock()
}

func (t *LoginThrottle) cleanupLoop() {
	ticker := time.NewTicker(t.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup()
		case <-t.stop:
			return
		}
	}
}

func (t *LoginThrottle) cleanup() {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for addr, record := range t.attempts {
		if now.Sub(record.firstFailure) > t.window && !now.Before(record.lockedUntil) {
			delete(t.attempts, addr)
		}
	}
}

// Middleware rejects locked-out clients with 429 before the handler runs.
func (t *LoginThrottle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := t.Allow(c.ClientIP())
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Too many login attempts",
				"retryAfter": seconds,
			})
			return
		}
		c.Next()
	}
}
