package auth

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/videoanalyzer/internal/config"
)

// GracePeriod is how long past ExpiresAt a session is still honored.
const GracePeriod = 5 * time.Minute

// Default session lengths, used when configuration leaves them unset.
const (
	DefaultShortSessionDays = 1
	DefaultLongSessionDays  = 90
)

const day = 24 * time.Hour

// Session is the server-held record of a successful login.
type Session struct {
	Token          string     `json:"token"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"` // nil for legacy sessions
	LastActivityAt time.Time  `json:"lastActivityAt"`
	RememberMe     bool       `json:"rememberMe"`

	// Audit only, never consulted for authorization.
	UserAgent   string `json:"userAgent,omitempty"`
	CreatedFrom string `json:"createdFrom,omitempty"`

	// Synthetic sessions are attached in development mode and are never stored.
	Synthetic  bool   `json:"mock,omitempty"`
	Mode       string `json:"mode,omitempty"`
	DeviceInfo string `json:"deviceInfo,omitempty"`
}

// NewSyntheticSession returns the marker session attached when authentication is bypassed.
func NewSyntheticSession(now time.Time, userAgent string) *Session {
	return &Session{
		CreatedAt:      now,
		LastActivityAt: now,
		UserAgent:      userAgent,
		Synthetic:      true,
		Mode:           string(ModeDevelopment),
		DeviceInfo:     "Development Mode",
	}
}

// Deadline is the last instant the session is valid. Sessions with an
// expiry get the grace period on top; legacy sessions expire legacy after creation.
func (s *Session) Deadline(legacy time.Duration) time.Time {
	if s.ExpiresAt != nil {
		return s.ExpiresAt.Add(GracePeriod)
	}
	return s.CreatedAt.Add(legacy)
}

// ValidAt reports whether the session is still honored at now.
func (s *Session) ValidAt(now time.Time, legacy time.Duration) bool {
	return !now.After(s.Deadline(legacy))
}

// Clone returns a deep copy so callers never share the stored record.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.ExpiresAt != nil {
		exp := *s.ExpiresAt
		cp.ExpiresAt = &exp
	}
	return &cp
}

// MarshalZerologObject logs the session without exposing the full token.
func (s *Session) MarshalZerologObject(e *zerolog.Event) {
	e.Str("token", TokenPrefix(s.Token)).
		Time("created_at", s.CreatedAt).
		Bool("remember_me", s.RememberMe).
		Bool("synthetic", s.Synthetic)
	if s.ExpiresAt != nil {
		e.Time("expires_at", *s.ExpiresAt)
	}
}

// Durations holds the two session lengths selected by remember-me.
type Durations struct {
	Short time.Duration
	Long  time.Duration
}

// DurationsFromConfig converts the configured day counts, falling back to defaults.
func DurationsFromConfig(cfg config.Auth) Durations {
	short := cfg.ShortSessionDays
	if short <= 0 {
		short = DefaultShortSessionDays
	}
	long := cfg.SessionDurationDays
	if long <= 0 {
		long = DefaultLongSessionDays
	}
	return Durations{
		Short: time.Duration(short) * day,
		Long:  time.Duration(long) * day,
	}
}

// For returns the session length implied by rememberMe.
func (d Durations) For(rememberMe bool) time.Duration {
	if rememberMe {
		return d.Long
	}
	return d.Short
}

// Days returns the session length in whole days.
func (d Durations) Days(rememberMe bool) int {
	return int(d.For(rememberMe) / day)
}

// Legacy is the fixed lifetime applied to sessions stored without an expiry.
func (d Durations) Legacy() time.Duration {
	return d.Long
}

// Clock is an injectable time source to enable deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}
