package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrUnauthorized covers every credential failure: missing, unknown or expired tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidAPIKey is returned by login when the supplied key does not match.
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrNotRefreshable is returned when refresh is attempted on a synthetic session.
	ErrNotRefreshable = errors.New("no valid session to refresh")
	// ErrSweepUnsupported is returned when the store cannot enumerate tokens.
	ErrSweepUnsupported = errors.New("session store does not support sweeping")
)

// Manager owns the session store and every state transition of a session.
type Manager struct {
	store     Store
	clock     Clock
	durations Durations
	logger    zerolog.Logger

	// mu makes get, validate, delete and touch a single step per token.
	mu sync.Mutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the time source.
func WithClock(clock Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager creates a session manager on top of store.
func NewManager(store Store, durations Durations, logger zerolog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:     store,
		clock:     realClock{},
		durations: durations,
		logger:    logger.With().Str("component", "sessions").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if cs, ok := store.(clockedStore); ok {
		cs.useClock(m.clock)
	}
	return m
}

// clockedStore is implemented by stores that compute expiry deadlines
// themselves and must agree with the manager on the current time.
type clockedStore interface {
	useClock(Clock)
}

// Durations returns the configured session lengths.
func (m *Manager) Durations() Durations {
	return m.durations
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.clock.Now()
}

// Create issues a new session and stores it under a fresh token.
func (m *Manager) Create(ctx context.Context, rememberMe bool, userAgent, addr string) (*Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	expiresAt := now.Add(m.durations.For(rememberMe))
	s := &Session{
		Token:          token,
		CreatedAt:      now,
		ExpiresAt:      &expiresAt,
		LastActivityAt: now,
		RememberMe:     rememberMe,
		UserAgent:      userAgent,
		CreatedFrom:    addr,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Put(ctx, token, s); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	m.logger.Info().Object("session", s).Msg("session created")
	return s.Clone(), nil
}

// Validate looks up token and checks it against the grace window.
// Expired sessions are deleted; valid ones get their last activity updated.
func (m *Manager) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, found, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, ErrUnauthorized
	}

	now := m.clock.Now()
	if !s.ValidAt(now, m.durations.Legacy()) {
		if err := m.store.Delete(ctx, token); err != nil {
			return nil, fmt.Errorf("delete expired session: %w", err)
		}
		m.logger.Debug().Object("session", s).Msg("expired session removed")
		return nil, ErrUnauthorized
	}

	s.LastActivityAt = now
	if err := m.store.Put(ctx, token, s); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	return s, nil
}

// Refresh moves the expiry of s to now plus the duration implied by its
// stored remember-me flag. The expiry never moves backwards.
func (m *Manager) Refresh(ctx context.Context, s *Session) (*Session, error) {
	if s == nil || s.Synthetic || s.Token == "" {
		return nil, ErrNotRefreshable
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, found, err := m.store.Get(ctx, s.Token)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, ErrUnauthorized
	}

	now := m.clock.Now()
	expiresAt := now.Add(m.durations.For(current.RememberMe))
	if current.ExpiresAt != nil && expiresAt.Before(*current.ExpiresAt) {
		expiresAt = *current.ExpiresAt
	}
	current.ExpiresAt = &expiresAt
	current.LastActivityAt = now

	if err := m.store.Put(ctx, current.Token, current); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	m.logger.Info().Object("session", current).Msg("session refreshed")
	return current.Clone(), nil
}

// Revoke deletes token. Unknown or empty tokens are not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.logger.Info().Str("token", TokenPrefix(token)).Msg("session revoked")
	return nil
}

// Sweep deletes every stored session that is no longer valid and returns
// how many were removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	lister, ok := m.store.(TokenLister)
	if !ok {
		return 0, ErrSweepUnsupported
	}

	tokens, err := lister.Tokens(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		expired, err := m.removeIfExpired(ctx, token)
		if err != nil {
			return removed, err
		}
		if expired {
			removed++
		}
	}
	return removed, nil
}

func (m *Manager) removeIfExpired(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, found, err := m.store.Get(ctx, token)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if !found || s.ValidAt(m.clock.Now(), m.durations.Legacy()) {
		return false, nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return false, fmt.Errorf("delete expired session: %w", err)
	}
	return true, nil
}
