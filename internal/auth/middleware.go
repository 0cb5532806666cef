package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/videoanalyzer/internal/config"
)

// Context keys for authentication data
const (
	ContextKeySession  = "auth_session"
	ContextKeyAuthType = "auth_type" // "session", "api_key", "bypass", or "none"
)

// AuthType indicates how the request was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeAPIKey  AuthType = "api_key"
	AuthTypeBypass  AuthType = "bypass"
)

// unauthorizedBody is returned for every credential failure so callers
// cannot tell a missing token from an unknown or expired one.
var unauthorizedBody = gin.H{"error": "Unauthorized"}

// Middleware provides the authentication gates for protected routes.
type Middleware struct {
	manager    *Manager
	mode       ModeInfo
	apiKey     string
	extractors []TokenExtractor
	apiKeyOf   func(r *http.Request) string
	logger     zerolog.Logger
}

// NewMiddleware creates the authentication gates. Tokens are read from the
// session cookie first and the Authorization header second.
func NewMiddleware(manager *Manager, mode ModeInfo, cfg config.Auth, logger zerolog.Logger) *Middleware {
	return &Middleware{
		manager:    manager,
		mode:       mode,
		apiKey:     cfg.APIKey,
		extractors: DefaultExtractors(cookieName(cfg)),
		apiKeyOf:   APIKeyExtractor(),
		logger:     logger.With().Str("component", "auth").Logger(),
	}
}

// Extractors returns the ordered token sources used by the gates.
func (m *Middleware) Extractors() []TokenExtractor {
	return m.extractors
}

// Bypass attaches a synthetic session when authentication is bypassed and
// does nothing otherwise.
func (m *Middleware) Bypass() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.bypass(c)
		c.Next()
	}
}

// RequireSession only admits requests carrying a valid session token.
func (m *Middleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.bypass(c) {
			c.Next()
			return
		}

		if s := m.trySession(c); s != nil {
			setSession(c, s, AuthTypeSession)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorizedBody)
	}
}

// RequireSessionOrAPIKey admits a valid session token, or failing that a
// request whose X-API-Key header equals the configured key.
func (m *Middleware) RequireSessionOrAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.bypass(c) {
			c.Next()
			return
		}

		if s := m.trySession(c); s != nil {
			setSession(c, s, AuthTypeSession)
			c.Next()
			return
		}

		if MatchAPIKey(m.apiKey, m.apiKeyOf(c.Request)) {
			c.Set(ContextKeyAuthType, AuthTypeAPIKey)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorizedBody)
	}
}

// bypass attaches the synthetic session in development mode and reports whether it did.
func (m *Middleware) bypass(c *gin.Context) bool {
	if !m.mode.Bypass() {
		return false
	}
	if GetAuthType(c) != AuthTypeBypass {
		setSession(c, NewSyntheticSession(m.manager.Now(), c.Request.UserAgent()), AuthTypeBypass)
		m.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("auth bypassed")
	}
	return true
}

func (m *Middleware) trySession(c *gin.Context) *Session {
	token := FirstToken(c.Request, m.extractors...)
	if token == "" {
		return nil
	}

	s, err := m.manager.Validate(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, ErrUnauthorized) {
			m.logger.Error().Err(err).Str("token", TokenPrefix(token)).Msg("session lookup failed")
		}
		return nil
	}
	return s
}

func setSession(c *gin.Context, s *Session, authType AuthType) {
	c.Set(ContextKeySession, s)
	c.Set(ContextKeyAuthType, authType)
}

// GetSession returns the session attached by a gate, or nil.
func GetSession(c *gin.Context) *Session {
	if v, exists := c.Get(ContextKeySession); exists {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return nil
}

// GetAuthType returns how the request was authenticated.
func GetAuthType(c *gin.Context) AuthType {
	if v, exists := c.Get(ContextKeyAuthType); exists {
		if t, ok := v.(AuthType); ok {
			return t
		}
	}
	return AuthTypeNone
}

// AuthTypeString adapts GetAuthType for the request logger.
func AuthTypeString(c *gin.Context) string {
	return string(GetAuthType(c))
}

func cookieName(cfg config.Auth) string {
	if cfg.CookieName == "" {
		return DefaultCookieName
	}
	return cfg.CookieName
}
