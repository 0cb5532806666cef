package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/videoanalyzer/internal/config"
)

// DefaultCookieName is the session cookie used when none is configured.
const DefaultCookieName = "yva_session"

// LoginRequest is the body accepted by the login endpoint.
type LoginRequest struct {
	APIKey     string       `json:"apiKey"`
	RememberMe OptionalBool `json:"rememberMe"`
}

// OptionalBool tells an omitted field apart from an explicit value.
// An explicit null counts as present and false.
type OptionalBool struct {
	Present bool
	Value   bool
}

func (o *OptionalBool) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Value = false
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Or returns the decoded value, or fallback when the field was omitted.
func (o OptionalBool) Or(fallback bool) bool {
	if !o.Present {
		return fallback
	}
	return o.Value
}

type LoginResponse struct {
	Success     bool   `json:"success"`
	Token       string `json:"token"`
	ExpiresIn   int64  `json:"expiresIn"` // seconds
	SessionDays int    `json:"sessionDays"`
}

type RefreshResponse struct {
	Success     bool      `json:"success"`
	ExpiresAt   time.Time `json:"expiresAt"`
	SessionDays int       `json:"sessionDays"`
}

type SessionInfoResponse struct {
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	LastActivityAt time.Time  `json:"lastActivityAt"`
	SessionAge     int64      `json:"sessionAge"`    // seconds
	TimeRemaining  int64      `json:"timeRemaining"` // seconds
	RememberMe     bool       `json:"rememberMe"`
	UserAgent      string     `json:"userAgent"`
	CreatedFrom    string     `json:"createdFrom"`
}

type ModeResponse struct {
	Mode                 Mode   `json:"mode"`
	Environment          string `json:"environment"`
	ModeSwitchingAllowed bool   `json:"modeSwitchingAllowed"`
	SessionDurationDays  int    `json:"sessionDurationDays"`
	IsManagedDeployment  bool   `json:"isManagedDeployment"`
	NodeEnv              string `json:"nodeEnv"`
}

// AuthController handles the login, logout and session endpoints.
type AuthController struct {
	manager    *Manager
	middleware *Middleware
	mode       ModeInfo
	apiKey     string
	cookieName string
	throttle   *LoginThrottle
	logger     zerolog.Logger
}

// NewAuthController creates the auth endpoints. The returned controller owns
// a login throttle; call Stop on shutdown.
func NewAuthController(manager *Manager, middleware *Middleware, mode ModeInfo, cfg config.Auth, logger zerolog.Logger) *AuthController {
	return &AuthController{
		manager:    manager,
		middleware: middleware,
		mode:       mode,
		apiKey:     cfg.APIKey,
		cookieName: cookieName(cfg),
		throttle: NewLoginThrottle(ThrottleConfig{
			MaxAttempts: cfg.MaxLoginAttempts,
			Window:      cfg.RateLimitWindow,
			Lockout:     cfg.LockoutDuration,
		}),
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// RegisterRoutes registers the /api/auth endpoints.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/api/auth")
	group.POST("/login", ac.throttle.Middleware(), ac.Login)
	group.GET("/verify", ac.middleware.RequireSession(), ac.Verify)
	group.POST("/logout", ac.Logout)
	group.POST("/refresh", ac.middleware.RequireSession(), ac.Refresh)
	group.GET("/session-info", ac.middleware.RequireSession(), ac.SessionInfo)
	group.GET("/mode", ac.Mode)
}

// Stop releases the login throttle.
func (ac *AuthController) Stop() {
	ac.throttle.Stop()
}

// Login exchanges the static key for a session token and cookie.
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	clientIP := c.ClientIP()
	if !MatchAPIKey(ac.apiKey, req.APIKey) {
		locked := ac.throttle.RecordFailure(clientIP)
		ac.logger.Warn().
			Str("client_ip", clientIP).
			Bool("locked", locked).
			Msg("login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}
	ac.throttle.RecordSuccess(clientIP)

	rememberMe := req.RememberMe.Or(true)

	s, err := ac.manager.Create(c.Request.Context(), rememberMe, c.Request.UserAgent(), clientIP)
	if err != nil {
		ac.logger.Error().Err(err).Msg("failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	duration := ac.manager.Durations().For(rememberMe)
	ac.setSessionCookie(c, s.Token, duration)

	c.JSON(http.StatusOK, LoginResponse{
		Success:     true,
		Token:       s.Token,
		ExpiresIn:   int64(duration / time.Second),
		SessionDays: ac.manager.Durations().Days(rememberMe),
	})
}

// Verify confirms the caller holds a valid session.
func (ac *AuthController) Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "valid": true})
}

// Logout deletes the caller's session if any and always clears the cookie.
func (ac *AuthController) Logout(c *gin.Context) {
	token := FirstToken(c.Request, ac.middleware.Extractors()...)
	if err := ac.manager.Revoke(c.Request.Context(), token); err != nil {
		ac.logger.Error().Err(err).Str("token", TokenPrefix(token)).Msg("failed to revoke session")
	}

	ac.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Refresh extends the caller's session and re-issues the cookie.
func (ac *AuthController) Refresh(c *gin.Context) {
	s, err := ac.manager.Refresh(c.Request.Context(), GetSession(c))
	switch {
	case errors.Is(err, ErrNotRefreshable):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No valid session to refresh",
			"code":  "not_refreshable",
		})
		return
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, unauthorizedBody)
		return
	case err != nil:
		ac.logger.Error().Err(err).Msg("failed to refresh session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ac.setSessionCookie(c, s.Token, ac.manager.Durations().For(s.RememberMe))
	c.JSON(http.StatusOK, RefreshResponse{
		Success:     true,
		ExpiresAt:   *s.ExpiresAt,
		SessionDays: ac.manager.Durations().Days(s.RememberMe),
	})
}

// SessionInfo describes the caller's session.
func (ac *AuthController) SessionInfo(c *gin.Context) {
	s := GetSession(c)
	if s == nil || s.Synthetic {
		c.JSON(http.StatusOK, gin.H{"mode": ModeDevelopment, "mock": true})
		return
	}

	now := ac.manager.Now()
	expiry := s.CreatedAt.Add(ac.manager.Durations().Legacy())
	if s.ExpiresAt != nil {
		expiry = *s.ExpiresAt
	}

	c.JSON(http.StatusOK, SessionInfoResponse{
		CreatedAt:      s.CreatedAt,
		ExpiresAt:      s.ExpiresAt,
		LastActivityAt: s.LastActivityAt,
		SessionAge:     int64(now.Sub(s.CreatedAt) / time.Second),
		TimeRemaining:  int64(expiry.Sub(now) / time.Second),
		RememberMe:     s.RememberMe,
		UserAgent:      s.UserAgent,
		CreatedFrom:    s.CreatedFrom,
	})
}

// Mode reports the resolved authentication mode. It is unauthenticated.
func (ac *AuthController) Mode(c *gin.Context) {
	environment := "local"
	if ac.mode.ManagedDeployment {
		environment = "production"
	}

	c.JSON(http.StatusOK, ModeResponse{
		Mode:                 ac.mode.Mode,
		Environment:          environment,
		ModeSwitchingAllowed: ac.mode.SwitchingAllowed,
		SessionDurationDays:  ac.mode.SessionDays,
		IsManagedDeployment:  ac.mode.ManagedDeployment,
		NodeEnv:              ac.mode.Environment,
	})
}

func (ac *AuthController) setSessionCookie(c *gin.Context, token string, maxAge time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     ac.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   ac.mode.SecureCookies,
	})
}

func (ac *AuthController) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     ac.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   ac.mode.SecureCookies,
	})
}
