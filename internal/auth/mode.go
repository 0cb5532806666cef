package auth

import (
	"strings"

	"github.com/mrlokans/videoanalyzer/internal/config"
)

// Mode decides whether authentication is enforced.
type Mode string

const (
	// ModeDevelopment bypasses authentication and attaches a synthetic session.
	ModeDevelopment Mode = "development"
	// ModeProduction enforces authentication on every protected route.
	ModeProduction Mode = "production"
)

// ModeInfo is the authentication mode resolved once at startup.
type ModeInfo struct {
	Mode              Mode
	ManagedDeployment bool
	// SwitchingAllowed only governs whether tooling may offer a mode switch.
	SwitchingAllowed bool
	SessionDays      int
	Environment      string
	SecureCookies    bool
}

// Bypass reports whether authentication checks are skipped.
func (i ModeInfo) Bypass() bool {
	return i.Mode == ModeDevelopment
}

// IsManagedDeployment reports whether the process runs on the managed platform.
func IsManagedDeployment(d config.Deployment) bool {
	return d.FlyAppName != "" || d.FlyDeploy == "true"
}

// ParseMode maps an explicit mode value to a Mode. Anything other than
// "development" enforces authentication.
func ParseMode(value string) Mode {
	if strings.EqualFold(strings.TrimSpace(value), string(ModeDevelopment)) {
		return ModeDevelopment
	}
	return ModeProduction
}

// ResolveMode applies the precedence: a managed deployment always enforces,
// then the explicit mode, then production.
func ResolveMode(auth config.Auth, deploy config.Deployment, environment string) ModeInfo {
	managed := IsManagedDeployment(deploy)

	mode := ModeProduction
	if !managed {
		mode = ParseMode(auth.Mode)
	}

	days := auth.SessionDurationDays
	if days <= 0 {
		days = DefaultLongSessionDays
	}

	return ModeInfo{
		Mode:              mode,
		ManagedDeployment: managed,
		SwitchingAllowed:  auth.AllowModeSwitching && !managed,
		SessionDays:       days,
		Environment:       environment,
		SecureCookies:     environment == "production" || managed,
	}
}
