package http

import (
	"github.com/rs/zerolog"

	"github.com/mrlokans/videoanalyzer/internal/auth"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	Logger zerolog.Logger

	// Authentication
	AuthController *auth.AuthController
	AuthMiddleware *auth.Middleware
	Mode           auth.ModeInfo

	// Core dependencies
	AnalysisService AnalysisService
	TagStore        TagStore
	Database        Pinger

	// UI paths
	StaticPath string

	// Application info
	Version string
}
