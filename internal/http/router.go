package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/videoanalyzer/internal/auth"
	"github.com/mrlokans/videoanalyzer/internal/logging"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	if err := auth.ConfigureClientIP(router, cfg.Mode); err != nil {
		cfg.Logger.Error().Err(err).Msg("failed to configure trusted proxies")
	}
	router.Use(logging.RequestID())
	router.Use(logging.RequestLogger(cfg.Logger, auth.AuthTypeString))
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware(cfg.Mode.SecureCookies))

	// Attach the synthetic session when authentication is bypassed
	router.Use(cfg.AuthMiddleware.Bypass())

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/api/health", health.Liveness)

	// Auth endpoints
	cfg.AuthController.RegisterRoutes(router)

	// Everything else under /api accepts a session or the API key
	api := router.Group("/api", cfg.AuthMiddleware.RequireSessionOrAPIKey())

	videosController := NewVideosController(cfg.AnalysisService, cfg.TagStore)
	api.POST("/video/analyze", videosController.Analyze)
	api.GET("/video/:id", videosController.GetVideo)
	api.DELETE("/video/:id", videosController.DeleteVideo)
	api.GET("/videos", videosController.ListVideos)
	api.POST("/video/:id/tags", videosController.AddTags)
	api.DELETE("/video/:id/tags/:tagId", videosController.RemoveTag)

	tagsController := NewTagsController(cfg.TagStore)
	api.GET("/tags", tagsController.GetAllTags)
	api.POST("/tags", tagsController.CreateTag)
	api.PUT("/tags/:id", tagsController.UpdateTag)
	api.DELETE("/tags/:id", tagsController.DeleteTag)

	// UI routes
	NewPagesController(cfg.StaticPath).RegisterRoutes(router)

	return router
}
