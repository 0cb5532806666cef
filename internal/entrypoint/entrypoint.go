package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/videoanalyzer/internal/auth"
	"github.com/mrlokans/videoanalyzer/internal/config"
	"github.com/mrlokans/videoanalyzer/internal/database"
	"github.com/mrlokans/videoanalyzer/internal/database/tags"
	"github.com/mrlokans/videoanalyzer/internal/database/videos"
	http_controllers "github.com/mrlokans/videoanalyzer/internal/http"
	"github.com/mrlokans/videoanalyzer/internal/logging"
	"github.com/mrlokans/videoanalyzer/internal/scheduler"
	"github.com/mrlokans/videoanalyzer/internal/services"
	"github.com/mrlokans/videoanalyzer/internal/tasks"
	"github.com/mrlokans/videoanalyzer/internal/youtube"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// within the configured timeout and calls onShutdown.
func Serve(ctx context.Context, router http.Handler, cfg *config.Config, logger zerolog.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Dur("timeout", timeout).Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)

	// Stop background workers after in-flight requests have finished
	if onShutdown != nil {
		onShutdown(shutdownCtx)
	}

	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server exited")
	return nil
}

// Run wires all components from cfg and serves until SIGINT or SIGTERM.
func Run(cfg *config.Config, version string) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	if cfg.Global.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("version", version).Str("environment", cfg.Global.Environment).Msg("starting YouTube video analyzer")

	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing database")
		}
	}()

	// Sessions
	durations := auth.DurationsFromConfig(cfg.Auth)
	store, closeStore, err := NewSessionStore(ctx, cfg, db, durations.Legacy())
	if err != nil {
		return err
	}
	defer closeStore()

	mode := auth.ResolveMode(cfg.Auth, cfg.Deployment, cfg.Global.Environment)
	logModeBanner(logger, cfg, mode)

	manager := auth.NewManager(store, durations, logger)
	authMiddleware := auth.NewMiddleware(manager, mode, cfg.Auth, logger)
	authController := auth.NewAuthController(manager, authMiddleware, mode, cfg.Auth, logger)
	defer authController.Stop()

	sweeper := scheduler.NewSessionSweepScheduler(manager, cfg.Auth.SweepSchedule, logger)
	if err := sweeper.Start(ctx); err != nil {
		return err
	}

	// Video analysis
	videoRepo := videos.NewRepository(db.DB)
	tagRepo := tags.NewRepository(db.DB)

	if cfg.YouTube.APIKey == "" {
		logger.Warn().Msg("YOUTUBE_API_KEY is not set, video analysis will fail")
	}
	metadataClient := youtube.NewMetadataClient(cfg.YouTube.APIKey)
	extractor := youtube.NewTranscriptExtractor(cfg.YouTube, logger)

	var queue services.TranscriptQueue
	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks), logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing task client")
			}
		}()

		taskClient.Register(tasks.NewFetchTranscriptQueue(extractor, videoRepo, logger))
		go taskClient.Start(ctx)
		queue = taskClient
	}

	analysisService := services.NewAnalysisService(videoRepo, metadataClient, extractor, queue, logger)

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Logger:          logger,
		AuthController:  authController,
		AuthMiddleware:  authMiddleware,
		Mode:            mode,
		AnalysisService: analysisService,
		TagStore:        tagRepo,
		Database:        db,
		StaticPath:      cfg.UI.StaticPath,
		Version:         version,
	})

	onShutdown := func(ctx context.Context) {
		sweeper.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
	}

	return Serve(ctx, router, cfg, logger, onShutdown)
}

// logModeBanner reports the resolved authentication mode once at startup.
func logModeBanner(logger zerolog.Logger, cfg *config.Config, mode auth.ModeInfo) {
	logger.Info().
		Str("auth_mode", string(mode.Mode)).
		Bool("managed_deployment", mode.ManagedDeployment).
		Bool("mode_switching_allowed", mode.SwitchingAllowed).
		Int("session_days", mode.SessionDays).
		Str("session_store", cfg.Auth.Store).
		Bool("secure_cookies", mode.SecureCookies).
		Msg("authentication configured")

	if mode.Bypass() {
		logger.Warn().Msg("DEVELOPMENT MODE: authentication is disabled and every request is treated as authenticated. Do not expose this server.")
		return
	}
	if cfg.Auth.APIKey == "" {
		logger.Warn().Msg("API_KEY is not set, login and API key access will be rejected")
	}
}
