package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Log
		Auth
		Deployment
		Redis
		YouTube
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		Environment              string // NODE_ENV / APP_ENV, "production" enables secure cookies
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	UI struct {
		StaticPath string
	}
	Log struct {
		Level  string
		Format string // "json" or "console"
	}
	Auth struct {
		APIKey              string // Single shared secret for login and the X-API-Key fallback
		Mode                string // Explicit mode override: "development" or "production"
		SessionDurationDays int    // Remember-me session length, also the legacy expiry
		ShortSessionDays    int    // Session length without remember-me
		AllowModeSwitching  bool
		CookieName          string
		Store               string // memory, sqlite or redis
		SweepSchedule       string // Cron format, empty disables the sweeper

		// Login throttling
		MaxLoginAttempts int
		RateLimitWindow  time.Duration
		LockoutDuration  time.Duration
	}
	Deployment struct {
		FlyAppName string
		FlyDeploy  string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
	YouTube struct {
		APIKey    string
		YtDlpPath string
		TempDir   string
		Timeout   time.Duration
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

// getEnvironment returns the deployment environment, checking both APP_ENV and the legacy NODE_ENV
func getEnvironment(v *viper.Viper) string {
	if env := v.GetString("APP_ENV"); env != "" {
		return env
	}
	return v.GetString("NODE_ENV")
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	return newConfigFrom(v)
}

func newConfigFrom(v *viper.Viper) *Config {
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("static_path", "./public")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Auth defaults
	v.SetDefault("api_key", "")
	v.SetDefault("auth_mode", "")               // Empty resolves to production
	v.SetDefault("session_duration_days", 90)   // Remember-me sessions
	v.SetDefault("short_session_days", 1)       // Sessions without remember-me
	v.SetDefault("allow_mode_switching", false) // Ignored on managed deployments
	v.SetDefault("auth_cookie_name", "yva_session")
	v.SetDefault("auth_session_store", SessionStoreMemory)
	v.SetDefault("auth_sweep_schedule", "*/15 * * * *")
	v.SetDefault("auth_max_login_attempts", 10)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "15m")

	// Redis defaults (only used with AUTH_SESSION_STORE=redis)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_prefix", "yva_session")

	// YouTube defaults
	v.SetDefault("ytdlp_path", "yt-dlp")
	v.SetDefault("ytdlp_temp_dir", "/tmp")
	v.SetDefault("ytdlp_timeout", "60s")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "5m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			Environment:              getEnvironment(v),
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		UI: UI{
			StaticPath: v.GetString("STATIC_PATH"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Auth: Auth{
			APIKey:              v.GetString("API_KEY"),
			Mode:                v.GetString("AUTH_MODE"),
			SessionDurationDays: v.GetInt("SESSION_DURATION_DAYS"),
			ShortSessionDays:    v.GetInt("SHORT_SESSION_DAYS"),
			AllowModeSwitching:  v.GetBool("ALLOW_MODE_SWITCHING"),
			CookieName:          v.GetString("AUTH_COOKIE_NAME"),
			Store:               v.GetString("AUTH_SESSION_STORE"),
			SweepSchedule:       v.GetString("AUTH_SWEEP_SCHEDULE"),
			MaxLoginAttempts:    v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:     v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:     v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Deployment: Deployment{
			FlyAppName: v.GetString("FLY_APP_NAME"),
			FlyDeploy:  v.GetString("FLY_DEPLOY"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Prefix:   v.GetString("REDIS_PREFIX"),
		},
		YouTube: YouTube{
			APIKey:    v.GetString("YOUTUBE_API_KEY"),
			YtDlpPath: v.GetString("YTDLP_PATH"),
			TempDir:   v.GetString("YTDLP_TEMP_DIR"),
			Timeout:   v.GetDuration("YTDLP_TIMEOUT"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}
