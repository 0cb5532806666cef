package entrypoint

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/videoanalyzer/internal/auth"
	"github.com/mrlokans/videoanalyzer/internal/config"
	"github.com/mrlokans/videoanalyzer/internal/database"
)

// NewSessionStore builds the session backend selected by AUTH_SESSION_STORE.
// The returned func releases the backend's resources.
func NewSessionStore(ctx context.Context, cfg *config.Config, db *database.Database, legacy time.Duration) (auth.Store, func(), error) {
	switch cfg.Auth.Store {
	case "", config.SessionStoreMemory:
		return auth.NewMemoryStore(), func() {}, nil

	case config.SessionStoreSQLite:
		sqlDB, err := db.DB.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("get SQL DB for sessions: %w", err)
		}
		store, err := auth.NewSQLiteStore(sqlDB, legacy)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.SessionStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}

		store := auth.NewRedisStore(client, cfg.Redis.Prefix, legacy)
		return store, func() { _ = client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q (want memory, sqlite or redis)", cfg.Auth.Store)
	}
}
