package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./videoanalyzer.db"
)

// Session store backends selectable via AUTH_SESSION_STORE.
const (
	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"
	SessionStoreRedis  = "redis"
)
