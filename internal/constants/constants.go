package constants

import "time"

// Persistence keys. These are the web client's localStorage keys, so
// exported blobs can be imported as-is.
const (
	StorageKeyTasks   = "taskManager_tasks"
	StorageKeyHistory = "taskManager_history"
)

// Session
const (
	SessionCookieName   = "task_session"
	SessionKeyFilter    = "filter"
	SessionMaxAgeSecond = 86400 * 30
)

// Gin context keys
const (
	ContextKeyTask = "task"
)

// Store drivers
const (
	StoreDriverMemory   = "memory"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMySQL    = "mysql"
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
)

const (
	DefaultSweepSchedule   = "@every 1m"
	DefaultShutdownTimeout = 15 * time.Second
)

// Pagination
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
	MinPageSize     = 1
)
