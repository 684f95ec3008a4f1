package config

import (
	"log"
	"os"
	"time"

	"github.com/yukikurage/task-tracker/internal/constants"
)

type Config struct {
	Addr            string
	GinMode         string
	StoreDriver     string
	SQLitePath      string
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	StoreKeyPrefix  string
	SessionSecret   string
	SweepSchedule   string
	TimeZone        string
	ShutdownTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Addr:            getEnv("APP_ADDR", "127.0.0.1:8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		StoreDriver:     getEnv("STORE_DRIVER", constants.StoreDriverSQLite),
		SQLitePath:      getEnv("SQLITE_PATH", "tasks.db"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "3306"),
		DBUser:          getEnv("DB_USER", "taskuser"),
		DBPassword:      getEnv("DB_PASSWORD", "taskpassword"),
		DBName:          getEnv("DB_NAME", "task_tracker"),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		StoreKeyPrefix:  getEnv("STORE_KEY_PREFIX", ""),
		SessionSecret:   getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		SweepSchedule:   getEnv("SWEEP_SCHEDULE", constants.DefaultSweepSchedule),
		TimeZone:        getEnv("TIMEZONE", "Local"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", constants.DefaultShutdownTimeout),
	}
}

// Location resolves TimeZone, falling back to the local zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Printf("Warning: unknown time zone %q, using local time: %v", c.TimeZone, err)
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
