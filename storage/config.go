package storage

import (
	"errors"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSnapshotTTL = 5 * time.Minute

// NewTablesFromEnv builds the Tables gateway from environment settings.
// STORAGE_CONNECTION_STRING is required; table names default to the
// flowmate* convention.
func NewTablesFromEnv() (*Tables, error) {
	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	if connStr == "" {
		return nil, errors.New("STORAGE_CONNECTION_STRING is not set")
	}
	return NewTables(connStr,
		envString("TASKS_TABLE", "flowmatetasks"),
		envString("COLUMNS_TABLE", "flowmatecolumns"),
		envString("RULES_TABLE", "flowmaterules"),
	)
}

// NewCacheFromEnv wraps the base gateway with a Redis snapshot cache when
// REDIS_CONNECTION_STRING is set, and returns the base unchanged otherwise.
// SNAPSHOT_CACHE_TTL overrides the default 5m TTL.
func NewCacheFromEnv(base Gateway) (Gateway, error) {
	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		return base, nil
	}
	opts, err := redis.ParseURL(redisConn)
	if err != nil {
		return nil, err
	}

	ttl := defaultSnapshotTTL
	if v := os.Getenv("SNAPSHOT_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ttl = d
		}
	}
	return NewCache(base, redis.NewClient(opts), ttl), nil
}

func envString(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
