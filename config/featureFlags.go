package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func envBool(key string) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// CurrencyAutoUpdateEnabled reports whether scheduled rate updates were requested.
// Rates are only ever changed through the manual update path; the flag is surfaced at startup.
func CurrencyAutoUpdateEnabled() bool {
	return envBool("CURRENCY_AUTO_UPDATE")
}

// AutoMigrateEnabled runs gorm AutoMigrate at startup (AUTO_MIGRATE=true).
func AutoMigrateEnabled() bool {
	return envBool("AUTO_MIGRATE")
}

// ScopeCacheTTL controls how long a user's assigned customer ids stay in redis.
func ScopeCacheTTL() time.Duration {
	return envDuration("SCOPE_CACHE_TTL", 10*time.Minute)
}

// LedgerLockTTL bounds the redis posting lock held around a propagation.
func LedgerLockTTL() time.Duration {
	return envDuration("LEDGER_LOCK_TTL", 15*time.Second)
}

// OverdueSweepEnabled starts the background sweeper that flags past-due invoices.
func OverdueSweepEnabled() bool {
	return envBool("OVERDUE_SWEEP_ENABLED")
}

func OverdueSweepInterval() time.Duration {
	return envDuration("OVERDUE_SWEEP_INTERVAL", time.Hour)
}

// RateLimitEnabled turns on the per-client request limiter. It needs redis.
func RateLimitEnabled() bool {
	return envBool("RATE_LIMIT_ENABLED")
}

func RateLimitMaxRequests() int {
	return envInt("RATE_LIMIT_MAX_REQUESTS", 600)
}

func RateLimitWindow() time.Duration {
	return envDuration("RATE_LIMIT_WINDOW", time.Minute)
}
