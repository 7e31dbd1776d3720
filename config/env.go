package config

import (
	"context"
	"errors"

	"github.com/bsm/redislock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Env carries every process-wide collaborator. It is opened once in main and
// handed to the components that need it; nothing in the module keeps its own copy.
type Env struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Locker *redislock.Client
	Cache  *Cache
	Logger *logrus.Logger
}

// LoadDotEnv reads .env when present. A missing file is not an error.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func Open(ctx context.Context) (*Env, error) {
	logg := NewLogger()

	db, err := ConnectDatabaseWithRetry(logg)
	if err != nil {
		return nil, err
	}
	rdb, locker, err := ConnectRedisWithRetry(ctx, logg)
	if err != nil {
		// redis is an optimisation only
		LogError(logg, "config", "Open", "redis unavailable, continuing without cache", nil, err)
	}
	return &Env{
		DB:     db,
		Redis:  rdb,
		Locker: locker,
		Cache:  NewCache(rdb),
		Logger: logg,
	}, nil
}

// NewEnv wraps an existing connection, used by tests and tools.
func NewEnv(db *gorm.DB, logg *logrus.Logger) *Env {
	if logg == nil {
		logg = NewLogger()
	}
	return &Env{DB: db, Cache: NewCache(nil), Logger: logg}
}

func (e *Env) Close() error {
	var errs []error
	if e.Redis != nil {
		errs = append(errs, e.Redis.Close())
	}
	if e.DB != nil {
		if sqlDB, err := e.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		} else {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
