package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func dsnFromEnv() (string, error) {
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME_2")
	if name == "" {
		name = os.Getenv("DB_NAME")
	}
	if user == "" || host == "" || name == "" {
		return "", errors.New("DB_USER, DB_HOST and DB_NAME must be set")
	}
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", user, password, host, port, name), nil
}

// ConnectDatabase opens the MySQL connection, tunes the pool and installs the tracing plugin.
func ConnectDatabase(logg *logrus.Logger) (*gorm.DB, error) {
	dsn, err := dsnFromEnv()
	if err != nil {
		return nil, err
	}

	logLevel := logger.Silent
	if envBool("DB_LOG_SQL") {
		logLevel = logger.Info
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(envInt("DB_MAX_OPEN_CONNS", 25))
	sqlDB.SetMaxIdleConns(envInt("DB_MAX_IDLE_CONNS", 10))
	sqlDB.SetConnMaxLifetime(envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute))

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		return nil, err
	}
	// balance propagation relies on read committed plus explicit row locks
	if err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error; err != nil {
		LogError(logg, "config", "ConnectDatabase", "set isolation level", nil, err)
	}
	return db, nil
}

func ConnectDatabaseWithRetry(logg *logrus.Logger) (*gorm.DB, error) {
	maxAttempts := envInt("DB_CONNECT_ATTEMPTS", 5)
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, err := ConnectDatabase(logg)
		if err == nil {
			return db, nil
		}
		lastErr = err
		LogError(logg, "config", "ConnectDatabaseWithRetry", fmt.Sprintf("attempt %d", attempt), nil, err)
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, fmt.Errorf("connect database: %w", lastErr)
}
