package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/handlers"
	"github.com/mmdatafocus/travel_backend/middlewares"
	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/workflow"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func main() {
	config.LoadDotEnv()

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	env, err := config.Open(sigCtx)
	if err != nil {
		logrus.WithFields(logrus.Fields{"field": "startup"}).Fatal("cannot open environment: " + err.Error())
	}
	defer func() {
		if err := env.Close(); err != nil {
			env.Logger.WithFields(logrus.Fields{"field": "shutdown"}).Warn("close: " + err.Error())
		}
	}()
	logger := env.Logger

	if config.AutoMigrateEnabled() {
		if err := models.MigrateTable(env.DB); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal("AutoMigrate failed: " + err.Error())
		}
		if err := models.SeedReferenceData(sigCtx, env.DB); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal("seeding reference data failed: " + err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Info("AUTO_MIGRATE is off; skipping AutoMigrate on startup")
	}
	if config.CurrencyAutoUpdateEnabled() {
		logger.WithFields(logrus.Fields{"field": "currency"}).Warn("CURRENCY_AUTO_UPDATE is set but rates are updated manually only")
	}

	ledger := workflow.NewLedger(env)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.CorrelationMiddleware(logger))
	r.Use(cors.New(corsConfig()))
	if config.RateLimitEnabled() {
		limiter := middlewares.NewRateLimiter(env.Redis, int64(config.RateLimitMaxRequests()), config.RateLimitWindow())
		r.Use(limiter.Middleware())
	}
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.Use(middlewares.AuthMiddleware(env))
	r.Use(middlewares.ErrorLogger(logger))
	handlers.New(env, ledger).Register(r.Group("/api"))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if config.OverdueSweepEnabled() {
		sweeper := workflow.NewOverdueSweeper(ledger, logger)
		sweeper.PollInterval = config.OverdueSweepInterval()
		go sweeper.Run(workerCtx)
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()
	logger.WithFields(logrus.Fields{"info": "listening"}).Info("travel backend started on :", port)

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// stop background work before draining requests
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		cfg.AllowOrigins = splitAndTrim(allowedOrigins)
		if len(cfg.AllowOrigins) == 0 {
			// production without an allow list accepts no browser origin
			cfg.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		cfg.AllowAllOrigins = true
	}
	cfg.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders("Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Correlation-Id")
	cfg.AddExposeHeaders("Content-Length", "X-Correlation-Id")
	cfg.AllowCredentials = true
	return cfg
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
