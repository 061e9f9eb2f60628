// Package main provides the main entry point for the tailwind-mail broadcast service
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/tailwind-mail/app/handlers"
	"github.com/amirphl/tailwind-mail/app/logger"
	"github.com/amirphl/tailwind-mail/app/middleware"
	"github.com/amirphl/tailwind-mail/app/router"
	"github.com/amirphl/tailwind-mail/app/scheduler"
	"github.com/amirphl/tailwind-mail/app/services"
	businessflow "github.com/amirphl/tailwind-mail/business_flow"
	"github.com/amirphl/tailwind-mail/config"
	"github.com/amirphl/tailwind-mail/models"
	"github.com/amirphl/tailwind-mail/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.Config
	logger    *zap.Logger
	db        *gorm.DB
	notifier  services.DispatchNotifier
	stopFuncs []func()
}

func main() {
	issueToken := flag.String("issue-admin-token", "", "print a signed admin token for the given subject and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if *issueToken != "" {
		tokens, err := services.NewTokenService(cfg.Admin.TokenTTL, cfg.Admin.Issuer, cfg.Admin.JWTSecret)
		if err != nil {
			zl.Fatal("Failed to initialize token service", zap.Error(err))
		}
		token, err := tokens.GenerateAdminToken(*issueToken)
		if err != nil {
			zl.Fatal("Failed to issue admin token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	zl.Info("Starting tailwind-mail", zap.String("environment", cfg.Environment))

	app, err := initializeApplication(cfg, zl)
	if err != nil {
		zl.Fatal("Failed to initialize application", zap.Error(err))
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-sigChan
	zl.Info("Shutting down gracefully...")
	app.shutdown()
	zl.Info("Server stopped")
}

// shutdown stops the HTTP server first so no new commands race the background workers
func (a *Application) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		a.logger.Error("Error during server shutdown", zap.Error(err))
	}

	for _, fn := range a.stopFuncs {
		fn()
	}

	if err := a.notifier.Close(); err != nil {
		a.logger.Warn("Error closing dispatch notifier", zap.Error(err))
	}

	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("Error closing database", zap.Error(err))
		}
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig, zl *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := models.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	zl.Info("Database connection established",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Bool("auto_migrate", cfg.AutoMigrate))

	return db, nil
}

// initializeDispatchNotifier picks the post-commit broadcast notifier from configuration
func initializeDispatchNotifier(cfg config.DispatchConfig, zl *zap.Logger) (services.DispatchNotifier, error) {
	switch cfg.Provider {
	case "redis":
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		rc := redis.NewClient(opt)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(ctx).Err(); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		zl.Info("Dispatch notifier: redis", zap.String("channel", cfg.RedisChannel))
		return services.NewRedisDispatchNotifier(rc, cfg.RedisChannel), nil
	case "amqp":
		n, err := services.NewAMQPDispatchNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		zl.Info("Dispatch notifier: amqp", zap.String("exchange", cfg.AMQPExchange))
		return n, nil
	default:
		zl.Info("Dispatch notifier disabled")
		return services.NewNoopDispatchNotifier(), nil
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.Config, zl *zap.Logger) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, zl)
	if err != nil {
		return nil, err
	}

	notifier, err := initializeDispatchNotifier(cfg.Dispatch, zl)
	if err != nil {
		return nil, err
	}

	// Repositories
	contactRepo := repository.NewContactRepository(db)
	tagRepo := repository.NewTagRepository(db)
	taggedRepo := repository.NewTaggedRepository(db)
	emailRepo := repository.NewEmailRepository(db)
	broadcastRepo := repository.NewBroadcastRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Services
	renderer := services.NewMarkdownRenderer()
	keyGen := services.NewKeyGenerator()
	tokenService, err := services.NewTokenService(cfg.Admin.TokenTTL, cfg.Admin.Issuer, cfg.Admin.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Business flows
	resolver := businessflow.NewSegmentResolver(contactRepo)
	broadcastFlow := businessflow.NewBroadcastFlow(emailRepo, broadcastRepo, messageRepo, resolver, renderer, notifier, cfg, db, zl)
	contactFlow := businessflow.NewContactFlow(contactRepo, activityRepo, keyGen, db, zl)
	tagFlow := businessflow.NewTagFlow(contactRepo, tagRepo, taggedRepo, db, zl)

	// Handlers
	publicHandler := handlers.NewPublicHandler(contactFlow, zl, cfg.Server.RequestTimeout)
	adminHandler := handlers.NewAdminHandler(broadcastFlow, tagFlow, contactFlow, zl, cfg.Server.RequestTimeout)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	appRouter := router.NewFiberRouter(cfg, zl, publicHandler, adminHandler, authMiddleware)

	if cfg.Scheduler.Enabled {
		finalizer := scheduler.NewBroadcastFinalizer(broadcastRepo, messageRepo, zl, cfg.Scheduler.Interval)
		stopFuncs = append(stopFuncs, finalizer.Start(context.Background()))
	}

	return &Application{
		router:    appRouter,
		config:    cfg,
		logger:    zl,
		db:        db,
		notifier:  notifier,
		stopFuncs: stopFuncs,
	}, nil
}
