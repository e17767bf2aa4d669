package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/config"
	"github.com/example/bazzarly/internal/database"
	"github.com/example/bazzarly/internal/events"
	"github.com/example/bazzarly/internal/logging"
	"github.com/example/bazzarly/internal/repository"
	"github.com/example/bazzarly/internal/repository/memory"
	"github.com/example/bazzarly/internal/routes"
	"github.com/example/bazzarly/internal/services"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Dev:    cfg.IsDevelopment(),
		Dir:    cfg.LogDir,
		MaxAge: cfg.LogMaxAge,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	rules := cfg.Rules()
	now := time.Now

	var repos repository.Repositories
	switch cfg.DatabaseDriver {
	case "memory":
		logger.Warn("using in-memory storage; data is lost on restart")
		repos = memory.New(rules, now).Repositories()
	default:
		db, err := database.Connect(cfg.DatabaseURL, cfg.IsDevelopment(), logger)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		repos = repository.NewGorm(db, rules, now)
	}

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	}
	defer publisher.Close()

	svc := services.New(repos, services.Options{
		Rules:     rules,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenExpires,
		Log:       logger,
		Events:    publisher,
		Notifier:  services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, logger),
		Now:       now,
	})

	app := routes.NewApp(routes.Deps{
		Config:   cfg,
		Services: svc,
		Repos:    repos,
		Log:      logger,
		Started:  time.Now(),
	})

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.AppPort),
			zap.String("environment", cfg.Environment),
			zap.String("storage", cfg.DatabaseDriver),
		)
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			logger.Fatal("fiber.Listen error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
