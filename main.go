package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"albumportal/internal/config"
	"albumportal/internal/database"
	"albumportal/internal/handlers"
	"albumportal/internal/logging"
	"albumportal/internal/middleware"
	"albumportal/internal/repositories"
	"albumportal/internal/server"
	"albumportal/internal/services"
	"albumportal/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "portal stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logging.SlogLogger) error {
	// --- Datastore ---
	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get connection pool: %w", err)
	}
	defer sqlDB.Close()

	if err := database.Migrate(db, cfg.Database.AlbumTable); err != nil {
		return err
	}
	if cfg.Database.SeedQuestions {
		if err := database.SeedQuestions(db, database.DefaultQuestions); err != nil {
			return err
		}
	}

	// --- Audit events ---
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			return err
		}
		defer mqClient.Close()
		events = mqClient
	} else {
		log.Info(ctx, "RABBITMQ_URL not set, account events are not published")
	}

	app := buildApp(cfg, db, events, log)

	// --- HTTP server ---
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting server", "port", cfg.AppPort, "version", cfg.AppVersion)
		errCh <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down server")
	if err := app.Shutdown(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	log.Info(context.Background(), "server gracefully stopped")
	return nil
}

// buildApp wires repositories, services and handlers into the Fiber app.
func buildApp(cfg *config.Config, db *gorm.DB, events services.EventPublisher, log *logging.SlogLogger) *fiber.App {
	retry := database.Retrier{
		Attempts: cfg.Database.ConnectAttempts,
		Backoff:  cfg.Database.RetryBackoff,
		Logger:   log,
	}
	accountRepo := repositories.NewGORMAccountRepository(db, retry)
	questionRepo := repositories.NewGORMQuestionRepository(db, retry)
	albumRepo := repositories.NewGORMAlbumRepository(db, cfg.Database.AlbumTable, retry)

	sessionService := services.NewSessionService(cfg.Session.Secret, cfg.Session.IdleTimeout)
	accountService := services.NewAccountService(accountRepo, questionRepo, events, log)
	albumService := services.NewAlbumService(albumRepo)

	session := middleware.NewSession(sessionService, cfg.Session.CookieSecure, log)
	var pinger handlers.Pinger = pingerFunc(func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	return server.New(session, server.Handlers{
		Auth:   handlers.NewAuthHandler(accountService, session, log),
		Albums: handlers.NewAlbumHandler(albumService, accountService, session, cfg.AppVersion, log),
		Health: handlers.NewHealthHandler(pinger, log),
	}, log, server.Options{AppName: "album portal " + cfg.AppVersion, AccessLog: true})
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }
