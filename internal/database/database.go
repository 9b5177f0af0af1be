// Package database opens the GORM connection, keeps the schema current and
// seeds the shared security questions for local setups.
package database

import (
	"context"
	"fmt"

	"albumportal/internal/config"
	"albumportal/internal/logging"
	"albumportal/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured datastore, retrying timeouts as the
// configuration allows.
func Open(ctx context.Context, cfg config.Database, log logging.Logger) (*gorm.DB, error) {
	retrier := Retrier{Attempts: cfg.ConnectAttempts, Backoff: cfg.RetryBackoff, Logger: log}

	var db *gorm.DB
	err := retrier.Do(ctx, "connect", func(ctx context.Context) error {
		dialector, err := dialectorFor(cfg)
		if err != nil {
			return err
		}
		conn, err := gorm.Open(dialector, &gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return fmt.Errorf("failed to get connection pool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.Name), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates the account, question and album tables.
// Usernames are additionally unique regardless of case.
func Migrate(db *gorm.DB, table models.AlbumTable) error {
	if err := db.AutoMigrate(&models.Account{}, &models.SecurityQuestion{}); err != nil {
		return fmt.Errorf("failed to migrate accounts: %w", err)
	}
	if err := db.Table(string(table)).AutoMigrate(&models.Album{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", table, err)
	}
	err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_album_users_username_folded ON album_users (LOWER(username))`).Error
	if err != nil {
		return fmt.Errorf("failed to create folded username index: %w", err)
	}
	return nil
}

// DefaultQuestions is the challenge set used for local installs.
var DefaultQuestions = []models.SecurityQuestion{
	{Question: "What is your favorite color?", Answer: "blue"},
	{Question: "What is the name of your first pet?", Answer: "fluffy"},
	{Question: "Where were you born?", Answer: "city"},
	{Question: "What is your mother's maiden name?", Answer: "patel"},
	{Question: "What was your first car?", Answer: "honda"},
}

// SeedQuestions inserts questions when the question table is empty.
func SeedQuestions(db *gorm.DB, questions []models.SecurityQuestion) error {
	var count int64
	if err := db.Model(&models.SecurityQuestion{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count security questions: %w", err)
	}
	if count > 0 || len(questions) == 0 {
		return nil
	}
	seed := make([]models.SecurityQuestion, len(questions))
	copy(seed, questions)
	if err := db.Create(&seed).Error; err != nil {
		return fmt.Errorf("failed to seed security questions: %w", err)
	}
	return nil
}
