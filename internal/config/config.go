// Package config loads portal settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"albumportal/internal/models"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds runtime settings for the portal.
type Config struct {
	AppPort     string
	AppVersion  string
	LogLevel    string
	RabbitMQURL string
	Database    Database
	Session     Session
}

// Database describes how to reach the datastore.
type Database struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
	// Timeout is the connection-level timeout handed to the driver.
	Timeout time.Duration
	// ConnectAttempts bounds tries on timeout-class failures.
	ConnectAttempts int
	RetryBackoff    time.Duration
	SeedQuestions   bool
	AlbumTable      models.AlbumTable
}

// Session configures the cookie-borne session.
type Session struct {
	Secret       string
	IdleTimeout  time.Duration
	CookieSecure bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_VERSION", "v2026.1.5")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_TIMEOUT", 60)
	v.SetDefault("DB_CONNECT_ATTEMPTS", 3)
	v.SetDefault("DB_RETRY_BACKOFF", time.Second)
	v.SetDefault("DB_SEED_QUESTIONS", false)
	v.SetDefault("ALBUM_TABLE", string(models.AlbumTableDefault))
	v.SetDefault("SESSION_IDLE_TIMEOUT", 15*time.Minute)
	v.SetDefault("COOKIE_SECURE", true)
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var errs []error
	table, err := models.ParseAlbumTable(strings.TrimSpace(v.GetString("ALBUM_TABLE")))
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		AppPort:     v.GetString("APP_PORT"),
		AppVersion:  v.GetString("APP_VERSION"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		RabbitMQURL: v.GetString("RABBITMQ_URL"),
		Database: Database{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			Name:            v.GetString("DB_NAME"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			Timeout:         time.Duration(v.GetInt("DB_TIMEOUT")) * time.Second,
			ConnectAttempts: v.GetInt("DB_CONNECT_ATTEMPTS"),
			RetryBackoff:    v.GetDuration("DB_RETRY_BACKOFF"),
			SeedQuestions:   v.GetBool("DB_SEED_QUESTIONS"),
			AlbumTable:      table,
		},
		Session: Session{
			Secret:       v.GetString("SESSION_SECRET"),
			IdleTimeout:  v.GetDuration("SESSION_IDLE_TIMEOUT"),
			CookieSecure: v.GetBool("COOKIE_SECURE"),
		},
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	db := c.Database
	switch db.Driver {
	case DriverPostgres:
		if db.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if db.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required"))
		}
	case DriverSQLite:
		if db.Name == "" {
			errs = append(errs, errors.New("DB_NAME (database file) is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", db.Driver))
	}
	if db.Timeout <= 0 {
		errs = append(errs, errors.New("DB_TIMEOUT must be positive"))
	}
	if db.ConnectAttempts < 1 {
		errs = append(errs, errors.New("DB_CONNECT_ATTEMPTS must be at least 1"))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must be positive"))
	}
	return errs
}

// DSN renders the postgres connection string. Values are single-quoted so
// passwords with spaces or quotes survive.
func (d Database) DSN() string {
	pairs := []struct{ key, value string }{
		{"host", d.Host},
		{"port", fmt.Sprint(d.Port)},
		{"user", d.User},
		{"password", d.Password},
		{"dbname", d.Name},
		{"sslmode", d.SSLMode},
		{"connect_timeout", fmt.Sprint(int(d.Timeout / time.Second))},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+quote(p.value))
	}
	return strings.Join(parts, " ")
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
